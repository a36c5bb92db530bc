package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
)

// rerun asks the runner to resubmit a pipeline's not-yet-succeeded
// jobs.
func rerun(args []string) {
	fset := flag.NewFlagSet("rerun", flag.ExitOnError)
	fset.Parse(args)
	fargs := fset.Args()
	if len(fargs) == 0 {
		log.Fatal("need a pipeline id to rerun")
	}

	id := fargs[0]
	data := url.Values{}
	data.Add("id", id)

	resp, err := http.PostForm("http://"+runnerAddr()+"/api/rerun", data)
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal(err)
	}
	if resp.StatusCode != 200 {
		log.Fatalf("%s", body)
	}
	fmt.Println(string(body))
}
