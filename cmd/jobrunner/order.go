package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
)

// order sends a pipeline snapshot to the runner. The runner schedules
// it right away.
func order(args []string) {
	fset := flag.NewFlagSet("order", flag.ExitOnError)
	var file string
	fset.StringVar(&file, "f", "", "pipeline snapshot file to order")
	fset.Parse(args)
	if file == "" {
		log.Fatal("need a pipeline snapshot file: -f pipeline.json")
	}

	data, err := os.ReadFile(file)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post("http://"+runnerAddr()+"/api/order", "application/json", bytes.NewReader(data))
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
