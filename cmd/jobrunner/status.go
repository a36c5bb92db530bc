package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
)

// status prints the per-job statuses of a pipeline.
func status(args []string) {
	fset := flag.NewFlagSet("status", flag.ExitOnError)
	fset.Parse(args)
	fargs := fset.Args()
	if len(fargs) == 0 {
		log.Fatal("need a pipeline id")
	}

	id := fargs[0]
	resp, err := http.Get("http://" + runnerAddr() + "/api/pipeline/" + id + "/status")
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		log.Fatalf("pipeline not found: %v", id)
	}

	type jobStatus struct {
		JobID      string `json:"job_id"`
		Script     string `json:"script"`
		Profile    string `json:"profile"`
		ExternalID string `json:"external_id"`
		Status     string `json:"status"`
	}
	statuses := []jobStatus{}
	dec := json.NewDecoder(resp.Body)
	err = dec.Decode(&statuses)
	if err != nil {
		log.Fatal(err)
	}
	for _, s := range statuses {
		ext := s.ExternalID
		if ext == "" {
			ext = "-"
		}
		fmt.Printf("%v\t%v/%v\t%v\t%v\n", s.JobID, s.Script, s.Profile, ext, s.Status)
	}
}
