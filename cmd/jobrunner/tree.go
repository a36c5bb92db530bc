package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
)

type treeNode struct {
	Type        string      `json:"type"`
	Name        string      `json:"name"`
	Script      string      `json:"script"`
	Profile     string      `json:"profile"`
	JobID       string      `json:"job_id"`
	ExternalID  string      `json:"external_id"`
	ExternalIDs []string    `json:"external_ids"`
	Status      string      `json:"status"`
	Jobs        []*treeNode `json:"jobs"`
	Definition  *treeNode   `json:"definition"`
}

// tree prints a pipeline's job tree with per-job statuses, so the
// stalled branch of a failed run is visible at a glance.
func tree(args []string) {
	fset := flag.NewFlagSet("tree", flag.ExitOnError)
	fset.Parse(args)
	fargs := fset.Args()
	if len(fargs) == 0 {
		log.Fatal("need a pipeline id")
	}

	id := fargs[0]
	resp, err := http.Get("http://" + runnerAddr() + "/api/pipeline/" + id)
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		log.Fatalf("pipeline not found: %v", id)
	}

	root := &treeNode{}
	dec := json.NewDecoder(resp.Body)
	err = dec.Decode(root)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("[%v] %v\n", root.JobID, root.Name)
	if root.Definition != nil {
		printNode(root.Definition, 1)
	}
}

func printNode(n *treeNode, depth int) {
	indent := strings.Repeat("\t", depth)
	switch n.Type {
	case "job":
		fmt.Printf("%v%v/%v (%v) %v\n", indent, n.Script, n.Profile, n.ExternalID, n.Status)
	case "skip":
		fmt.Printf("%vskip (%v)\n", indent, strings.Join(n.ExternalIDs, " "))
	default:
		fmt.Printf("%v%v [%v]\n", indent, n.Name, n.Type)
		for _, c := range n.Jobs {
			printNode(c, depth+1)
		}
	}
}
