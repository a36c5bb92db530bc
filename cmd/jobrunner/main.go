package main

import (
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	args := os.Args[1:]
	if len(args) == 0 {
		log.Fatal("need a subcommand: [order, rerun, status, tree]")
	}

	subcmd := args[0]
	switch subcmd {
	case "order":
		order(args[1:])
	case "rerun":
		rerun(args[1:])
	case "status":
		status(args[1:])
	case "tree":
		tree(args[1:])
	default:
		log.Fatalf("unknown subcommand: %s", subcmd)
	}
}

func runnerAddr() string {
	addr := os.Getenv("JOBRUNNER_ADDR")
	if addr == "" {
		addr = "localhost:8282"
	}
	return addr
}
