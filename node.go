package jobrunner

import (
	"context"
	"fmt"
	"strings"
)

// Status is a job's status within a pipeline run.
type Status int

const (
	// StatusPending means the job hasn't been handed to the scheduler yet.
	StatusPending = Status(iota)
	// StatusSubmitted means the scheduler accepted the job and gave it an external id.
	StatusSubmitted
	StatusSucceeded
	StatusFailed
	// StatusSkipped means a prior run already finished the job,
	// so a rerun keeps its external id without resubmitting.
	StatusSkipped
)

// String represents Status as string.
func (s Status) String() string {
	return map[Status]string{
		StatusPending:   "pending",
		StatusSubmitted: "submitted",
		StatusSucceeded: "succeeded",
		StatusFailed:    "failed",
		StatusSkipped:   "skipped",
	}[s]
}

func statusFromString(s string) (Status, error) {
	st, ok := map[string]Status{
		"pending":   StatusPending,
		"submitted": StatusSubmitted,
		"succeeded": StatusSucceeded,
		"failed":    StatusFailed,
		"skipped":   StatusSkipped,
	}[s]
	if !ok {
		return StatusPending, fmt.Errorf("unknown status: %v", s)
	}
	return st, nil
}

// DepEvent is the condition under which a submitted job is released
// to run, relative to its predecessors.
type DepEvent string

const (
	After      = DepEvent("after")
	AfterOK    = DepEvent("afterok")
	AfterAny   = DepEvent("afterany")
	AfterNotOK = DepEvent("afternotok")
	Singleton  = DepEvent("singleton")
)

// andSep joins predecessor ids that must all satisfy the dependency
// event. orSep would join either-of sets. Both are reserved tokens
// and must never appear inside an external id.
const (
	andSep = ","
	orSep  = "?"
)

// Clause renders the dependency clause of a submission directive,
// e.g. "afterok:12,13". It returns an empty clause when there is
// nothing to depend on.
func Clause(event DepEvent, ids []string) (string, error) {
	if event == Singleton {
		return string(Singleton), nil
	}
	if len(ids) == 0 {
		return "", nil
	}
	if event == "" {
		event = AfterOK
	}
	for _, id := range ids {
		if strings.ContainsAny(id, andSep+orSep) {
			return "", fmt.Errorf("reserved separator in id: %q", id)
		}
	}
	return string(event) + ":" + strings.Join(ids, andSep), nil
}

// GenContext is the dependency context threaded through a tree walk.
// It is rebuilt on every compile pass and never persisted.
type GenContext struct {
	Scheduler Scheduler
	Profiles  *ProfileSet

	// OutDir is the parent node's output directory.
	// Every node nests its own directory under it, so the on-disk
	// layout mirrors the shape of the job tree.
	OutDir string

	// DependsOn holds the external ids the node must wait for,
	// released on Event.
	DependsOn []string
	Event     DepEvent
}

func (g *GenContext) clause() (string, error) {
	return Clause(g.Event, g.DependsOn)
}

// child derives the context a child node is generated with.
func (g *GenContext) child(outDir string, dependsOn []string, event DepEvent) *GenContext {
	return &GenContext{
		Scheduler: g.Scheduler,
		Profiles:  g.Profiles,
		OutDir:    outDir,
		DependsOn: dependsOn,
		Event:     event,
	}
}

// JobNode is a unit of composition in a pipeline definition.
// A node is one of Job, Sequential, Parallel, Skip or Pipeline.
type JobNode interface {
	// Generate compiles the node into scheduler submissions and
	// returns the external ids downstream nodes should depend on.
	Generate(ctx context.Context, g *GenContext) ([]string, error)

	// OutputDir is the node's output directory under root.
	OutputDir(root string) string

	// Snapshot converts the node to its persisted record.
	Snapshot() *Snapshot
}
