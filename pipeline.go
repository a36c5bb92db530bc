package jobrunner

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/xid"
)

// DefaultWorkDir is the root every pipeline run keeps its output
// under, when no other root is configured.
const DefaultWorkDir = "scratch/jobrunner"

// Pipeline is a run-level wrapper around a job definition. It owns the
// definition tree exclusively; concurrent Schedule calls against the
// same pipeline must be serialized by the caller.
type Pipeline struct {
	// Name identifies the run and names its output directory.
	Name string

	// JobID identifies the pipeline to the runner. A pipeline run as
	// a whole is never given an external scheduler id, but it has a
	// job id like everything else in the tree.
	JobID string

	// Definition is the root node, normally a composite.
	Definition JobNode

	// WorkDir overrides DefaultWorkDir as the output root.
	WorkDir string
}

// NewPipeline creates a pipeline owning the given definition.
func NewPipeline(name string, definition JobNode) *Pipeline {
	return &Pipeline{Name: name, Definition: definition}
}

// Init assigns ids to the pipeline and to any job missing one.
// Ids are assigned once, at tree construction, and survive reruns
// untouched. Init returns unmodified pointer of the pipeline, for in
// case when user wants to directly assign to a variable.
func (p *Pipeline) Init() *Pipeline {
	if p.JobID == "" {
		p.JobID = xid.New().String()
	}
	initNode(p.Definition)
	return p
}

func initNode(n JobNode) {
	switch v := n.(type) {
	case *Job:
		if v.JobID == "" {
			v.JobID = xid.New().String()
		}
	case *Sequential:
		for _, c := range v.Jobs {
			initNode(c)
		}
	case *Parallel:
		for _, c := range v.Jobs {
			initNode(c)
		}
	case *Pipeline:
		v.Init()
	}
}

// Validate validates a raw pipeline that was sent from a user.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("a pipeline should have a name")
	}
	if p.Definition == nil {
		return fmt.Errorf("a pipeline should have a job definition")
	}
	seen := make(map[string]bool)
	return validateNode(p.Definition, seen)
}

func validateNode(n JobNode, seen map[string]bool) error {
	switch v := n.(type) {
	case *Job:
		if v.Script == "" {
			return fmt.Errorf("a job should have a script")
		}
		if v.Profile == "" {
			return fmt.Errorf("a job should have a profile")
		}
		if v.JobID != "" {
			if seen[v.JobID] {
				return fmt.Errorf("duplicate job id: %v", v.JobID)
			}
			seen[v.JobID] = true
		}
	case *Sequential:
		for _, c := range v.Jobs {
			err := validateNode(c, seen)
			if err != nil {
				return err
			}
		}
	case *Parallel:
		for _, c := range v.Jobs {
			err := validateNode(c, seen)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// OutputDir is the pipeline's output directory under root.
// Every node nests under its parent's directory, so the on-disk
// layout mirrors the shape of the job tree. That is intentional: a
// job's artifacts can be located purely from its tree position.
func (p *Pipeline) OutputDir(root string) string {
	return filepath.Join(root, p.Name)
}

// Generate delegates to the definition under the pipeline's own
// output directory.
func (p *Pipeline) Generate(ctx context.Context, g *GenContext) ([]string, error) {
	return p.Definition.Generate(ctx, g.child(p.OutputDir(g.OutDir), g.DependsOn, g.Event))
}

// Schedule compiles the whole definition into scheduler submissions.
// The root context carries no incoming dependency. It returns the
// final external ids of the run, or the error that stopped the walk.
func (p *Pipeline) Schedule(ctx context.Context, sched Scheduler, profiles *ProfileSet) ([]string, error) {
	root := p.WorkDir
	if root == "" {
		root = DefaultWorkDir
	}
	g := &GenContext{Scheduler: sched, Profiles: profiles, OutDir: root}
	return p.Generate(ctx, g)
}

// Jobs returns every leaf job of the pipeline in walk order.
func (p *Pipeline) Jobs() []*Job {
	return appendJobs(p.Definition, nil)
}

func appendJobs(n JobNode, jobs []*Job) []*Job {
	switch v := n.(type) {
	case *Job:
		jobs = append(jobs, v)
	case *Sequential:
		for _, c := range v.Jobs {
			jobs = appendJobs(c, jobs)
		}
	case *Parallel:
		for _, c := range v.Jobs {
			jobs = appendJobs(c, jobs)
		}
	case *Pipeline:
		jobs = appendJobs(v.Definition, jobs)
	}
	return jobs
}

// FindJob returns the job having the id, or nil.
func (p *Pipeline) FindJob(jobID string) *Job {
	for _, j := range p.Jobs() {
		if j.JobID == jobID {
			return j
		}
	}
	return nil
}

// Snapshot converts the pipeline to its persisted record.
func (p *Pipeline) Snapshot() *Snapshot {
	return &Snapshot{
		Type:       "pipeline",
		Name:       p.Name,
		JobID:      p.JobID,
		Definition: p.Definition.Snapshot(),
	}
}

// StandardRun builds the canned benchmark definition: pin, install and
// prepare run in order, then the run script fans out over every
// hardware profile.
func StandardRun() JobNode {
	return NewSequential("standard",
		NewJob("pin", "pin"),
		NewJob("install", "install"),
		NewJob("prepare", "prepare"),
		NewParallel("run",
			NewJob("run", "a100l"),
			NewJob("run", "a100"),
			NewJob("run", "a6000"),
			NewJob("run", "h100"),
			NewJob("run", "l40s"),
			NewJob("run", "rtx8000"),
			NewJob("run", "v100"),
		),
	)
}
