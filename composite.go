package jobrunner

import (
	"context"
	"path/filepath"
)

// Sequential runs its children strictly in order. Each child waits for
// the previous one to finish successfully before it is released.
type Sequential struct {
	// Name is the node's output directory segment.
	Name string

	Jobs []JobNode
}

// NewSequential creates a Sequential of the given children.
func NewSequential(name string, jobs ...JobNode) *Sequential {
	if name == "" {
		name = "S"
	}
	return &Sequential{Name: name, Jobs: jobs}
}

// OutputDir is the node's output directory under root.
func (s *Sequential) OutputDir(root string) string {
	return filepath.Join(root, s.Name)
}

// Generate submits the children in declared order. The first child
// inherits the incoming dependency context unchanged; every later
// child depends on the ids its predecessor returned, released on
// afterok. It returns the last child's ids.
//
// When a child fails to submit, generation stops right there.
// Children after it are never attempted and stay pending.
func (s *Sequential) Generate(ctx context.Context, g *GenContext) ([]string, error) {
	out := s.OutputDir(g.OutDir)
	ids := g.DependsOn
	event := g.Event
	var prev JobNode
	for _, child := range s.Jobs {
		if prev != nil && len(ids) == 0 && submittable(prev) {
			// The predecessor attempted submissions but produced
			// nothing to depend on (eg. a fully failed Parallel).
			return nil, &DependencyResolutionError{Node: nodeName(prev)}
		}
		got, err := child.Generate(ctx, g.child(out, ids, event))
		if err != nil {
			return nil, err
		}
		ids = got
		event = AfterOK
		prev = child
	}
	return ids, nil
}

// Snapshot converts the node to its persisted record.
func (s *Sequential) Snapshot() *Snapshot {
	return &Snapshot{Type: "sequential", Name: s.Name, Jobs: snapshotChildren(s.Jobs)}
}

// Parallel runs its children concurrently. All children share the same
// upstream dependency and are mutually independent at submission time.
type Parallel struct {
	// Name is the node's output directory segment.
	Name string

	Jobs []JobNode
}

// NewParallel creates a Parallel of the given children.
func NewParallel(name string, jobs ...JobNode) *Parallel {
	if name == "" {
		name = "P"
	}
	return &Parallel{Name: name, Jobs: jobs}
}

// OutputDir is the node's output directory under root.
func (p *Parallel) OutputDir(root string) string {
	return filepath.Join(root, p.Name)
}

// Generate submits every child with the same incoming context and
// returns all returned ids, in declared order. A downstream node
// depending on them needs all of them to satisfy its event.
//
// Siblings are independent: a child that fails to submit doesn't keep
// the others from being submitted, and doesn't fail the node. The
// failure stays recorded on the job itself; whether the run can
// proceed is decided by whatever consumes the joined ids next.
func (p *Parallel) Generate(ctx context.Context, g *GenContext) ([]string, error) {
	out := p.OutputDir(g.OutDir)
	if len(p.Jobs) == 0 {
		return g.DependsOn, nil
	}
	ids := make([]string, 0, len(p.Jobs))
	for _, child := range p.Jobs {
		got, err := child.Generate(ctx, g.child(out, g.DependsOn, g.Event))
		if err != nil {
			continue
		}
		ids = append(ids, got...)
	}
	return ids, nil
}

// Snapshot converts the node to its persisted record.
func (p *Parallel) Snapshot() *Snapshot {
	return &Snapshot{Type: "parallel", Name: p.Name, Jobs: snapshotChildren(p.Jobs)}
}

// Skip marks work a prior run already finished. It keeps the recorded
// external ids in the dependency wiring without resubmitting anything.
type Skip struct {
	// JobID is the id of the job or composite the marker replaced.
	JobID string

	// ExternalIDs are the ids the replaced node returned when it ran.
	ExternalIDs []string
}

// OutputDir is the marker's output directory under root.
// A skip marker materializes nothing, its directory already exists
// from the run that produced it.
func (k *Skip) OutputDir(root string) string {
	return filepath.Join(root, k.JobID)
}

// Generate forwards the recorded ids. Nothing is submitted.
func (k *Skip) Generate(ctx context.Context, g *GenContext) ([]string, error) {
	return k.ExternalIDs, nil
}

// Snapshot converts the marker to its persisted record.
func (k *Skip) Snapshot() *Snapshot {
	return &Snapshot{Type: "skip", JobID: k.JobID, ExternalIDs: k.ExternalIDs}
}

func snapshotChildren(jobs []JobNode) []*Snapshot {
	snaps := make([]*Snapshot, len(jobs))
	for i, j := range jobs {
		snaps[i] = j.Snapshot()
	}
	return snaps
}

// submittable reports whether the node contains at least one job that
// would be handed to the scheduler.
func submittable(n JobNode) bool {
	switch v := n.(type) {
	case *Job:
		return true
	case *Sequential:
		return anySubmittable(v.Jobs)
	case *Parallel:
		return anySubmittable(v.Jobs)
	case *Pipeline:
		return submittable(v.Definition)
	}
	return false
}

func anySubmittable(jobs []JobNode) bool {
	for _, j := range jobs {
		if submittable(j) {
			return true
		}
	}
	return false
}

// nodeName is a human readable identity of the node for error reports.
func nodeName(n JobNode) string {
	switch v := n.(type) {
	case *Job:
		return v.Script
	case *Sequential:
		return v.Name
	case *Parallel:
		return v.Name
	case *Skip:
		return v.JobID
	case *Pipeline:
		return v.Name
	}
	return "unknown"
}
