package jobrunner

import "context"

// JobState is a job state observed from the external scheduler.
type JobState int

const (
	StatePending = JobState(iota)
	StateRunning
	StateSucceeded
	StateFailed
)

// String represents JobState as string.
func (s JobState) String() string {
	return map[JobState]string{
		StatePending:   "pending",
		StateRunning:   "running",
		StateSucceeded: "succeeded",
		StateFailed:    "failed",
	}[s]
}

// Directive is one submission handed to the batch scheduler.
type Directive struct {
	// Name is a human readable name for the submission.
	Name string

	// Script references the executable or template to run.
	Script string

	// WorkDir is the job's output directory. It exists before the
	// directive is submitted.
	WorkDir string

	// Args are the resource arguments resolved from the job's profile.
	Args []string

	// Dependency is the rendered dependency clause,
	// e.g. "afterok:12,13". Empty means no dependency.
	Dependency string
}

// Scheduler is the consumed batch scheduler capability.
// Submit hands one directive over and returns the external id the
// scheduler assigned to it. QueryStatus reads the observed state of a
// previously accepted submission.
type Scheduler interface {
	Submit(ctx context.Context, d Directive) (string, error)
	QueryStatus(ctx context.Context, externalID string) (JobState, error)
}
