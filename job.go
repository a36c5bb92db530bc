package jobrunner

import (
	"context"
	"os"
	"path/filepath"
)

// Job is a leaf node, one submittable unit of a pipeline.
type Job struct {
	// Script references the executable/template the job runs.
	Script string

	// Profile names the resource profile the job runs under,
	// e.g. a hardware class.
	Profile string

	// JobID identifies the job within its pipeline. It is assigned
	// when the tree is initialized and never changes afterwards,
	// so artifacts of reruns accumulate under the same directory.
	JobID string

	// ExternalID is the scheduler-assigned identity.
	// It is empty until the job has been submitted.
	ExternalID string

	Status Status
}

// NewJob creates a pending Job running script under the named profile.
func NewJob(script, profile string) *Job {
	return &Job{Script: script, Profile: profile}
}

// OutputDir is the job's output directory under root.
func (j *Job) OutputDir(root string) string {
	return filepath.Join(root, j.JobID)
}

// Generate materializes the job's output directory, resolves its
// profile, builds a submission directive with the incoming dependency
// context and submits it. On success the job records the external id
// the scheduler returned and becomes submitted. On rejection the job
// becomes failed, records no external id, and a SubmissionError is
// returned.
func (j *Job) Generate(ctx context.Context, g *GenContext) ([]string, error) {
	fail := func(err error) ([]string, error) {
		j.Status = StatusFailed
		return nil, &SubmissionError{JobID: j.JobID, Script: j.Script, Err: err}
	}
	dep, err := g.clause()
	if err != nil {
		return fail(err)
	}
	out := j.OutputDir(g.OutDir)
	// Recreating an existing directory is fine. Reruns reuse it.
	err = os.MkdirAll(out, 0755)
	if err != nil {
		return fail(err)
	}
	p, err := g.Profiles.Resolve(j.Profile)
	if err != nil {
		return fail(err)
	}
	d := Directive{
		Name:       j.Script,
		Script:     j.Script,
		WorkDir:    out,
		Args:       p.Args(),
		Dependency: dep,
	}
	id, err := g.Scheduler.Submit(ctx, d)
	if err != nil {
		return fail(err)
	}
	j.ExternalID = id
	j.Status = StatusSubmitted
	return []string{id}, nil
}

// Snapshot converts the job to its persisted record.
func (j *Job) Snapshot() *Snapshot {
	return &Snapshot{
		Type:       "job",
		Script:     j.Script,
		Profile:    j.Profile,
		JobID:      j.JobID,
		ExternalID: j.ExternalID,
		Status:     j.Status.String(),
	}
}
