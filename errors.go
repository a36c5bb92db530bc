package jobrunner

import "fmt"

// SubmissionError reports a submission directive the external
// scheduler rejected. The job is marked failed and gets no external id.
type SubmissionError struct {
	JobID  string
	Script string
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit %v (job %v): %v", e.Script, e.JobID, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// DependencyResolutionError reports that a node needed predecessor ids
// that were never produced, e.g. every child of the preceding Parallel
// failed to submit.
type DependencyResolutionError struct {
	Node string
}

func (e *DependencyResolutionError) Error() string {
	return fmt.Sprintf("no predecessor ids produced by %v", e.Node)
}

// UnknownVariantError reports a snapshot record with an unrecognized
// type discriminator.
type UnknownVariantError struct {
	Variant string
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown node type: %v", e.Variant)
}

// MalformedRecordError reports a snapshot record that is missing a
// field its variant requires.
type MalformedRecordError struct {
	Variant string
	Field   string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %v record: bad field %v", e.Variant, e.Field)
}

// StatusQueryError reports a transient failure reaching the scheduler
// while reconciling job statuses. It never marks a job failed; the
// tree stays in its last known-good state and the caller may retry.
type StatusQueryError struct {
	ExternalID string
	Err        error
}

func (e *StatusQueryError) Error() string {
	return fmt.Sprintf("query status of %v: %v", e.ExternalID, e.Err)
}

func (e *StatusQueryError) Unwrap() error { return e.Err }
