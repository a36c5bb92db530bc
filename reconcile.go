package jobrunner

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Reconciler reads observed job outcomes from the scheduler back into
// pipeline trees. It is a separate read path from Generate and may run
// on any schedule. It only ever mutates job statuses, never identity
// fields.
type Reconciler struct {
	Scheduler Scheduler

	// MaxElapsed bounds how long one transient status query is
	// retried before it is given up for this pass.
	// Zero means a 30 second window.
	MaxElapsed time.Duration
}

// Reconcile polls the scheduler for every submitted job of the
// pipeline and records succeeded and failed outcomes. Jobs the
// scheduler still reports pending or running are left submitted.
// It returns the number of jobs whose status changed.
//
// A transient query failure is retried with exponential backoff and,
// when it doesn't recover, reported as a StatusQueryError. The tree
// stays in its last known-good state; statuses already recorded in
// this pass are kept.
func (r *Reconciler) Reconcile(ctx context.Context, p *Pipeline) (int, error) {
	changed := 0
	for _, j := range p.Jobs() {
		if j.Status != StatusSubmitted || j.ExternalID == "" {
			continue
		}
		state, err := r.query(ctx, j.ExternalID)
		if err != nil {
			return changed, err
		}
		switch state {
		case StateSucceeded:
			j.Status = StatusSucceeded
			changed++
		case StateFailed:
			j.Status = StatusFailed
			changed++
		}
	}
	return changed, nil
}

func (r *Reconciler) query(ctx context.Context, externalID string) (JobState, error) {
	maxElapsed := r.MaxElapsed
	if maxElapsed == 0 {
		maxElapsed = 30 * time.Second
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed
	var state JobState
	op := func() error {
		s, err := r.Scheduler.QueryStatus(ctx, externalID)
		if err != nil {
			return err
		}
		state = s
		return nil
	}
	err := backoff.Retry(op, backoff.WithContext(bo, ctx))
	if err != nil {
		return StatePending, &StatusQueryError{ExternalID: externalID, Err: err}
	}
	return state, nil
}
