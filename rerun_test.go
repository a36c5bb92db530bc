package jobrunner

import (
	"context"
	"reflect"
	"testing"
)

func TestRerunAllSucceeded(t *testing.T) {
	p := NewPipeline("nightly", NewSequential("standard",
		&Job{Script: "pin", Profile: "pin", JobID: "j1", ExternalID: "40", Status: StatusSucceeded},
		NewParallel("run",
			&Job{Script: "run", Profile: "a100", JobID: "j2", ExternalID: "41", Status: StatusSucceeded},
			&Job{Script: "run", Profile: "h100", JobID: "j3", ExternalID: "42", Status: StatusSucceeded},
		),
	))
	p.JobID = "p1"

	np := Rerun(p)
	if np.Name != p.Name || np.JobID != p.JobID {
		t.Fatalf("a rerun should keep the pipeline identity: %v %v", np.Name, np.JobID)
	}
	if len(np.Jobs()) != 0 {
		t.Fatalf("nothing should be resubmittable: %v jobs", len(np.Jobs()))
	}
	// the whole chain is pruned to a marker carrying the prior run's
	// joined id, which was the parallel's
	skip, ok := np.Definition.(*Skip)
	if !ok {
		t.Fatalf("definition should be pruned to a skip marker: %T", np.Definition)
	}
	want := []string{"41", "42"}
	if !reflect.DeepEqual(skip.ExternalIDs, want) {
		t.Fatalf("got ids %v, want %v", skip.ExternalIDs, want)
	}
}

func TestRerunParallelOneFailed(t *testing.T) {
	p := NewPipeline("nightly", NewParallel("run",
		&Job{Script: "run", Profile: "a100", JobID: "j1", ExternalID: "41", Status: StatusSucceeded},
		&Job{Script: "run", Profile: "h100", JobID: "j2", ExternalID: "42", Status: StatusFailed},
	))
	p.JobID = "p1"

	np := Rerun(p)
	jobs := np.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("only the failed leaf should be resubmittable: %v jobs", len(jobs))
	}
	// the failed job keeps its id so artifacts accumulate in place
	if jobs[0].JobID != "j2" {
		t.Fatalf("got job id %v, want j2", jobs[0].JobID)
	}
	if jobs[0].Status != StatusPending {
		t.Fatalf("got %v, want %v", jobs[0].Status, StatusPending)
	}
	if jobs[0].ExternalID != "" {
		t.Fatalf("the stale external id should be cleared: %v", jobs[0].ExternalID)
	}
	par, ok := np.Definition.(*Parallel)
	if !ok {
		t.Fatalf("the parallel should be kept: %T", np.Definition)
	}
	skip, ok := par.Jobs[0].(*Skip)
	if !ok {
		t.Fatalf("the succeeded leaf should be a skip marker: %T", par.Jobs[0])
	}
	if !reflect.DeepEqual(skip.ExternalIDs, []string{"41"}) {
		t.Fatalf("got ids %v, want [41]", skip.ExternalIDs)
	}
}

func TestRerunNestedPipeline(t *testing.T) {
	inner := NewPipeline("inner", NewSequential("chain",
		&Job{Script: "pin", Profile: "pin", JobID: "j1", ExternalID: "40", Status: StatusSucceeded},
	))
	inner.JobID = "p2"
	p := NewPipeline("outer", NewSequential("root",
		inner,
		&Job{Script: "report", Profile: "pin", JobID: "j2", ExternalID: "41", Status: StatusSucceeded},
	))
	p.JobID = "p1"

	np := Rerun(p)
	// an all-succeeded chain prunes even around a nested pipeline
	skip, ok := np.Definition.(*Skip)
	if !ok {
		t.Fatalf("definition should be pruned to a skip marker: %T", np.Definition)
	}
	if !reflect.DeepEqual(skip.ExternalIDs, []string{"41"}) {
		t.Fatalf("got ids %v, want [41]", skip.ExternalIDs)
	}
}

func TestRerunNestedPipelineKeepsFailed(t *testing.T) {
	inner := NewPipeline("inner",
		&Job{Script: "run", Profile: "a100", JobID: "j1", ExternalID: "40", Status: StatusFailed},
	)
	inner.JobID = "p2"
	p := NewPipeline("outer", NewSequential("root", inner))
	p.JobID = "p1"

	np := Rerun(p)
	seq, ok := np.Definition.(*Sequential)
	if !ok {
		t.Fatalf("the chain should be kept: %T", np.Definition)
	}
	ni, ok := seq.Jobs[0].(*Pipeline)
	if !ok {
		t.Fatalf("the nested pipeline should be kept: %T", seq.Jobs[0])
	}
	if ni.JobID != "p2" {
		t.Fatalf("got pipeline id %v, want p2", ni.JobID)
	}
	j, ok := ni.Definition.(*Job)
	if !ok || j.JobID != "j1" || j.Status != StatusPending || j.ExternalID != "" {
		t.Fatalf("the failed job should be resubmittable under its old id: %+v", ni.Definition)
	}
}

// TestRerunScenario runs the whole loop once: schedule a standard
// chain whose install step fails, reconcile the observed outcome of
// pin, then plan the rerun.
func TestRerunScenario(t *testing.T) {
	sched := newFakeScheduler()
	sched.fail["install"] = true
	pin := NewJob("pin", "pin")
	install := NewJob("install", "install")
	prepare := NewJob("prepare", "prepare")
	a100 := NewJob("run-a100", "a100")
	h100 := NewJob("run-h100", "h100")
	p := NewPipeline("nightly", NewSequential("standard",
		pin, install, prepare,
		NewParallel("run", a100, h100),
	)).Init()
	p.WorkDir = t.TempDir()

	_, err := p.Schedule(context.Background(), sched, testProfiles(t))
	if err == nil {
		t.Fatal("the install failure should surface")
	}

	sched.states[pin.ExternalID] = StateSucceeded
	rec := &Reconciler{Scheduler: sched}
	if _, err := rec.Reconcile(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	for _, c := range []struct {
		job  *Job
		want Status
	}{
		{pin, StatusSucceeded},
		{install, StatusFailed},
		{prepare, StatusPending},
		{a100, StatusPending},
		{h100, StatusPending},
	} {
		if c.job.Status != c.want {
			t.Fatalf("%v: got %v, want %v", c.job.Script, c.job.Status, c.want)
		}
	}

	np := Rerun(p)
	seq, ok := np.Definition.(*Sequential)
	if !ok {
		t.Fatalf("the chain should be kept: %T", np.Definition)
	}
	if len(seq.Jobs) != 4 {
		t.Fatalf("got %v children, want 4", len(seq.Jobs))
	}
	skip, ok := seq.Jobs[0].(*Skip)
	if !ok {
		t.Fatalf("pin should be a skip marker: %T", seq.Jobs[0])
	}
	if !reflect.DeepEqual(skip.ExternalIDs, []string{pin.ExternalID}) {
		t.Fatalf("got ids %v, want [%v]", skip.ExternalIDs, pin.ExternalID)
	}
	for i, script := range []string{"", "install", "prepare"} {
		if i == 0 {
			continue
		}
		j, ok := seq.Jobs[i].(*Job)
		if !ok || j.Script != script {
			t.Fatalf("child %v should be job %v: %+v", i, script, seq.Jobs[i])
		}
	}
	if _, ok := seq.Jobs[3].(*Parallel); !ok {
		t.Fatalf("the fan-out should be kept: %T", seq.Jobs[3])
	}

	// second pass: everything submits, install depends on nothing new
	sched.fail = map[string]bool{}
	if _, err := np.Schedule(context.Background(), sched, testProfiles(t)); err != nil {
		t.Fatal(err)
	}
	ij := np.FindJob(install.JobID)
	if ij == nil || ij.Status != StatusSubmitted {
		t.Fatalf("install should be resubmitted under its old id: %+v", ij)
	}
}
