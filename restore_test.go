package jobrunner

import (
	"context"
	"reflect"
	"testing"

	"github.com/benchfarm/jobrunner/service/sqlite"
)

// TestRestorePipelineManager runs a pipeline whose install step fails,
// persists it, and checks a fresh manager resurrects exactly the
// recorded tree.
func TestRestorePipelineManager(t *testing.T) {
	dbpath := t.TempDir() + "/test.db"
	db, err := sqlite.Create(dbpath)
	if err != nil {
		t.Fatalf("cannot create db: %v", err)
	}
	defer db.Close()
	svc := sqlite.NewPipelineService(db)

	man, err := NewPipelineManager(svc)
	if err != nil {
		t.Fatal(err)
	}
	p := NewPipeline("nightly", NewSequential("standard",
		NewJob("pin", "pin"),
		NewJob("install", "install"),
		NewParallel("run",
			NewJob("run-a", "a100"),
			NewJob("run-h", "h100"),
		),
	))
	p.WorkDir = t.TempDir()
	id, err := man.Add(p)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	sched := newFakeScheduler()
	sched.fail["install"] = true
	_, err = p.Schedule(context.Background(), sched, testProfiles(t))
	if err == nil {
		t.Fatal("the install failure should surface")
	}
	err = man.Save(p)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	man2, err := NewPipelineManager(svc)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	got := man2.Get(id)
	if got == nil {
		t.Fatal("restored manager should know the pipeline")
	}
	if !reflect.DeepEqual(got.Snapshot(), p.Snapshot()) {
		t.Fatalf("got\n%+v, want\n%+v", got.Snapshot(), p.Snapshot())
	}
	// the restored tree carries the failure, so a rerun can be
	// planned from it directly
	np := Rerun(got)
	jobs := np.Jobs()
	if len(jobs) != 4 {
		t.Fatalf("got %v resubmittable jobs, want 4", len(jobs))
	}
}
