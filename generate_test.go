package jobrunner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
)

// fakeScheduler accepts every directive unless the script is listed
// in fail. It assigns increasing numeric external ids.
type fakeScheduler struct {
	nextID  int
	subs    []Directive
	fail    map[string]bool
	states  map[string]JobState
	querErr map[string]error
	queries int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		fail:    make(map[string]bool),
		states:  make(map[string]JobState),
		querErr: make(map[string]error),
	}
}

func (f *fakeScheduler) Submit(ctx context.Context, d Directive) (string, error) {
	if f.fail[d.Script] {
		return "", fmt.Errorf("rejected: %v", d.Script)
	}
	f.nextID++
	f.subs = append(f.subs, d)
	return strconv.Itoa(100 + f.nextID), nil
}

func (f *fakeScheduler) QueryStatus(ctx context.Context, externalID string) (JobState, error) {
	f.queries++
	if err := f.querErr[externalID]; err != nil {
		return StatePending, err
	}
	return f.states[externalID], nil
}

func testProfiles(t *testing.T) *ProfileSet {
	t.Helper()
	profiles, err := ParseProfiles([]byte(`
pin: {cpus: 4}
install: {cpus: 8, mem: 16G}
prepare: {cpus: 8}
a100: {partition: gpu, gres: "gpu:a100:8"}
h100: {partition: gpu, gres: "gpu:h100:8"}
`))
	if err != nil {
		t.Fatal(err)
	}
	return profiles
}

func genContext(t *testing.T, sched Scheduler) *GenContext {
	t.Helper()
	return &GenContext{
		Scheduler: sched,
		Profiles:  testProfiles(t),
		OutDir:    t.TempDir(),
	}
}

func TestClause(t *testing.T) {
	cases := []struct {
		event   DepEvent
		ids     []string
		want    string
		wantErr bool
	}{
		{event: AfterOK, ids: nil, want: ""},
		{event: AfterOK, ids: []string{"12"}, want: "afterok:12"},
		{event: AfterOK, ids: []string{"12", "13"}, want: "afterok:12,13"},
		{event: AfterAny, ids: []string{"12"}, want: "afterany:12"},
		{event: AfterNotOK, ids: []string{"12"}, want: "afternotok:12"},
		{event: "", ids: []string{"12"}, want: "afterok:12"},
		{event: Singleton, ids: nil, want: "singleton"},
		{event: AfterOK, ids: []string{"12,13"}, wantErr: true},
		{event: AfterOK, ids: []string{"12?13"}, wantErr: true},
	}
	for _, c := range cases {
		got, err := Clause(c.event, c.ids)
		if c.wantErr {
			if err == nil {
				t.Fatalf("clause %v %v: want error, got %q", c.event, c.ids, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("clause %v %v: %v", c.event, c.ids, err)
		}
		if got != c.want {
			t.Fatalf("clause %v %v: got %q, want %q", c.event, c.ids, got, c.want)
		}
	}
}

func TestSequentialDependencyChain(t *testing.T) {
	sched := newFakeScheduler()
	pin := NewJob("pin", "pin")
	install := NewJob("install", "install")
	seq := NewSequential("standard", pin, install)

	ids, err := seq.Generate(context.Background(), genContext(t, sched))
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != install.ExternalID {
		t.Fatalf("sequential should return the last child's id: got %v", ids)
	}
	if len(sched.subs) != 2 {
		t.Fatalf("got %v submissions, want 2", len(sched.subs))
	}
	if sched.subs[0].Dependency != "" {
		t.Fatalf("first job should have no dependency: %q", sched.subs[0].Dependency)
	}
	want := "afterok:" + pin.ExternalID
	if sched.subs[1].Dependency != want {
		t.Fatalf("got dependency %q, want %q", sched.subs[1].Dependency, want)
	}
}

func TestSequentialHaltsOnFailure(t *testing.T) {
	sched := newFakeScheduler()
	sched.fail["install"] = true
	pin := NewJob("pin", "pin")
	install := NewJob("install", "install")
	prepare := NewJob("prepare", "prepare")
	seq := NewSequential("standard", pin, install, prepare)

	_, err := seq.Generate(context.Background(), genContext(t, sched))
	var serr *SubmissionError
	if !errors.As(err, &serr) {
		t.Fatalf("want SubmissionError, got %v", err)
	}
	if pin.Status != StatusSubmitted {
		t.Fatalf("pin: got %v, want %v", pin.Status, StatusSubmitted)
	}
	if install.Status != StatusFailed {
		t.Fatalf("install: got %v, want %v", install.Status, StatusFailed)
	}
	if install.ExternalID != "" {
		t.Fatalf("a failed job should record no external id: %v", install.ExternalID)
	}
	// jobs after the failure are never attempted
	if prepare.Status != StatusPending {
		t.Fatalf("prepare: got %v, want %v", prepare.Status, StatusPending)
	}
	if prepare.ExternalID != "" {
		t.Fatalf("prepare should not have been submitted: %v", prepare.ExternalID)
	}
	if len(sched.subs) != 1 {
		t.Fatalf("got %v submissions, want 1", len(sched.subs))
	}
}

func TestParallelJoinOrder(t *testing.T) {
	sched := newFakeScheduler()
	a := NewJob("run-a", "a100")
	b := NewJob("run-b", "a100")
	c := NewJob("run-c", "h100")
	par := NewParallel("run", a, b, c)

	ids, err := par.Generate(context.Background(), genContext(t, sched))
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 {
		t.Fatalf("got %v ids, want 3", len(ids))
	}
	// joined ids keep the declared child order
	want := []string{a.ExternalID, b.ExternalID, c.ExternalID}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got ids %v, want %v", ids, want)
		}
	}
}

func TestParallelSharesUpstreamDependency(t *testing.T) {
	sched := newFakeScheduler()
	a := NewJob("run-a", "a100")
	b := NewJob("run-b", "h100")
	seq := NewSequential("standard",
		NewJob("prepare", "prepare"),
		NewParallel("run", a, b),
	)

	_, err := seq.Generate(context.Background(), genContext(t, sched))
	if err != nil {
		t.Fatal(err)
	}
	dep := sched.subs[1].Dependency
	if dep != sched.subs[2].Dependency {
		t.Fatalf("parallel children should share the same dependency: %q vs %q",
			dep, sched.subs[2].Dependency)
	}
	if dep == "" {
		t.Fatal("parallel children should depend on the prepare job")
	}
}

func TestParallelPartialFailure(t *testing.T) {
	sched := newFakeScheduler()
	sched.fail["run-b"] = true
	a := NewJob("run-a", "a100")
	b := NewJob("run-b", "a100")
	c := NewJob("run-c", "h100")
	par := NewParallel("run", a, b, c)

	ids, err := par.Generate(context.Background(), genContext(t, sched))
	// siblings are independent; the node itself doesn't fail
	if err != nil {
		t.Fatal(err)
	}
	want := []string{a.ExternalID, c.ExternalID}
	if len(ids) != 2 || ids[0] != want[0] || ids[1] != want[1] {
		t.Fatalf("got ids %v, want %v", ids, want)
	}
	if b.Status != StatusFailed {
		t.Fatalf("run-b: got %v, want %v", b.Status, StatusFailed)
	}
}

func TestDependencyResolutionError(t *testing.T) {
	sched := newFakeScheduler()
	sched.fail["run-a"] = true
	sched.fail["run-b"] = true
	report := NewJob("report", "prepare")
	seq := NewSequential("standard",
		NewParallel("run",
			NewJob("run-a", "a100"),
			NewJob("run-b", "h100"),
		),
		report,
	)

	_, err := seq.Generate(context.Background(), genContext(t, sched))
	var derr *DependencyResolutionError
	if !errors.As(err, &derr) {
		t.Fatalf("want DependencyResolutionError, got %v", err)
	}
	if report.Status != StatusPending {
		t.Fatalf("report: got %v, want %v", report.Status, StatusPending)
	}
}

func TestSkipForwardsIDs(t *testing.T) {
	sched := newFakeScheduler()
	install := NewJob("install", "install")
	seq := NewSequential("standard",
		&Skip{JobID: "pin", ExternalIDs: []string{"42"}},
		install,
	)

	_, err := seq.Generate(context.Background(), genContext(t, sched))
	if err != nil {
		t.Fatal(err)
	}
	if len(sched.subs) != 1 {
		t.Fatalf("a skip marker should not submit anything: %v submissions", len(sched.subs))
	}
	if sched.subs[0].Dependency != "afterok:42" {
		t.Fatalf("got dependency %q, want %q", sched.subs[0].Dependency, "afterok:42")
	}
	if install.Status != StatusSubmitted {
		t.Fatalf("install: got %v, want %v", install.Status, StatusSubmitted)
	}
}

func TestUnknownProfileFailsSubmission(t *testing.T) {
	sched := newFakeScheduler()
	j := NewJob("run", "tpu")
	_, err := j.Generate(context.Background(), genContext(t, sched))
	var serr *SubmissionError
	if !errors.As(err, &serr) {
		t.Fatalf("want SubmissionError, got %v", err)
	}
	if len(sched.subs) != 0 {
		t.Fatal("nothing should have reached the scheduler")
	}
}
