package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/benchfarm/jobrunner"
	"github.com/go-chi/chi/v5"
)

// server wires the HTTP API to the pipeline manager. Schedule and
// rerun passes mutate pipeline trees, so they are serialized behind
// the server's lock (single-writer discipline); the read endpoints
// for the dashboard never mutate anything.
type server struct {
	sync.Mutex

	man      *jobrunner.PipelineManager
	sched    jobrunner.Scheduler
	profiles *jobrunner.ProfileSet
	hosts    *jobrunner.HostRegistry
	workdir  string
}

type jobStatus struct {
	JobID      string `json:"job_id"`
	Script     string `json:"script"`
	Profile    string `json:"profile"`
	ExternalID string `json:"external_id,omitempty"`
	Status     string `json:"status"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	err := enc.Encode(v)
	if err != nil {
		log.Print(err)
	}
}

// handleOrder accepts a pipeline snapshot, remembers the pipeline and
// schedules it. The response reports the pipeline's job id and the
// final external ids of the run. A submission failure still leaves
// the materialized tree recorded, so the failed branch is visible and
// rerunnable.
func (s *server) handleOrder(w http.ResponseWriter, r *http.Request) {
	snap := &jobrunner.Snapshot{}
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(snap)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := jobrunner.PipelineFromSnapshot(snap)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.workdir != "" {
		p.WorkDir = s.workdir
	}
	s.Lock()
	defer s.Unlock()
	id, err := s.man.Add(p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ids, scherr := p.Schedule(r.Context(), s.sched, s.profiles)
	// The tree is persisted either way. A failed run keeps explicit
	// per-job markers for the operator and the rerun planner.
	if err := s.man.Save(p); err != nil {
		log.Printf("save pipeline %v: %v", id, err)
	}
	if scherr != nil {
		http.Error(w, scherr.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, struct {
		JobID       string   `json:"job_id"`
		ExternalIDs []string `json:"external_ids"`
	}{JobID: id, ExternalIDs: ids})
}

// handleRerun builds the rerun tree of a pipeline and schedules it.
// Only jobs that didn't succeed are resubmitted.
func (s *server) handleRerun(w http.ResponseWriter, r *http.Request) {
	id := r.FormValue("id")
	if id == "" {
		http.Error(w, "need a pipeline id", http.StatusBadRequest)
		return
	}
	s.Lock()
	defer s.Unlock()
	p, err := s.man.Rerun(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	ids, scherr := p.Schedule(r.Context(), s.sched, s.profiles)
	if err := s.man.Save(p); err != nil {
		log.Printf("save pipeline %v: %v", id, err)
	}
	if scherr != nil {
		http.Error(w, scherr.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, struct {
		JobID       string   `json:"job_id"`
		ExternalIDs []string `json:"external_ids"`
	}{JobID: id, ExternalIDs: ids})
}

// handlePipelines lists the known pipelines.
func (s *server) handlePipelines(w http.ResponseWriter, r *http.Request) {
	type pipelineInfo struct {
		Name  string `json:"name"`
		JobID string `json:"job_id"`
	}
	pipes := s.man.Pipelines(jobrunner.PipelineFilter{Name: r.FormValue("name")})
	infos := make([]pipelineInfo, len(pipes))
	for i, p := range pipes {
		infos[i] = pipelineInfo{Name: p.Name, JobID: p.JobID}
	}
	writeJSON(w, infos)
}

// handlePipeline serves a pipeline's full snapshot, read-only.
func (s *server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	p := s.man.Get(chi.URLParam(r, "id"))
	if p == nil {
		http.Error(w, "cannot find the pipeline", http.StatusNotFound)
		return
	}
	writeJSON(w, p.Snapshot())
}

// handleStatus serves per-job statuses keyed by job id, read-only.
func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	p := s.man.Get(chi.URLParam(r, "id"))
	if p == nil {
		http.Error(w, "cannot find the pipeline", http.StatusNotFound)
		return
	}
	jobs := p.Jobs()
	statuses := make([]jobStatus, len(jobs))
	for i, j := range jobs {
		statuses[i] = jobStatus{
			JobID:      j.JobID,
			Script:     j.Script,
			Profile:    j.Profile,
			ExternalID: j.ExternalID,
			Status:     j.Status.String(),
		}
	}
	writeJSON(w, statuses)
}

// handleHosts lists the registered bare metal hosts.
func (s *server) handleHosts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.hosts.Hosts())
}
