package jobrunner

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/benchfarm/jobrunner/service"
)

// PipelineFilter filters pipelines for PipelineManager.Pipelines.
type PipelineFilter struct {
	Name string
}

// PipelineManager keeps every known pipeline in memory and writes
// changes through to the pipeline service. On creation it restores
// the pipelines the service already knows, so a run survives process
// restarts.
type PipelineManager struct {
	sync.Mutex

	service service.PipelineService

	// pipeline maps a pipeline's job id to the live pipeline.
	pipeline map[string]*Pipeline

	// order maps a pipeline's job id to its order number in the
	// service, needed for updates.
	order map[string]int
}

// NewPipelineManager creates a PipelineManager restoring every
// pipeline the service has.
func NewPipelineManager(svc service.PipelineService) (*PipelineManager, error) {
	m := &PipelineManager{
		service:  svc,
		pipeline: make(map[string]*Pipeline),
		order:    make(map[string]int),
	}
	rows, err := svc.FindPipelines(service.PipelineFilter{})
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		p, err := PipelineFromSnapshotJSON(r.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("restore pipeline %v: %w", r.JobID, err)
		}
		m.pipeline[p.JobID] = p
		m.order[p.JobID] = r.Order
	}
	return m, nil
}

// Add validates, initializes and remembers a pipeline, then stores it
// through the service. It returns the pipeline's job id.
func (m *PipelineManager) Add(p *Pipeline) (string, error) {
	if p == nil {
		return "", fmt.Errorf("nil pipeline cannot be added")
	}
	p.Init()
	err := p.Validate()
	if err != nil {
		return "", err
	}
	m.Lock()
	defer m.Unlock()
	_, ok := m.pipeline[p.JobID]
	if ok {
		return "", fmt.Errorf("pipeline already exists: %v", p.JobID)
	}
	snap, err := json.Marshal(p.Snapshot())
	if err != nil {
		return "", err
	}
	ord, err := m.service.AddPipeline(&service.Pipeline{
		Name:     p.Name,
		JobID:    p.JobID,
		Snapshot: snap,
	})
	if err != nil {
		return "", err
	}
	m.pipeline[p.JobID] = p
	m.order[p.JobID] = ord
	return p.JobID, nil
}

// Get returns the pipeline having the job id, or nil.
func (m *PipelineManager) Get(jobID string) *Pipeline {
	m.Lock()
	defer m.Unlock()
	return m.pipeline[jobID]
}

// Pipelines returns the known pipelines matching the filter,
// in their service order.
func (m *PipelineManager) Pipelines(filter PipelineFilter) []*Pipeline {
	m.Lock()
	defer m.Unlock()
	pipes := make([]*Pipeline, 0, len(m.pipeline))
	for _, p := range m.pipeline {
		if filter.Name != "" && filter.Name != p.Name {
			continue
		}
		pipes = append(pipes, p)
	}
	sort.Slice(pipes, func(i, j int) bool {
		return m.order[pipes[i].JobID] < m.order[pipes[j].JobID]
	})
	return pipes
}

// Save stores the pipeline's current snapshot through the service.
// Call it after a schedule or reconcile pass changed the tree.
func (m *PipelineManager) Save(p *Pipeline) error {
	m.Lock()
	defer m.Unlock()
	return m.save(p)
}

func (m *PipelineManager) save(p *Pipeline) error {
	ord, ok := m.order[p.JobID]
	if !ok {
		return fmt.Errorf("cannot find the pipeline: %v", p.JobID)
	}
	snap, err := json.Marshal(p.Snapshot())
	if err != nil {
		return err
	}
	return m.service.UpdatePipeline(service.PipelineUpdater{
		Order:    ord,
		Snapshot: snap,
	})
}

// Rerun replaces the pipeline's definition with its rerun form, built
// from the recorded per-job outcomes, and stores it. The pipeline
// keeps its job id, so artifacts keep accumulating in place.
func (m *PipelineManager) Rerun(jobID string) (*Pipeline, error) {
	m.Lock()
	defer m.Unlock()
	p, ok := m.pipeline[jobID]
	if !ok {
		return nil, fmt.Errorf("cannot find the pipeline: %v", jobID)
	}
	np := Rerun(p)
	err := m.save(np)
	if err != nil {
		return nil, err
	}
	m.pipeline[jobID] = np
	return np, nil
}
