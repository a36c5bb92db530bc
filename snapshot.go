package jobrunner

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the persisted form of a node, one record per node,
// tagged by Type. Composite records carry their children in order,
// so a tree round-trips losslessly.
type Snapshot struct {
	Type        string      `json:"type"`
	Name        string      `json:"name,omitempty"`
	Script      string      `json:"script,omitempty"`
	Profile     string      `json:"profile,omitempty"`
	JobID       string      `json:"job_id,omitempty"`
	ExternalID  string      `json:"external_id,omitempty"`
	ExternalIDs []string    `json:"external_ids,omitempty"`
	Status      string      `json:"status,omitempty"`
	Jobs        []*Snapshot `json:"jobs,omitempty"`
	Definition  *Snapshot   `json:"definition,omitempty"`
}

// FromSnapshot rebuilds a node from its snapshot record, dispatching
// on the type discriminator. It fails with UnknownVariantError on an
// unrecognized type and with MalformedRecordError when a field the
// named variant requires is absent or invalid. No partial tree is
// ever returned.
func FromSnapshot(s *Snapshot) (JobNode, error) {
	if s == nil {
		return nil, &MalformedRecordError{Variant: "node", Field: "type"}
	}
	switch s.Type {
	case "job":
		if s.Script == "" {
			return nil, &MalformedRecordError{Variant: "job", Field: "script"}
		}
		if s.Profile == "" {
			return nil, &MalformedRecordError{Variant: "job", Field: "profile"}
		}
		// Snapshots written before statuses were recorded have no
		// status field. Those jobs never ran.
		st := StatusPending
		if s.Status != "" {
			var err error
			st, err = statusFromString(s.Status)
			if err != nil {
				return nil, &MalformedRecordError{Variant: "job", Field: "status"}
			}
		}
		return &Job{
			Script:     s.Script,
			Profile:    s.Profile,
			JobID:      s.JobID,
			ExternalID: s.ExternalID,
			Status:     st,
		}, nil
	case "sequential":
		if s.Name == "" {
			return nil, &MalformedRecordError{Variant: "sequential", Field: "name"}
		}
		jobs, err := childrenFromSnapshots(s.Jobs)
		if err != nil {
			return nil, err
		}
		return &Sequential{Name: s.Name, Jobs: jobs}, nil
	case "parallel":
		if s.Name == "" {
			return nil, &MalformedRecordError{Variant: "parallel", Field: "name"}
		}
		jobs, err := childrenFromSnapshots(s.Jobs)
		if err != nil {
			return nil, err
		}
		return &Parallel{Name: s.Name, Jobs: jobs}, nil
	case "skip":
		if s.JobID == "" {
			return nil, &MalformedRecordError{Variant: "skip", Field: "job_id"}
		}
		return &Skip{JobID: s.JobID, ExternalIDs: s.ExternalIDs}, nil
	case "pipeline":
		if s.Name == "" {
			return nil, &MalformedRecordError{Variant: "pipeline", Field: "name"}
		}
		if s.Definition == nil {
			return nil, &MalformedRecordError{Variant: "pipeline", Field: "definition"}
		}
		def, err := FromSnapshot(s.Definition)
		if err != nil {
			return nil, err
		}
		return &Pipeline{Name: s.Name, JobID: s.JobID, Definition: def}, nil
	default:
		return nil, &UnknownVariantError{Variant: s.Type}
	}
}

func childrenFromSnapshots(snaps []*Snapshot) ([]JobNode, error) {
	// A childless composite holds nil, so decoding keeps it
	// round-trip identical.
	if len(snaps) == 0 {
		return nil, nil
	}
	jobs := make([]JobNode, len(snaps))
	for i, s := range snaps {
		j, err := FromSnapshot(s)
		if err != nil {
			return nil, err
		}
		jobs[i] = j
	}
	return jobs, nil
}

// PipelineFromSnapshot rebuilds a pipeline from its snapshot record.
func PipelineFromSnapshot(s *Snapshot) (*Pipeline, error) {
	n, err := FromSnapshot(s)
	if err != nil {
		return nil, err
	}
	p, ok := n.(*Pipeline)
	if !ok {
		return nil, fmt.Errorf("not a pipeline snapshot: %v", s.Type)
	}
	return p, nil
}

// PipelineFromSnapshotJSON rebuilds a pipeline from its persisted
// JSON form.
func PipelineFromSnapshotJSON(data []byte) (*Pipeline, error) {
	s := &Snapshot{}
	err := json.Unmarshal(data, s)
	if err != nil {
		return nil, err
	}
	return PipelineFromSnapshot(s)
}
