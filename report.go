package jobrunner

import "context"

// Metric is one benchmark measurement extracted from a job's output.
type Metric struct {
	Name  string  `json:"name"`
	Unit  string  `json:"unit,omitempty"`
	Value float64 `json:"value"`
}

// MetricsReader reads benchmark metrics out of a job's output folder.
// The implementation belongs to the report collaborator; the runner
// only points it at directories the output layout makes predictable.
type MetricsReader interface {
	ReadMetrics(ctx context.Context, dir string) ([]Metric, error)
}
