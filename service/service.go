package service

// PipelineService is an interface which let us use sqlite.PipelineService.
type PipelineService interface {
	// AddPipeline adds a pipeline row and returns its order number.
	AddPipeline(*Pipeline) (int, error)

	// UpdatePipeline replaces a pipeline's snapshot.
	UpdatePipeline(PipelineUpdater) error

	// FindPipelines finds pipelines matching the filter.
	FindPipelines(PipelineFilter) ([]*Pipeline, error)
}

// Pipeline is a pipeline information for database service.
type Pipeline struct {
	// Order is the order number of the pipeline in the database.
	Order int

	Name  string
	JobID string

	// Snapshot is the JSON snapshot of the whole job tree.
	// It carries every job's status and external id, so a restarted
	// runner resumes from exactly what was recorded.
	Snapshot []byte
}

// PipelineUpdater has information for updating a pipeline.
type PipelineUpdater struct {
	Order    int
	Snapshot []byte
}

// PipelineFilter filters pipelines for FindPipelines.
type PipelineFilter struct {
	Name  string
	JobID string
}
