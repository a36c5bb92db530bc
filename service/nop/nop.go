// Package nop provides a PipelineService which does nothing.
// We need this for testing.
package nop

import "github.com/benchfarm/jobrunner/service"

// PipelineService is a no-op service.PipelineService.
type PipelineService struct{}

// AddPipeline returns (0, nil) always.
func (s *PipelineService) AddPipeline(p *service.Pipeline) (int, error) {
	return 0, nil
}

// UpdatePipeline returns nil.
func (s *PipelineService) UpdatePipeline(u service.PipelineUpdater) error {
	return nil
}

// FindPipelines returns (nil, nil).
func (s *PipelineService) FindPipelines(f service.PipelineFilter) ([]*service.Pipeline, error) {
	return nil, nil
}
