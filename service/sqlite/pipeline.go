package sqlite

import (
	"database/sql"

	"github.com/benchfarm/jobrunner/service"
)

// PipelineService interacts with the pipelines table.
type PipelineService struct {
	db *sql.DB
}

// NewPipelineService creates a new PipelineService.
func NewPipelineService(db *sql.DB) *PipelineService {
	return &PipelineService{db: db}
}

// AddPipeline adds a pipeline row and returns its order number.
func (s *PipelineService) AddPipeline(p *service.Pipeline) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return -1, err
	}
	defer tx.Rollback()
	ord, err := addPipeline(tx, p)
	if err != nil {
		return -1, err
	}
	err = tx.Commit()
	if err != nil {
		return -1, err
	}
	return ord, nil
}

func addPipeline(tx *sql.Tx, p *service.Pipeline) (int, error) {
	result, err := tx.Exec(`
		INSERT INTO pipelines
			(name, job_id, snapshot)
		VALUES
			(?, ?, ?)
	`,
		p.Name,
		p.JobID,
		string(p.Snapshot),
	)
	if err != nil {
		return -1, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return -1, err
	}
	return int(id), nil
}

// UpdatePipeline replaces a pipeline's snapshot.
func (s *PipelineService) UpdatePipeline(u service.PipelineUpdater) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	err = updatePipeline(tx, u)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func updatePipeline(tx *sql.Tx, u service.PipelineUpdater) error {
	_, err := tx.Exec(`
		UPDATE pipelines
		SET snapshot = ?
		WHERE ord = ?
	`,
		string(u.Snapshot),
		u.Order,
	)
	return err
}

// FindPipelines finds pipelines matching the filter.
func (s *PipelineService) FindPipelines(f service.PipelineFilter) ([]*service.Pipeline, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	pipes, err := findPipelines(tx, f)
	if err != nil {
		return nil, err
	}
	return pipes, tx.Commit()
}

func findPipelines(tx *sql.Tx, f service.PipelineFilter) ([]*service.Pipeline, error) {
	keys := []string{}
	vals := []interface{}{}
	if f.Name != "" {
		keys = append(keys, "name = ?")
		vals = append(vals, f.Name)
	}
	if f.JobID != "" {
		keys = append(keys, "job_id = ?")
		vals = append(vals, f.JobID)
	}
	where := ""
	for i, k := range keys {
		if i == 0 {
			where = "WHERE " + k
		} else {
			where += " AND " + k
		}
	}
	rows, err := tx.Query(`
		SELECT ord, name, job_id, snapshot
		FROM pipelines `+where+`
		ORDER BY ord ASC
	`,
		vals...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	pipes := []*service.Pipeline{}
	for rows.Next() {
		p := &service.Pipeline{}
		var snap string
		err := rows.Scan(&p.Order, &p.Name, &p.JobID, &snap)
		if err != nil {
			return nil, err
		}
		p.Snapshot = []byte(snap)
		pipes = append(pipes, p)
	}
	return pipes, rows.Err()
}
