package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aliveriver/ConvertAgent/internal/models"
)

// ErrJobNotFound is returned when looking up a job that does not exist.
var ErrJobNotFound = errors.New("job not found")

// CreateJob inserts a new history record for a submitted conversion.
func (s *Store) CreateJob(job *models.JobRecord) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}

	_, err := s.db.Exec(`
		INSERT INTO jobs (id, template_name, content_name, output_format, instruction, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.TemplateName, job.ContentName, job.OutputFormat, job.Instruction, job.Status, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// FinishJob records a job's terminal status, result message and file link.
func (s *Store) FinishJob(id, status, resultMessage, resultFileLink string) error {
	res, err := s.db.Exec(`
		UPDATE jobs SET status = ?, result_message = ?, result_file_link = ?, finished_at = ?
		WHERE id = ?`,
		status, resultMessage, resultFileLink, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// MarkJobRunning flips a queued job to running.
func (s *Store) MarkJobRunning(id string) error {
	_, err := s.db.Exec(`UPDATE jobs SET status = ? WHERE id = ?`, models.JobStatusRunning, id)
	return err
}

// GetJob fetches one job by ID.
func (s *Store) GetJob(id string) (*models.JobRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, template_name, content_name, output_format, instruction,
		       status, result_message, result_file_link, created_at, finished_at
		FROM jobs WHERE id = ?`, id)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	return job, err
}

// ListJobs returns the most recent jobs, newest first.
func (s *Store) ListJobs(limit int) ([]*models.JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, template_name, content_name, output_format, instruction,
		       status, result_message, result_file_link, created_at, finished_at
		FROM jobs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.JobRecord
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// DeleteJob removes one history record.
func (s *Store) DeleteJob(id string) error {
	res, err := s.db.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrJobNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.JobRecord, error) {
	var job models.JobRecord
	var finished sql.NullTime
	err := row.Scan(&job.ID, &job.TemplateName, &job.ContentName, &job.OutputFormat,
		&job.Instruction, &job.Status, &job.ResultMessage, &job.ResultFileLink,
		&job.CreatedAt, &finished)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		job.FinishedAt = &finished.Time
	}
	return &job, nil
}
