package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is a single translate-file-to-ass job record (spec §4.9's JobQueue
// persistence, spec §4.6's stats/config_hash fields).
type Job struct {
	ID          string
	FilePath    string
	Status      JobStatus
	Stats       string // JSON blob: char counts, model, elapsed, cache hits
	OutputPath  string
	Error       string
	ConfigHash  string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

type JobRepo struct {
	db  *sql.DB
	log zerolog.Logger
}

func (r *JobRepo) Create(id, filePath, configHash string) error {
	_, err := r.db.Exec(`INSERT INTO jobs (id, file_path, status, config_hash) VALUES (?, ?, 'queued', ?)`,
		id, filePath, configHash)
	if err != nil {
		return fmt.Errorf("creating job: %w", err)
	}
	return nil
}

func (r *JobRepo) Get(id string) (Job, error) {
	row := r.db.QueryRow(jobSelectCols+` FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

func (r *JobRepo) MarkRunning(id string) error {
	_, err := r.db.Exec(`UPDATE jobs SET status = 'running' WHERE id = ?`, id)
	return err
}

func (r *JobRepo) MarkCompleted(id, outputPath, stats string) error {
	_, err := r.db.Exec(`UPDATE jobs SET status = 'completed', output_path = ?, stats = ?, completed_at = CURRENT_TIMESTAMP WHERE id = ?`,
		outputPath, stats, id)
	return err
}

func (r *JobRepo) MarkFailed(id, reason string) error {
	_, err := r.db.Exec(`UPDATE jobs SET status = 'failed', error = ?, completed_at = CURRENT_TIMESTAMP WHERE id = ?`,
		reason, id)
	return err
}

// List returns jobs in reverse-chronological order, optionally filtered by
// status, for GET /jobs.
func (r *JobRepo) List(status JobStatus, limit, offset int) ([]Job, error) {
	q := jobSelectCols + ` FROM jobs WHERE 1=1`
	var args []interface{}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`
	if limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()
	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// IsOutdated reports whether a completed job's config_hash differs from the
// current one, used to decide whether a prior translation should be redone
// after the operator changes backend settings (spec §4.6).
func (r *JobRepo) IsOutdated(id, currentConfigHash string) (bool, error) {
	j, err := r.Get(id)
	if err != nil {
		return false, err
	}
	return j.ConfigHash != currentConfigHash, nil
}

// DeleteOlderThan prunes completed/failed jobs past retention, mirroring
// the Trash repo's age-based purge.
func (r *JobRepo) DeleteOlderThan(age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)
	res, err := r.db.Exec(`DELETE FROM jobs WHERE status IN ('completed','failed') AND created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

const jobSelectCols = `SELECT id, file_path, status, COALESCE(stats, ''), COALESCE(output_path, ''),
	COALESCE(error, ''), COALESCE(config_hash, ''), created_at, completed_at`

func scanJob(row scannable) (Job, error) {
	var j Job
	var completedAt sql.NullTime
	err := row.Scan(&j.ID, &j.FilePath, &j.Status, &j.Stats, &j.OutputPath, &j.Error, &j.ConfigHash,
		&j.CreatedAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, fmt.Errorf("%w: job", ErrNotFound)
		}
		return Job{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if completedAt.Valid {
		j.CompletedAt = &completedAt.Time
	}
	return j, nil
}
