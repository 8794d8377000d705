package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle of one analysis invocation (§3 job record).
type JobStatus string

const (
	JobStatusQueued   JobStatus = "queued"
	JobStatusRunning  JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusFailed   JobStatus = "failed"
)

// Job is a durable row describing one analysis invocation against a named
// input, recoverable without re-running the pipeline (§3, added).
type Job struct {
	ID         int64
	JobUUID    string // external correlation ID, stable across retries and log lines
	TrackPath  string
	Pass       string // "standard", "step", or "adaptive"
	Status     JobStatus
	Options    map[string]any
	Error      string
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// CreateJob inserts a new queued job for trackPath and returns its row ID.
// Each job also gets a UUID stored in job_uuid, a correlation ID separate
// from the row ID; CreateJob does not return it.
func (d *DB) CreateJob(trackPath, pass string, options map[string]any) (int64, error) {
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return 0, fmt.Errorf("storage: marshal job options: %w", err)
	}

	result, err := d.db.Exec(`
		INSERT INTO jobs (job_uuid, track_path, pass, status, options_json)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), trackPath, pass, string(JobStatusQueued), string(optionsJSON))
	if err != nil {
		return 0, fmt.Errorf("storage: create job: %w", err)
	}
	return result.LastInsertId()
}

// StartJob marks a queued job as running.
func (d *DB) StartJob(jobID int64) error {
	now := time.Now()
	_, err := d.db.Exec(`
		UPDATE jobs SET status = ?, started_at = ? WHERE id = ?
	`, string(JobStatusRunning), now, jobID)
	if err != nil {
		return fmt.Errorf("storage: start job %d: %w", jobID, err)
	}
	return nil
}

// CompleteJob marks a job complete. The caller persists the analysis
// result separately via SaveAnalysisRecord.
func (d *DB) CompleteJob(jobID int64) error {
	now := time.Now()
	_, err := d.db.Exec(`
		UPDATE jobs SET status = ?, finished_at = ? WHERE id = ?
	`, string(JobStatusComplete), now, jobID)
	if err != nil {
		return fmt.Errorf("storage: complete job %d: %w", jobID, err)
	}
	return nil
}

// FailJob marks a job failed with the given error message.
func (d *DB) FailJob(jobID int64, errMsg string) error {
	now := time.Now()
	_, err := d.db.Exec(`
		UPDATE jobs SET status = ?, error = ?, finished_at = ? WHERE id = ?
	`, string(JobStatusFailed), errMsg, now, jobID)
	if err != nil {
		return fmt.Errorf("storage: fail job %d: %w", jobID, err)
	}
	return nil
}

// GetJob fetches a single job by ID.
func (d *DB) GetJob(jobID int64) (*Job, error) {
	row := d.db.QueryRow(`
		SELECT id, job_uuid, track_path, pass, status, options_json, error, created_at, started_at, finished_at
		FROM jobs WHERE id = ?
	`, jobID)
	return scanJob(row)
}

func scanJob(row *sql.Row) (*Job, error) {
	job := &Job{}
	var optionsJSON, errMsg sql.NullString
	var startedAt, finishedAt sql.NullTime

	if err := row.Scan(&job.ID, &job.JobUUID, &job.TrackPath, &job.Pass, &job.Status, &optionsJSON, &errMsg, &job.CreatedAt, &startedAt, &finishedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: scan job: %w", err)
	}

	if optionsJSON.Valid {
		json.Unmarshal([]byte(optionsJSON.String), &job.Options)
	}
	job.Error = errMsg.String
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		job.FinishedAt = &finishedAt.Time
	}
	return job, nil
}
