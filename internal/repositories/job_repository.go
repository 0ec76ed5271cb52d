package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/database"
)

const jobColumns = `id, repository_url, skip_content, status, error_message, worker_id, repo_id, started_at, completed_at, created_at, updated_at`

// JobRepository handles database operations for queued analyses
type JobRepository struct {
	db *database.DB
	// serializes claims within one process; the status guard in the UPDATE covers multiple processes
	mu sync.Mutex
}

func NewJobRepository(db *database.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	query := `INSERT INTO jobs (` + jobColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.RepositoryURL,
		job.SkipContent,
		job.Status,
		job.ErrorMessage,
		job.WorkerID,
		job.RepoID,
		utcPtr(job.StartedAt),
		utcPtr(job.CompletedAt),
		job.CreatedAt.UTC(),
		job.UpdatedAt.UTC(),
	)
	return err
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

// List returns the most recent jobs first
func (r *JobRepository) List(ctx context.Context, limit int) ([]*models.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []*models.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// HasActive reports whether a pending or in-progress job exists for repositoryURL.
// GitHub owner and repository names are case-insensitive, so is the match.
func (r *JobRepository) HasActive(ctx context.Context, repositoryURL string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jobs WHERE LOWER(repository_url) = LOWER(?) AND status IN (?, ?)`,
		repositoryURL, models.JobStatusPending, models.JobStatusInProgress,
	).Scan(&count)
	return count > 0, err
}

// ClaimNext marks the oldest pending job as in-progress for workerID and returns it.
// Returns nil, nil when the queue is empty or another worker won the claim.
func (r *JobRepository) ClaimNext(ctx context.Context, workerID string) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := r.db.Rebind(`SELECT ` + jobColumns + ` FROM jobs WHERE status = ? ORDER BY created_at ASC LIMIT 1`)
	job, err := scanJob(tx.QueryRowContext(ctx, query, models.JobStatusPending))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	job.MarkStarted(workerID)
	update := r.db.Rebind(`
		UPDATE jobs
		SET status = ?, worker_id = ?, started_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`)
	claimed, err := inserted(tx.ExecContext(ctx, update,
		job.Status, job.WorkerID, job.StartedAt.UTC(), job.UpdatedAt.UTC(), job.ID, models.JobStatusPending))
	if err != nil || !claimed {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return job, nil
}

// Update persists the mutable fields of job
func (r *JobRepository) Update(ctx context.Context, job *models.Job) error {
	query := `
		UPDATE jobs
		SET status = ?, error_message = ?, worker_id = ?, repo_id = ?,
		    started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`
	job.UpdatedAt = time.Now().UTC()
	updated, err := inserted(r.db.ExecContext(ctx, query,
		job.Status,
		job.ErrorMessage,
		job.WorkerID,
		job.RepoID,
		utcPtr(job.StartedAt),
		utcPtr(job.CompletedAt),
		job.UpdatedAt,
		job.ID,
	))
	if err != nil {
		return err
	}
	if !updated {
		return sql.ErrNoRows
	}
	return nil
}

// ResetInProgress returns jobs left in-progress by a previous process to the queue
func (r *JobRepository) ResetInProgress(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, worker_id = NULL, started_at = NULL, updated_at = ? WHERE status = ?`,
		models.JobStatusPending, time.Now().UTC(), models.JobStatusInProgress)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanJob(row interface{ Scan(...any) error }) (*models.Job, error) {
	job := &models.Job{}
	err := row.Scan(
		&job.ID,
		&job.RepositoryURL,
		&job.SkipContent,
		&job.Status,
		&job.ErrorMessage,
		&job.WorkerID,
		&job.RepoID,
		&job.StartedAt,
		&job.CompletedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}
