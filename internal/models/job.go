package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in-progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job is a queued pipeline run requested through the HTTP API
type Job struct {
	ID            string     `json:"id"`
	RepositoryURL string     `json:"repository_url"`
	SkipContent   bool       `json:"skip_content"`
	Status        JobStatus  `json:"status"`
	ErrorMessage  *string    `json:"error_message"`
	WorkerID      *string    `json:"worker_id"`
	RepoID        *int64     `json:"repo_id"`
	StartedAt     *time.Time `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewJob creates a pending Job with a generated UUID
func NewJob(repositoryURL string, skipContent bool) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:            uuid.New().String(),
		RepositoryURL: repositoryURL,
		SkipContent:   skipContent,
		Status:        JobStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsPending checks if the job is pending
func (j *Job) IsPending() bool {
	return j.Status == JobStatusPending
}

// IsFinished reports whether the job reached a terminal status
func (j *Job) IsFinished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// MarkStarted marks the job as started by workerID
func (j *Job) MarkStarted(workerID string) {
	now := time.Now().UTC()
	j.Status = JobStatusInProgress
	j.StartedAt = &now
	j.WorkerID = &workerID
	j.UpdatedAt = now
}

// MarkCompleted marks the job as completed
func (j *Job) MarkCompleted(repoID int64) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.RepoID = &repoID
	j.UpdatedAt = now
}

// MarkFailed marks the job as failed with message
func (j *Job) MarkFailed(message string) {
	now := time.Now().UTC()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.ErrorMessage = &message
	j.UpdatedAt = now
}
