package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/repositories"
)

// ErrAnalysisActive is returned when the repository already has a queued or running analysis
var ErrAnalysisActive = errors.New("an analysis is already in progress or pending for this repository")

// JobService handles job creation and management
type JobService struct {
	jobRepo *repositories.JobRepository
}

func NewJobService(jobRepo *repositories.JobRepository) *JobService {
	return &JobService{jobRepo: jobRepo}
}

// QueueAnalysis validates rawURL and queues a pipeline run for it. The stored
// URL is canonical so the same repository cannot be queued twice.
func (s *JobService) QueueAnalysis(ctx context.Context, rawURL string, skipContent bool) (*models.Job, error) {
	owner, name, err := ParseRepositoryURL(rawURL)
	if err != nil {
		return nil, err
	}
	canonical := fmt.Sprintf("https://github.com/%s/%s", owner, name)

	hasActive, err := s.jobRepo.HasActive(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing jobs: %w", err)
	}
	if hasActive {
		return nil, ErrAnalysisActive
	}

	job := models.NewJob(canonical, skipContent)
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// GetJobByID retrieves a job by ID
func (s *JobService) GetJobByID(ctx context.Context, jobID string) (*models.Job, error) {
	return s.jobRepo.GetByID(ctx, jobID)
}

// ListJobs returns the most recent jobs first
func (s *JobService) ListJobs(ctx context.Context, limit int) ([]*models.Job, error) {
	return s.jobRepo.List(ctx, limit)
}
