package workers

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/repositories"
	"github.com/alimgiray/repolens/internal/services"
	"github.com/alimgiray/repolens/pkg/config"
	"github.com/alimgiray/repolens/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []services.PipelineOptions
	err   error
}

func (f *fakeRunner) Run(_ context.Context, rawURL string, opts services.PipelineOptions) (*services.PipelineResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &services.PipelineResult{
		RunID:      opts.RunID,
		Repository: &models.GitHubRepository{ID: 7, Owner: "octo", Name: "lens", URL: rawURL},
	}, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func setupJobRepository(t *testing.T) *repositories.JobRepository {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "workers_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repositories.NewJobRepository(db)
}

func TestAnalysisWorkerProcessNext(t *testing.T) {
	testCases := []struct {
		name        string
		runErr      error
		skipContent bool
		status      models.JobStatus
	}{
		{name: "completed", status: models.JobStatusCompleted},
		{name: "skip content forwarded", skipContent: true, status: models.JobStatusCompleted},
		{name: "failed", runErr: errors.New("repository not found"), status: models.JobStatusFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			jobRepo := setupJobRepository(t)
			runner := &fakeRunner{err: tc.runErr}
			worker := NewAnalysisWorker("analysis-1", jobRepo, runner, services.PipelineOptions{MaxWorkers: 3}, time.Millisecond)
			ctx := context.Background()

			job := models.NewJob("https://github.com/octo/lens", tc.skipContent)
			require.NoError(t, jobRepo.Create(ctx, job))

			processed, err := worker.ProcessNext(ctx)
			require.NoError(t, err)
			assert.True(t, processed)

			stored, err := jobRepo.GetByID(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.status, stored.Status)
			require.NotNil(t, stored.WorkerID)
			assert.Equal(t, "analysis-1", *stored.WorkerID)
			assert.NotNil(t, stored.CompletedAt)

			require.Len(t, runner.calls, 1)
			assert.Equal(t, job.ID, runner.calls[0].RunID)
			assert.Equal(t, 3, runner.calls[0].MaxWorkers)
			assert.Equal(t, tc.skipContent, runner.calls[0].SkipContent)

			if tc.runErr != nil {
				require.NotNil(t, stored.ErrorMessage)
				assert.Equal(t, tc.runErr.Error(), *stored.ErrorMessage)
			} else {
				require.NotNil(t, stored.RepoID)
				assert.Equal(t, int64(7), *stored.RepoID)
			}
		})
	}
}

func TestAnalysisWorkerEmptyQueue(t *testing.T) {
	jobRepo := setupJobRepository(t)
	runner := &fakeRunner{}
	worker := NewAnalysisWorker("analysis-1", jobRepo, runner, services.PipelineOptions{}, time.Millisecond)

	processed, err := worker.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Equal(t, 0, runner.callCount())
}

func TestWorkerManagerRunsQueuedJobs(t *testing.T) {
	jobRepo := setupJobRepository(t)
	runner := &fakeRunner{}
	ctx := context.Background()

	jobs := make([]*models.Job, 0, 4)
	for i := 0; i < 4; i++ {
		job := models.NewJob("https://github.com/octo/lens", false)
		require.NoError(t, jobRepo.Create(ctx, job))
		jobs = append(jobs, job)
	}

	manager := NewWorkerManager(jobRepo, runner, services.PipelineOptions{}, 5*time.Millisecond)
	require.NoError(t, manager.StartAll(2))
	assert.Len(t, manager.GetWorkerStatus(), 2)

	require.Eventually(t, func() bool {
		return runner.callCount() == 4
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, manager.StopAll())

	for _, job := range jobs {
		stored, err := jobRepo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusCompleted, stored.Status)
	}
	for id, running := range manager.GetWorkerStatus() {
		assert.False(t, running, id)
	}
}

func TestWorkerManagerRequeuesInterruptedJobs(t *testing.T) {
	jobRepo := setupJobRepository(t)
	ctx := context.Background()

	job := models.NewJob("https://github.com/octo/lens", false)
	require.NoError(t, jobRepo.Create(ctx, job))
	claimed, err := jobRepo.ClaimNext(ctx, "crashed-worker")
	require.NoError(t, err)
	require.NotNil(t, claimed)

	runner := &fakeRunner{}
	manager := NewWorkerManager(jobRepo, runner, services.PipelineOptions{}, 5*time.Millisecond)
	require.NoError(t, manager.StartAll(1))
	defer manager.StopAll()

	require.Eventually(t, func() bool {
		stored, err := jobRepo.GetByID(ctx, job.ID)
		return err == nil && stored.Status == models.JobStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)
}
