package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alimgiray/repolens/internal/repositories"
	"github.com/alimgiray/repolens/internal/services"
	"github.com/alimgiray/repolens/pkg/logger"
)

// WorkerManager manages the analysis workers of serve mode
type WorkerManager struct {
	mu           sync.RWMutex
	workers      []Worker
	jobRepo      *repositories.JobRepository
	runner       PipelineRunner
	options      services.PipelineOptions
	pollInterval time.Duration
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewWorkerManager creates a new worker manager
func NewWorkerManager(
	jobRepo *repositories.JobRepository,
	runner PipelineRunner,
	options services.PipelineOptions,
	pollInterval time.Duration,
) *WorkerManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerManager{
		workers:      make([]Worker, 0),
		jobRepo:      jobRepo,
		runner:       runner,
		options:      options,
		pollInterval: pollInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// StartAll requeues jobs left in progress by a previous process and starts count workers
func (wm *WorkerManager) StartAll(count int) error {
	if count <= 0 {
		count = 1
	}

	requeued, err := wm.jobRepo.ResetInProgress(wm.ctx)
	if err != nil {
		return fmt.Errorf("failed to requeue interrupted jobs: %w", err)
	}
	if requeued > 0 {
		logger.Infof("Requeued %d interrupted analysis jobs", requeued)
	}

	for i := 0; i < count; i++ {
		worker := NewAnalysisWorker(fmt.Sprintf("analysis-%d", i+1), wm.jobRepo, wm.runner, wm.options, wm.pollInterval)
		wm.mu.Lock()
		wm.workers = append(wm.workers, worker)
		wm.mu.Unlock()
		wm.startWorker(worker)
	}

	logger.Infof("Started %d analysis workers", count)
	return nil
}

// StopAll gracefully stops all workers
func (wm *WorkerManager) StopAll() error {
	logger.Info("Stopping all workers...")

	// Cancel the context to signal all workers to stop
	wm.cancel()

	wm.mu.RLock()
	workers := wm.workers
	wm.mu.RUnlock()
	for _, worker := range workers {
		if err := worker.Stop(); err != nil {
			logger.WithError(err).WithField("worker", worker.GetWorkerID()).Warn("Error stopping worker")
		}
	}

	// Wait for all workers to finish
	wm.wg.Wait()

	logger.Info("All workers stopped")
	return nil
}

// startWorker starts a single worker in a goroutine
func (wm *WorkerManager) startWorker(worker Worker) {
	wm.wg.Add(1)
	go func() {
		defer wm.wg.Done()
		if err := worker.Start(wm.ctx); err != nil && err != context.Canceled {
			logger.WithError(err).WithField("worker", worker.GetWorkerID()).Warn("Worker stopped with error")
		}
	}()
}

// GetWorkerStatus returns the status of all workers
func (wm *WorkerManager) GetWorkerStatus() map[string]bool {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	status := make(map[string]bool)
	for _, worker := range wm.workers {
		status[worker.GetWorkerID()] = worker.IsRunning()
	}
	return status
}
