package workers

import (
	"context"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/repositories"
	"github.com/alimgiray/repolens/internal/services"
	"github.com/alimgiray/repolens/pkg/logger"
	"github.com/sirupsen/logrus"
)

// PipelineRunner runs one repository analysis
type PipelineRunner interface {
	Run(ctx context.Context, rawURL string, opts services.PipelineOptions) (*services.PipelineResult, error)
}

// AnalysisWorker claims queued analysis jobs and runs the pipeline for each
type AnalysisWorker struct {
	*BaseWorker
	jobRepo      *repositories.JobRepository
	runner       PipelineRunner
	options      services.PipelineOptions
	pollInterval time.Duration
	log          *logrus.Entry
}

// NewAnalysisWorker creates a new analysis worker. options is the template
// for every run; RunID and SkipContent are taken from the job.
func NewAnalysisWorker(
	workerID string,
	jobRepo *repositories.JobRepository,
	runner PipelineRunner,
	options services.PipelineOptions,
	pollInterval time.Duration,
) *AnalysisWorker {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &AnalysisWorker{
		BaseWorker:   NewBaseWorker(workerID),
		jobRepo:      jobRepo,
		runner:       runner,
		options:      options,
		pollInterval: pollInterval,
		log:          logger.WithField("worker", workerID),
	}
}

// Start begins the analysis worker process
func (w *AnalysisWorker) Start(ctx context.Context) error {
	w.setRunning(true)
	defer w.setRunning(false)
	w.log.Info("Analysis worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Analysis worker stopping due to context cancellation")
			return ctx.Err()
		case <-w.StopChan:
			w.log.Info("Analysis worker stopping")
			return nil
		default:
		}

		processed, err := w.ProcessNext(ctx)
		if err != nil {
			w.log.WithError(err).Error("Error getting job")
		}
		if processed && err == nil {
			continue
		}

		// No jobs available, sleep and try again
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.StopChan:
			return nil
		case <-time.After(w.pollInterval):
		}
	}
}

// ProcessNext claims and runs the oldest pending job. It reports whether a
// job was claimed; the job outcome is recorded on the job itself.
func (w *AnalysisWorker) ProcessNext(ctx context.Context) (bool, error) {
	job, err := w.jobRepo.ClaimNext(ctx, w.WorkerID)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	w.processJob(ctx, job)
	return true, nil
}

func (w *AnalysisWorker) processJob(ctx context.Context, job *models.Job) {
	log := w.log.WithFields(logrus.Fields{"job_id": job.ID, "url": job.RepositoryURL})
	log.Info("Processing analysis job")

	opts := w.options
	opts.RunID = job.ID
	opts.SkipContent = opts.SkipContent || job.SkipContent

	result, err := w.runner.Run(ctx, job.RepositoryURL, opts)
	if err != nil {
		log.WithError(err).Warn("Analysis job failed")
		job.MarkFailed(err.Error())
	} else {
		job.MarkCompleted(result.Repository.ID)
	}

	// The run may have been cut short by shutdown, the final status is still written
	if err := w.jobRepo.Update(context.WithoutCancel(ctx), job); err != nil {
		log.WithError(err).Error("Error updating job")
		return
	}
	log.WithField("status", job.Status).Info("Analysis job finished")
}
