package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/progress"
	"github.com/alimgiray/repolens/internal/services"
	"github.com/alimgiray/repolens/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	jobService *services.JobService
	trackers   *progress.Registry
}

func NewAnalysisHandler(jobService *services.JobService, trackers *progress.Registry) *AnalysisHandler {
	return &AnalysisHandler{
		jobService: jobService,
		trackers:   trackers,
	}
}

type createAnalysisRequest struct {
	URL         string `json:"url" binding:"required"`
	SkipContent bool   `json:"skip_content"`
}

// jobResponse is a job plus the live per-stage progress while it runs
type jobResponse struct {
	*models.Job
	Progress []progress.StageState `json:"progress"`
}

// CreateAnalysis queues a pipeline run for the posted repository URL
func (h *AnalysisHandler) CreateAnalysis(c *gin.Context) {
	var req createAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Repository URL is required"})
		return
	}

	job, err := h.jobService.QueueAnalysis(c.Request.Context(), req.URL, req.SkipContent)
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, services.ErrAnalysisActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		logger.WithError(err).Error("Failed to queue analysis job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue analysis"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": job.Status})
}

// GetAnalysis returns a job and, while it runs, its stage progress
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	job, err := h.jobService.GetJobByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
		return
	}
	if err != nil {
		logger.WithError(err).Error("Failed to load analysis job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analysis"})
		return
	}

	resp := jobResponse{Job: job, Progress: []progress.StageState{}}
	if tracker, ok := h.trackers.Get(job.ID); ok {
		resp.Progress = tracker.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// ListAnalyses returns the most recent jobs
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	jobs, err := h.jobService.ListJobs(c.Request.Context(), limit)
	if err != nil {
		logger.WithError(err).Error("Failed to list analysis jobs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list analyses"})
		return
	}
	c.JSON(http.StatusOK, jobs)
}
