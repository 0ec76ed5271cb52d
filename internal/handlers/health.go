package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RateLimitChecker reports the remaining GitHub API quota
type RateLimitChecker interface {
	CheckRateLimit(ctx context.Context) (*models.RateLimitStatus, error)
}

// WorkerStatusReporter reports which analysis workers are running, by worker id
type WorkerStatusReporter interface {
	GetWorkerStatus() map[string]bool
}

type HealthHandler struct {
	startedAt time.Time
	github    RateLimitChecker
	workers   WorkerStatusReporter
}

// NewHealthHandler accepts nil for either collaborator
func NewHealthHandler(github RateLimitChecker, workers WorkerStatusReporter) *HealthHandler {
	return &HealthHandler{
		startedAt: time.Now(),
		github:    github,
		workers:   workers,
	}
}

// HealthCheck returns a simple health status plus the worker states in serve mode
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := gin.H{
		"status": "healthy",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	}
	if h.workers != nil {
		resp["workers"] = h.workers.GetWorkerStatus()
	}
	c.JSON(http.StatusOK, resp)
}

// RateLimit proxies the GitHub rate limit endpoint
func (h *HealthHandler) RateLimit(c *gin.Context) {
	if h.github == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "GitHub client is not configured"})
		return
	}
	status, err := h.github.CheckRateLimit(c.Request.Context())
	if err != nil {
		logger.WithError(err).Warn("Failed to read GitHub rate limit")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// NotFound answers unknown routes with a JSON 404
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error": "Not found",
		"path":  c.Request.URL.Path,
	})
}
