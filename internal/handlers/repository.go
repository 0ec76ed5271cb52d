package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/repositories"
	"github.com/alimgiray/repolens/pkg/logger"
	"github.com/gin-gonic/gin"
)

type RepositoryHandler struct {
	repoRepo    *repositories.GitHubRepositoryRepository
	statsRepo   *repositories.StatisticsRepository
	commitRepo  *repositories.CommitRepository
	prRepo      *repositories.PullRequestRepository
	issueRepo   *repositories.IssueRepository
	contentRepo *repositories.RepositoryContentRepository
	qualityRepo *repositories.CodeQualityRepository
}

func NewRepositoryHandler(
	repoRepo *repositories.GitHubRepositoryRepository,
	statsRepo *repositories.StatisticsRepository,
	commitRepo *repositories.CommitRepository,
	prRepo *repositories.PullRequestRepository,
	issueRepo *repositories.IssueRepository,
	contentRepo *repositories.RepositoryContentRepository,
	qualityRepo *repositories.CodeQualityRepository,
) *RepositoryHandler {
	return &RepositoryHandler{
		repoRepo:    repoRepo,
		statsRepo:   statsRepo,
		commitRepo:  commitRepo,
		prRepo:      prRepo,
		issueRepo:   issueRepo,
		contentRepo: contentRepo,
		qualityRepo: qualityRepo,
	}
}

// ListRepositories returns every analyzed repository
func (h *RepositoryHandler) ListRepositories(c *gin.Context) {
	repos, err := h.repoRepo.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list repositories")
		return
	}
	c.JSON(http.StatusOK, repos)
}

// repository resolves the :id parameter, writing the error response on failure
func (h *RepositoryHandler) repository(c *gin.Context) (*models.GitHubRepository, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid repository ID"})
		return nil, false
	}
	repo, err := h.repoRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Repository not found")
		return nil, false
	}
	return repo, true
}

func (h *RepositoryHandler) GetOverview(c *gin.Context) {
	repo, ok := h.repository(c)
	if !ok {
		return
	}
	overview, err := h.statsRepo.RepositoryOverview(c.Request.Context(), repo.ID)
	if err != nil {
		respondError(c, err, "Failed to load overview")
		return
	}
	c.JSON(http.StatusOK, overview)
}

// GetCommits returns commit statistics and the newest commits
func (h *RepositoryHandler) GetCommits(c *gin.Context) {
	repo, ok := h.repository(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	stats, err := h.statsRepo.CommitStatistics(ctx, repo.ID)
	if err != nil {
		respondError(c, err, "Failed to load commit statistics")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	commits, err := h.commitRepo.ListByRepository(ctx, repo.ID, limit)
	if err != nil {
		respondError(c, err, "Failed to load commits")
		return
	}
	c.JSON(http.StatusOK, gin.H{"statistics": stats, "commits": commits})
}

func (h *RepositoryHandler) GetPullRequests(c *gin.Context) {
	repo, ok := h.repository(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	stats, err := h.statsRepo.PRStatistics(ctx, repo.ID)
	if err != nil {
		respondError(c, err, "Failed to load pull request statistics")
		return
	}
	prs, err := h.prRepo.ListByRepository(ctx, repo.ID)
	if err != nil {
		respondError(c, err, "Failed to load pull requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"statistics": stats, "pull_requests": prs})
}

func (h *RepositoryHandler) GetIssues(c *gin.Context) {
	repo, ok := h.repository(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	stats, err := h.statsRepo.IssueStatistics(ctx, repo.ID)
	if err != nil {
		respondError(c, err, "Failed to load issue statistics")
		return
	}
	issues, err := h.issueRepo.ListByRepository(ctx, repo.ID)
	if err != nil {
		respondError(c, err, "Failed to load issues")
		return
	}
	c.JSON(http.StatusOK, gin.H{"statistics": stats, "issues": issues})
}

func (h *RepositoryHandler) GetContributors(c *gin.Context) {
	repo, ok := h.repository(c)
	if !ok {
		return
	}
	contributors, err := h.statsRepo.ContributorStats(c.Request.Context(), repo.ID)
	if err != nil {
		respondError(c, err, "Failed to load contributors")
		return
	}
	c.JSON(http.StatusOK, contributors)
}

func (h *RepositoryHandler) GetContent(c *gin.Context) {
	repo, ok := h.repository(c)
	if !ok {
		return
	}
	content, err := h.contentRepo.GetByRepositoryID(c.Request.Context(), repo.ID)
	if err != nil {
		respondError(c, err, "Content has not been analyzed")
		return
	}
	c.JSON(http.StatusOK, content)
}

func (h *RepositoryHandler) GetQuality(c *gin.Context) {
	repo, ok := h.repository(c)
	if !ok {
		return
	}
	quality, err := h.qualityRepo.GetByRepositoryID(c.Request.Context(), repo.ID)
	if err != nil {
		respondError(c, err, "Code quality has not been analyzed")
		return
	}
	c.JSON(http.StatusOK, quality)
}

// GetLanguages returns the language share of the stored content snapshot
func (h *RepositoryHandler) GetLanguages(c *gin.Context) {
	repo, ok := h.repository(c)
	if !ok {
		return
	}
	content, err := h.contentRepo.GetByRepositoryID(c.Request.Context(), repo.ID)
	if err != nil {
		respondError(c, err, "Content has not been analyzed")
		return
	}
	c.JSON(http.StatusOK, content.LanguagePercentages())
}

// respondError maps sql.ErrNoRows to 404 and everything else to 500
func respondError(c *gin.Context, err error, message string) {
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": message})
		return
	}
	logger.WithError(err).WithField("path", c.FullPath()).Error(message)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
