package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alimgiray/repolens/internal/codequality"
	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/progress"
	"github.com/alimgiray/repolens/internal/repositories"
	"github.com/alimgiray/repolens/internal/services"
	"github.com/alimgiray/repolens/pkg/config"
	"github.com/alimgiray/repolens/pkg/database"
)

// app holds the opened store and every repository built on it
type app struct {
	db          *database.DB
	repos       *repositories.GitHubRepositoryRepository
	contributor *repositories.ContributorRepository
	commits     *repositories.CommitRepository
	prs         *repositories.PullRequestRepository
	issues      *repositories.IssueRepository
	metrics     *repositories.MetricRepository
	comments    *repositories.CommentRepository
	content     *repositories.RepositoryContentRepository
	quality     *repositories.CodeQualityRepository
	stats       *repositories.StatisticsRepository
	jobs        *repositories.JobRepository
}

func openApp(cfg *config.Config) (*app, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	return &app{
		db:          db,
		repos:       repositories.NewGitHubRepositoryRepository(db),
		contributor: repositories.NewContributorRepository(db),
		commits:     repositories.NewCommitRepository(db),
		prs:         repositories.NewPullRequestRepository(db),
		issues:      repositories.NewIssueRepository(db),
		metrics:     repositories.NewMetricRepository(db),
		comments:    repositories.NewCommentRepository(db),
		content:     repositories.NewRepositoryContentRepository(db),
		quality:     repositories.NewCodeQualityRepository(db),
		stats:       repositories.NewStatisticsRepository(db),
		jobs:        repositories.NewJobRepository(db),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// pipeline wires the GitHub client, the scorer and every analyzer
func (a *app) pipeline(cfg *config.Config, trackers *progress.Registry) (*services.PipelineService, *services.GitHubClientService, error) {
	client, err := services.NewGitHubClientService(cfg.GitHub.Token, cfg.GitHub.BaseURL)
	if err != nil {
		return nil, nil, err
	}
	scorer := services.NewQualityScorerService(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)

	content := services.NewRepositoryAnalysisService(
		services.NewCloneService(cfg.GitHub.Token, cfg.Analysis.CloneTimeout),
		codequality.NewAnalyzer(),
		scorer,
		a.content,
		a.quality,
	)

	pipeline := services.NewPipelineService(
		client,
		a.repos,
		services.NewCommitAnalysisService(a.contributor, a.commits, a.metrics, scorer),
		services.NewPullRequestAnalysisService(a.contributor, a.prs, a.metrics, scorer),
		services.NewIssueAnalysisService(a.contributor, a.issues, a.metrics, scorer),
		services.NewCommentAnalysisService(a.contributor, a.prs, a.issues, a.comments, a.metrics),
		content,
		trackers,
	)
	return pipeline, client, nil
}

// resolveRepository accepts a stored id, owner/name or a GitHub URL
func (a *app) resolveRepository(ctx context.Context, ref string) (*models.GitHubRepository, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return a.repos.GetByID(ctx, id)
	}

	if !strings.Contains(ref, "github.com") {
		ref = "github.com/" + strings.TrimPrefix(ref, "/")
	}
	owner, name, err := services.ParseRepositoryURL(ref)
	if err != nil {
		return nil, err
	}
	return a.repos.GetByOwnerName(ctx, owner, name)
}

func notAnalyzed(ref string) error {
	return fmt.Errorf("%w: repository %s has not been analyzed", models.ErrInvalidInput, ref)
}
