package services

import (
	"context"
	"fmt"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/pool"
	"github.com/alimgiray/repolens/internal/repositories"
	"github.com/alimgiray/repolens/pkg/logger"
)

// IssueAnalysisService upserts issues and scores their descriptions
type IssueAnalysisService struct {
	contributorRepo *repositories.ContributorRepository
	issueRepo       *repositories.IssueRepository
	metricRepo      *repositories.MetricRepository
	scorer          TextScorer
}

func NewIssueAnalysisService(
	contributorRepo *repositories.ContributorRepository,
	issueRepo *repositories.IssueRepository,
	metricRepo *repositories.MetricRepository,
	scorer TextScorer,
) *IssueAnalysisService {
	return &IssueAnalysisService{
		contributorRepo: contributorRepo,
		issueRepo:       issueRepo,
		metricRepo:      metricRepo,
		scorer:          scorer,
	}
}

// AnalyzeIssues saves and scores every issue under repoID
func (s *IssueAnalysisService) AnalyzeIssues(ctx context.Context, repoID int64, issues []models.IssueRecord, opts AnalysisOptions) (pool.Summary, error) {
	summary, err := pool.Run(ctx, issues, issueLabel, opts.poolOptions("issues"), func(ctx context.Context, record models.IssueRecord) error {
		return s.analyzeIssue(ctx, repoID, record)
	})
	if err != nil {
		return summary, err
	}

	logger.WithField("repo_id", repoID).Infof("Analyzed issues: %d succeeded, %d failed", summary.Succeeded, summary.Failed)
	return summary, nil
}

func issueLabel(issue models.IssueRecord) string {
	return fmt.Sprintf("#%d", issue.Number)
}

func (s *IssueAnalysisService) analyzeIssue(ctx context.Context, repoID int64, record models.IssueRecord) error {
	author, err := s.contributorRepo.GetOrCreate(ctx, record.Author)
	if err != nil {
		return fmt.Errorf("failed to resolve author: %w", err)
	}

	issueID, err := s.issueRepo.Upsert(ctx, &models.Issue{
		RepoID:        repoID,
		ContributorID: &author.ID,
		Number:        record.Number,
		Title:         record.Title,
		Body:          record.Body,
		State:         record.State,
		Assignees:     record.Assignees,
		Labels:        record.Labels,
		CommentsCount: record.CommentsCount,
		CreatedAt:     record.CreatedAt,
		ClosedAt:      record.ClosedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to save issue: %w", err)
	}

	result := s.scorer.Score(ctx, models.QualityKindIssueDescription, record.Title, record.Body)
	if err := s.metricRepo.SaveIssueMetric(ctx, &models.IssueMetric{
		IssueID:      issueID,
		QualityScore: result.Score,
		Feedback:     result.Feedback,
	}); err != nil {
		return fmt.Errorf("failed to save issue metric: %w", err)
	}
	return nil
}
