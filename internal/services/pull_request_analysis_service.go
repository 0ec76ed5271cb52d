package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/pool"
	"github.com/alimgiray/repolens/internal/repositories"
	"github.com/alimgiray/repolens/pkg/logger"
)

var (
	closingKeywordPattern = regexp.MustCompile(`(fixes|closes|resolves|fix|close|resolve)\s+#\d+`)
	issueReferencePattern = regexp.MustCompile(`#\d+`)
)

// CheckPRLinksIssue reports whether the title or body references an issue
func CheckPRLinksIssue(body, title string) bool {
	if body == "" && title == "" {
		return false
	}
	text := strings.ToLower(title + " " + body)
	return closingKeywordPattern.MatchString(text) || issueReferencePattern.MatchString(text)
}

// PullRequestAnalysisService upserts pull requests and scores their descriptions
type PullRequestAnalysisService struct {
	contributorRepo *repositories.ContributorRepository
	prRepo          *repositories.PullRequestRepository
	metricRepo      *repositories.MetricRepository
	scorer          TextScorer
}

func NewPullRequestAnalysisService(
	contributorRepo *repositories.ContributorRepository,
	prRepo *repositories.PullRequestRepository,
	metricRepo *repositories.MetricRepository,
	scorer TextScorer,
) *PullRequestAnalysisService {
	return &PullRequestAnalysisService{
		contributorRepo: contributorRepo,
		prRepo:          prRepo,
		metricRepo:      metricRepo,
		scorer:          scorer,
	}
}

// AnalyzePullRequests saves and scores every pull request under repoID
func (s *PullRequestAnalysisService) AnalyzePullRequests(ctx context.Context, repoID int64, prs []models.PullRequestRecord, opts AnalysisOptions) (pool.Summary, error) {
	summary, err := pool.Run(ctx, prs, pullRequestLabel, opts.poolOptions("pull_requests"), func(ctx context.Context, record models.PullRequestRecord) error {
		return s.analyzePullRequest(ctx, repoID, record)
	})
	if err != nil {
		return summary, err
	}

	logger.WithField("repo_id", repoID).Infof("Analyzed pull requests: %d succeeded, %d failed", summary.Succeeded, summary.Failed)
	return summary, nil
}

func pullRequestLabel(pr models.PullRequestRecord) string {
	return fmt.Sprintf("#%d", pr.Number)
}

func (s *PullRequestAnalysisService) analyzePullRequest(ctx context.Context, repoID int64, record models.PullRequestRecord) error {
	author, err := s.contributorRepo.GetOrCreate(ctx, record.Author)
	if err != nil {
		return fmt.Errorf("failed to resolve author: %w", err)
	}

	var mergedByID *int64
	if record.MergedBy != nil {
		mergedBy, err := s.contributorRepo.GetOrCreate(ctx, *record.MergedBy)
		if err != nil {
			return fmt.Errorf("failed to resolve merger: %w", err)
		}
		mergedByID = &mergedBy.ID
	}

	prID, err := s.prRepo.Upsert(ctx, &models.PullRequest{
		RepoID:        repoID,
		ContributorID: &author.ID,
		MergedByID:    mergedByID,
		Number:        record.Number,
		Title:         record.Title,
		Body:          record.Body,
		State:         record.State,
		CommentsCount: record.CommentsCount,
		Additions:     record.Additions,
		Deletions:     record.Deletions,
		CreatedAt:     record.CreatedAt,
		MergedAt:      record.MergedAt,
		ClosedAt:      record.ClosedAt,
		Approvers:     record.Approvers,
	})
	if err != nil {
		return fmt.Errorf("failed to save pull request: %w", err)
	}

	result := s.scorer.Score(ctx, models.QualityKindPRDescription, record.Title, record.Body)
	if err := s.metricRepo.SavePRMetric(ctx, &models.PRMetric{
		PRID:          prID,
		QualityScore:  result.Score,
		Feedback:      result.Feedback,
		LinkedToIssue: CheckPRLinksIssue(record.Body, record.Title),
	}); err != nil {
		return fmt.Errorf("failed to save pull request metric: %w", err)
	}
	return nil
}
