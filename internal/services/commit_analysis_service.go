package services

import (
	"context"
	"fmt"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/pool"
	"github.com/alimgiray/repolens/internal/repositories"
	"github.com/alimgiray/repolens/pkg/logger"
)

// CommitAnalysisService persists fetched commits and optionally scores their messages
type CommitAnalysisService struct {
	contributorRepo *repositories.ContributorRepository
	commitRepo      *repositories.CommitRepository
	metricRepo      *repositories.MetricRepository
	scorer          TextScorer
}

func NewCommitAnalysisService(
	contributorRepo *repositories.ContributorRepository,
	commitRepo *repositories.CommitRepository,
	metricRepo *repositories.MetricRepository,
	scorer TextScorer,
) *CommitAnalysisService {
	return &CommitAnalysisService{
		contributorRepo: contributorRepo,
		commitRepo:      commitRepo,
		metricRepo:      metricRepo,
		scorer:          scorer,
	}
}

// AnalyzeCommits saves every commit under repoID. A commit that fails is
// logged and counted, the rest of the batch continues.
func (s *CommitAnalysisService) AnalyzeCommits(ctx context.Context, repoID int64, commits []models.CommitRecord, opts AnalysisOptions) (pool.Summary, error) {
	summary, err := pool.Run(ctx, commits, commitLabel, opts.poolOptions("commits"), func(ctx context.Context, record models.CommitRecord) error {
		return s.analyzeCommit(ctx, repoID, record, opts.ScoreCommits)
	})
	if err != nil {
		return summary, err
	}

	logger.WithField("repo_id", repoID).Infof("Analyzed commits: %d succeeded, %d failed", summary.Succeeded, summary.Failed)
	return summary, nil
}

func commitLabel(c models.CommitRecord) string {
	return models.ShortSHA(c.SHA)
}

func (s *CommitAnalysisService) analyzeCommit(ctx context.Context, repoID int64, record models.CommitRecord, score bool) error {
	contributor, err := s.contributorRepo.GetOrCreate(ctx, record.Author)
	if err != nil {
		return fmt.Errorf("failed to resolve contributor: %w", err)
	}

	commit, err := s.commitRepo.Save(ctx, &models.Commit{
		RepoID:        repoID,
		ContributorID: &contributor.ID,
		SHA:           record.SHA,
		Message:       record.Message,
		Additions:     record.Additions,
		Deletions:     record.Deletions,
		FilesChanged:  record.FilesChanged,
		CommittedAt:   record.CommittedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to save commit: %w", err)
	}

	if !score {
		return nil
	}

	result := s.scorer.Score(ctx, models.QualityKindCommitMessage, record.Message, "")
	if err := s.metricRepo.SaveCommitMetric(ctx, &models.CommitMetric{
		CommitID:     commit.ID,
		QualityScore: result.Score,
		Feedback:     result.Feedback,
	}); err != nil {
		return fmt.Errorf("failed to save commit metric: %w", err)
	}
	return nil
}
