package services

import (
	"context"
	"unicode/utf8"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/repositories"
	"github.com/alimgiray/repolens/pkg/logger"
	"github.com/sirupsen/logrus"
)

// CommentAnalysisService stores fetched comments against their stored parents
type CommentAnalysisService struct {
	contributorRepo *repositories.ContributorRepository
	prRepo          *repositories.PullRequestRepository
	issueRepo       *repositories.IssueRepository
	commentRepo     *repositories.CommentRepository
	metricRepo      *repositories.MetricRepository
}

func NewCommentAnalysisService(
	contributorRepo *repositories.ContributorRepository,
	prRepo *repositories.PullRequestRepository,
	issueRepo *repositories.IssueRepository,
	commentRepo *repositories.CommentRepository,
	metricRepo *repositories.MetricRepository,
) *CommentAnalysisService {
	return &CommentAnalysisService{
		contributorRepo: contributorRepo,
		prRepo:          prRepo,
		issueRepo:       issueRepo,
		commentRepo:     commentRepo,
		metricRepo:      metricRepo,
	}
}

// avgCommentLength is the mean body length in characters, 0 without comments
func avgCommentLength(records []models.CommentRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	total := 0
	for _, c := range records {
		total += utf8.RuneCountInString(c.Body)
	}
	return float64(total) / float64(len(records))
}

// SavePRComments inserts new comments for each pull request number and returns
// how many rows were written. Comments already stored are left untouched. The
// average comment length of each pull request with fetched comments is
// recomputed on its metric.
func (s *CommentAnalysisService) SavePRComments(ctx context.Context, repoID int64, comments map[int][]models.CommentRecord) (int, error) {
	ids, err := s.prRepo.IDsByNumber(ctx, repoID)
	if err != nil {
		return 0, err
	}

	saved := 0
	for number, records := range comments {
		prID, ok := ids[number]
		if !ok {
			continue
		}
		if len(records) > 0 {
			if err := s.metricRepo.UpdatePRCommentLength(ctx, prID, avgCommentLength(records)); err != nil {
				logger.WithError(err).WithFields(logrus.Fields{"repo_id": repoID, "pr": number}).Warn("Failed to update comment length")
			}
		}
		for _, c := range records {
			log := logger.WithFields(logrus.Fields{"repo_id": repoID, "pr": number, "comment_id": c.CommentID})
			contributor, err := s.contributorRepo.GetOrCreate(ctx, c.Author)
			if err != nil {
				log.WithError(err).Warn("Skipping comment, contributor not resolved")
				continue
			}
			ok, err := s.commentRepo.SavePRComment(ctx, &models.PRComment{
				PRID:          prID,
				ContributorID: contributor.ID,
				CommentID:     c.CommentID,
				CommentType:   c.CommentType,
				Body:          c.Body,
				CreatedAt:     c.CreatedAt,
			})
			if err != nil {
				log.WithError(err).Warn("Failed to save comment")
				continue
			}
			if ok {
				saved++
			}
		}
	}
	return saved, nil
}

// SaveIssueComments inserts new comments for each issue number
func (s *CommentAnalysisService) SaveIssueComments(ctx context.Context, repoID int64, comments map[int][]models.CommentRecord) (int, error) {
	ids, err := s.issueRepo.IDsByNumber(ctx, repoID)
	if err != nil {
		return 0, err
	}

	saved := 0
	for number, records := range comments {
		issueID, ok := ids[number]
		if !ok {
			continue
		}
		for _, c := range records {
			log := logger.WithFields(logrus.Fields{"repo_id": repoID, "issue": number, "comment_id": c.CommentID})
			contributor, err := s.contributorRepo.GetOrCreate(ctx, c.Author)
			if err != nil {
				log.WithError(err).Warn("Skipping comment, contributor not resolved")
				continue
			}
			ok, err := s.commentRepo.SaveIssueComment(ctx, &models.IssueComment{
				IssueID:       issueID,
				ContributorID: contributor.ID,
				CommentID:     c.CommentID,
				Body:          c.Body,
				CreatedAt:     c.CreatedAt,
			})
			if err != nil {
				log.WithError(err).Warn("Failed to save comment")
				continue
			}
			if ok {
				saved++
			}
		}
	}
	return saved, nil
}
