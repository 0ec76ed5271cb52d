package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/repositories"
	"github.com/alimgiray/repolens/pkg/config"
	"github.com/alimgiray/repolens/pkg/database"
	"github.com/stretchr/testify/require"
)

type testStore struct {
	db           *database.DB
	repos        *repositories.GitHubRepositoryRepository
	contributors *repositories.ContributorRepository
	commits      *repositories.CommitRepository
	prs          *repositories.PullRequestRepository
	issues       *repositories.IssueRepository
	metrics      *repositories.MetricRepository
	comments     *repositories.CommentRepository
	content      *repositories.RepositoryContentRepository
	quality      *repositories.CodeQualityRepository
	stats        *repositories.StatisticsRepository
}

func setupTestStore(t *testing.T) *testStore {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "services_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &testStore{
		db:           db,
		repos:        repositories.NewGitHubRepositoryRepository(db),
		contributors: repositories.NewContributorRepository(db),
		commits:      repositories.NewCommitRepository(db),
		prs:          repositories.NewPullRequestRepository(db),
		issues:       repositories.NewIssueRepository(db),
		metrics:      repositories.NewMetricRepository(db),
		comments:     repositories.NewCommentRepository(db),
		content:      repositories.NewRepositoryContentRepository(db),
		quality:      repositories.NewCodeQualityRepository(db),
		stats:        repositories.NewStatisticsRepository(db),
	}
}

func (s *testStore) createRepository(t *testing.T) *models.GitHubRepository {
	t.Helper()
	repo, err := s.repos.GetOrCreate(context.Background(), models.RepositoryInfo{
		GithubID: 1001,
		Owner:    "octo",
		Name:     "lens",
		URL:      "https://github.com/octo/lens",
	})
	require.NoError(t, err)
	return repo
}

// stubScorer returns a fixed score and records every call
type stubScorer struct {
	mu       sync.Mutex
	score    float64
	calls    map[models.QualityKind]int
	panicOn  string
	insights models.Insights
}

func newStubScorer(score float64) *stubScorer {
	return &stubScorer{
		score: score,
		calls: map[models.QualityKind]int{},
		insights: models.Insights{
			Summary:     "Readable code",
			Suggestions: []string{"Add tests"},
			Score:       7,
		},
	}
}

func (s *stubScorer) Enabled() bool {
	return true
}

func (s *stubScorer) Score(_ context.Context, kind models.QualityKind, title, _ string) models.QualityResult {
	if s.panicOn != "" && title == s.panicOn {
		panic("scorer exploded")
	}
	s.mu.Lock()
	s.calls[kind]++
	s.mu.Unlock()
	return models.QualityResult{Score: s.score, Feedback: "stub feedback"}
}

func (s *stubScorer) GenerateInsights(_ context.Context, _ models.InsightsInput) models.Insights {
	return s.insights
}

func (s *stubScorer) callCount(kind models.QualityKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}
