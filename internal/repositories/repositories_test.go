package repositories

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/config"
	"github.com/alimgiray/repolens/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "repolens_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestRepository(t *testing.T, db *database.DB) *models.GitHubRepository {
	t.Helper()
	repo, err := NewGitHubRepositoryRepository(db).GetOrCreate(context.Background(), models.RepositoryInfo{
		GithubID: 42,
		Owner:    "octo",
		Name:     "lens",
		URL:      "https://github.com/octo/lens",
	})
	require.NoError(t, err)
	return repo
}

func createTestContributor(t *testing.T, db *database.DB, username string) *models.Contributor {
	t.Helper()
	c, err := NewContributorRepository(db).GetOrCreate(context.Background(), models.ContributorInput{Username: username})
	require.NoError(t, err)
	return c
}

func TestGitHubRepositoryGetOrCreate(t *testing.T) {
	db := setupTestDB(t)
	repos := NewGitHubRepositoryRepository(db)
	ctx := context.Background()

	first, err := repos.GetOrCreate(ctx, models.RepositoryInfo{GithubID: 7, Owner: "a", Name: "b", URL: "https://github.com/a/b"})
	require.NoError(t, err)

	second, err := repos.GetOrCreate(ctx, models.RepositoryInfo{
		GithubID: 7, Owner: "a", Name: "renamed", URL: "https://github.com/a/renamed", Description: "now described",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "renamed", second.Name)
	require.NotNil(t, second.Description)
	assert.Equal(t, "now described", *second.Description)

	byName, err := repos.GetByOwnerName(ctx, "A", "RENAMED")
	require.NoError(t, err)
	assert.Equal(t, first.ID, byName.ID)

	all, err := repos.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGitHubRepositoryUpdateLastAnalyzed(t *testing.T) {
	db := setupTestDB(t)
	repos := NewGitHubRepositoryRepository(db)
	ctx := context.Background()
	repo := createTestRepository(t, db)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repos.UpdateLastAnalyzed(ctx, repo.ID, at))

	stored, err := repos.GetByID(ctx, repo.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastAnalyzed)
	assert.True(t, at.Equal(*stored.LastAnalyzed))

	err = repos.UpdateLastAnalyzed(ctx, repo.ID+100, at)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestContributorGetOrCreate(t *testing.T) {
	db := setupTestDB(t)
	contributors := NewContributorRepository(db)
	ctx := context.Background()

	testCases := []struct {
		name         string
		input        models.ContributorInput
		wantUsername string
	}{
		{name: "named contributor", input: models.ContributorInput{Username: "alice", Email: "a@x.io"}, wantUsername: "alice"},
		{name: "empty username maps to unknown", input: models.ContributorInput{}, wantUsername: models.UnknownContributor},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			first, err := contributors.GetOrCreate(ctx, tc.input)
			require.NoError(t, err)
			second, err := contributors.GetOrCreate(ctx, tc.input)
			require.NoError(t, err)

			assert.Equal(t, tc.wantUsername, first.Username)
			assert.Equal(t, first.ID, second.ID)
		})
	}

	n, err := contributors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestContributorGetOrCreateConcurrent(t *testing.T) {
	db := setupTestDB(t)
	contributors := NewContributorRepository(db)
	ctx := context.Background()

	const workers = 16
	ids := make([]int64, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := contributors.GetOrCreate(ctx, models.ContributorInput{Username: "racer"})
			errs[i] = err
			if err == nil {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	n, err := contributors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCommitSaveIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	commits := NewCommitRepository(db)
	ctx := context.Background()
	repo := createTestRepository(t, db)
	author := createTestContributor(t, db, "alice")

	commit := &models.Commit{
		RepoID:        repo.ID,
		ContributorID: &author.ID,
		SHA:           "abc123",
		Message:       "fix parser",
		Additions:     10,
		Deletions:     2,
		FilesChanged:  1,
		CommittedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	first, err := commits.Save(ctx, commit)
	require.NoError(t, err)

	commit.Message = "changed after the fact"
	second, err := commits.Save(ctx, commit)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "fix parser", second.Message)

	n, err := commits.CountByRepository(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPullRequestUpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	prs := NewPullRequestRepository(db)
	ctx := context.Background()
	repo := createTestRepository(t, db)
	author := createTestContributor(t, db, "alice")

	pr := &models.PullRequest{
		RepoID:        repo.ID,
		ContributorID: &author.ID,
		Number:        12,
		Title:         "first title",
		State:         "open",
		CreatedAt:     time.Now(),
	}
	firstID, err := prs.Upsert(ctx, pr)
	require.NoError(t, err)

	merged := time.Now()
	pr.Title = "second title"
	pr.State = "closed"
	pr.MergedAt = &merged
	pr.Approvers = []string{"bob", "carol"}
	secondID, err := prs.Upsert(ctx, pr)
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	stored, err := prs.GetByNumber(ctx, repo.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, "second title", stored.Title)
	assert.Equal(t, "closed", stored.State)
	assert.NotNil(t, stored.MergedAt)
	assert.Equal(t, []string{"bob", "carol"}, stored.Approvers)

	ids, err := prs.IDsByNumber(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int]int64{12: firstID}, ids)
}

func TestIssueUpsertEmptyLists(t *testing.T) {
	db := setupTestDB(t)
	issues := NewIssueRepository(db)
	ctx := context.Background()
	repo := createTestRepository(t, db)

	_, err := issues.Upsert(ctx, &models.Issue{RepoID: repo.ID, Number: 3, Title: "bug", State: "open", CreatedAt: time.Now()})
	require.NoError(t, err)

	stored, err := issues.GetByNumber(ctx, repo.ID, 3)
	require.NoError(t, err)
	assert.Empty(t, stored.Assignees)
	assert.Empty(t, stored.Labels)
	assert.Nil(t, stored.ContributorID)
}

func TestMetricAtMostOnePerParent(t *testing.T) {
	db := setupTestDB(t)
	metrics := NewMetricRepository(db)
	ctx := context.Background()
	repo := createTestRepository(t, db)

	prID, err := NewPullRequestRepository(db).Upsert(ctx, &models.PullRequest{
		RepoID: repo.ID, Number: 1, Title: "t", State: "open", CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, metrics.SavePRMetric(ctx, &models.PRMetric{PRID: prID, QualityScore: 4, Feedback: "meh"}))
	require.NoError(t, metrics.SavePRMetric(ctx, &models.PRMetric{PRID: prID, QualityScore: 8, Feedback: "good", LinkedToIssue: true}))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pr_metrics WHERE pr_id = ?`, prID).Scan(&n))
	assert.Equal(t, 1, n)

	m, err := metrics.GetPRMetric(ctx, prID)
	require.NoError(t, err)
	assert.Equal(t, 8.0, m.QualityScore)
	assert.True(t, m.LinkedToIssue)
}

func TestCommentDuplicateIsNoop(t *testing.T) {
	db := setupTestDB(t)
	comments := NewCommentRepository(db)
	ctx := context.Background()
	repo := createTestRepository(t, db)
	author := createTestContributor(t, db, "alice")

	prID, err := NewPullRequestRepository(db).Upsert(ctx, &models.PullRequest{
		RepoID: repo.ID, Number: 1, Title: "t", State: "open", CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	c := &models.PRComment{PRID: prID, ContributorID: author.ID, CommentID: 99, Body: "lgtm", CreatedAt: time.Now()}
	ok, err := comments.SavePRComment(ctx, c)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = comments.SavePRComment(ctx, c)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := comments.ListPRComments(ctx, prID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.CommentTypeIssue, stored[0].CommentType)
}

func TestStatisticsEmptyRepository(t *testing.T) {
	db := setupTestDB(t)
	stats := NewStatisticsRepository(db)
	ctx := context.Background()
	repo := createTestRepository(t, db)

	commitStats, err := stats.CommitStatistics(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommitStatistics{}, *commitStats)

	prStats, err := stats.PRStatistics(ctx, repo.ID)
	require.NoError(t, err)
	assert.Zero(t, prStats.TotalPRs)
	assert.Nil(t, prStats.AvgQualityScore)
	assert.Zero(t, prStats.PercentageLinked)

	issueStats, err := stats.IssueStatistics(ctx, repo.ID)
	require.NoError(t, err)
	assert.Zero(t, issueStats.TotalIssues)
	assert.Nil(t, issueStats.AvgQualityScore)

	contributors, err := stats.ContributorStats(ctx, repo.ID)
	require.NoError(t, err)
	assert.Empty(t, contributors)

	overview, err := stats.RepositoryOverview(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, "octo/lens", overview.Name)
	assert.Zero(t, overview.TotalContributors)

	_, err = stats.RepositoryOverview(ctx, repo.ID+1)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStatisticsAggregates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := createTestRepository(t, db)
	alice := createTestContributor(t, db, "alice")
	bob := createTestContributor(t, db, "bob")

	commits := NewCommitRepository(db)
	for i, c := range []struct {
		sha    string
		author int64
		add    int
		del    int
	}{
		{"a1", alice.ID, 10, 5},
		{"a2", alice.ID, 3, 0},
		{"b1", bob.ID, 1, 1},
	} {
		author := c.author
		_, err := commits.Save(ctx, &models.Commit{
			RepoID: repo.ID, ContributorID: &author, SHA: c.sha,
			Additions: c.add, Deletions: c.del, CommittedAt: time.Now().Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	prs := NewPullRequestRepository(db)
	metrics := NewMetricRepository(db)
	for n, linked := range map[int]bool{1: true, 2: false, 3: false} {
		id, err := prs.Upsert(ctx, &models.PullRequest{
			RepoID: repo.ID, ContributorID: &alice.ID, Number: n, Title: "pr", State: "closed",
			CommentsCount: n, Additions: 10, Deletions: 1, CreatedAt: time.Now(),
		})
		require.NoError(t, err)
		require.NoError(t, metrics.SavePRMetric(ctx, &models.PRMetric{PRID: id, QualityScore: float64(n + 5), LinkedToIssue: linked}))
	}

	issues := NewIssueRepository(db)
	_, err := issues.Upsert(ctx, &models.Issue{RepoID: repo.ID, ContributorID: &bob.ID, Number: 10, Title: "i", State: "open", CreatedAt: time.Now()})
	require.NoError(t, err)
	_, err = issues.Upsert(ctx, &models.Issue{RepoID: repo.ID, ContributorID: &bob.ID, Number: 11, Title: "i", State: "closed", CommentsCount: 3, CreatedAt: time.Now()})
	require.NoError(t, err)

	stats := NewStatisticsRepository(db)

	commitStats, err := stats.CommitStatistics(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, commitStats.TotalCommits)
	assert.Equal(t, int64(14), commitStats.TotalAdditions)
	assert.Equal(t, int64(6), commitStats.TotalDeletions)
	assert.Equal(t, 6.67, commitStats.AvgChangesPerCommit)

	prStats, err := stats.PRStatistics(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, prStats.TotalPRs)
	assert.Equal(t, 2.0, prStats.AvgComments)
	require.NotNil(t, prStats.AvgQualityScore)
	assert.Equal(t, 7.0, *prStats.AvgQualityScore)
	assert.Equal(t, 1, prStats.PRsWithIssues)
	assert.Equal(t, 33.3, prStats.PercentageLinked)

	issueStats, err := stats.IssueStatistics(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, issueStats.TotalIssues)
	assert.Equal(t, 1, issueStats.OpenIssues)
	assert.Equal(t, 1, issueStats.ClosedIssues)
	assert.Equal(t, 1.5, issueStats.AvgComments)
	assert.Nil(t, issueStats.AvgQualityScore)

	contributors, err := stats.ContributorStats(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, contributors, 2)
	assert.Equal(t, "alice", contributors[0].Username)
	assert.Equal(t, 2, contributors[0].CommitCount)
	assert.Equal(t, 3, contributors[0].PRCount)
	assert.Equal(t, "bob", contributors[1].Username)
	assert.Equal(t, 2, contributors[1].IssueCount)

	overview, err := stats.RepositoryOverview(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, overview.TotalCommits)
	assert.Equal(t, 3, overview.TotalPRs)
	assert.Equal(t, 2, overview.TotalIssues)
	assert.Equal(t, 2, overview.TotalContributors)
}

func TestJobClaimNext(t *testing.T) {
	db := setupTestDB(t)
	jobs := NewJobRepository(db)
	ctx := context.Background()

	claimed, err := jobs.ClaimNext(ctx, "worker-1")
	require.NoError(t, err)
	assert.Nil(t, claimed)

	older := models.NewJob("https://github.com/a/b", false)
	older.CreatedAt = time.Now().Add(-time.Minute)
	newer := models.NewJob("https://github.com/c/d", true)
	require.NoError(t, jobs.Create(ctx, older))
	require.NoError(t, jobs.Create(ctx, newer))

	claimed, err = jobs.ClaimNext(ctx, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, older.ID, claimed.ID)
	assert.Equal(t, models.JobStatusInProgress, claimed.Status)

	claimed.MarkCompleted(5)
	require.NoError(t, jobs.Update(ctx, claimed))

	stored, err := jobs.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, stored.Status)
	require.NotNil(t, stored.RepoID)
	assert.Equal(t, int64(5), *stored.RepoID)

	next, err := jobs.ClaimNext(ctx, "worker-2")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, newer.ID, next.ID)
	assert.True(t, next.SkipContent)

	reset, err := jobs.ResetInProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reset)

	listed, err := jobs.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}
