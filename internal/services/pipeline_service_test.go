package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemoteClient struct {
	info      *models.RepositoryInfo
	infoErr   error
	commits   []models.CommitRecord
	prs       []models.PullRequestRecord
	prErr     error
	issues    []models.IssueRecord
	comments  map[int][]models.CommentRecord
	issueNums []int
}

func (f *fakeRemoteClient) FetchRepositoryInfo(_ context.Context, _ string) (*models.RepositoryInfo, error) {
	return f.info, f.infoErr
}

func (f *fakeRemoteClient) FetchCommits(_ context.Context, _, _ string, report progress.Func) ([]models.CommitRecord, error) {
	for i := range f.commits {
		report.Report(i+1, len(f.commits), models.ShortSHA(f.commits[i].SHA))
	}
	return f.commits, nil
}

func (f *fakeRemoteClient) FetchPullRequests(_ context.Context, _, _ string, _ progress.Func) ([]models.PullRequestRecord, error) {
	return f.prs, f.prErr
}

func (f *fakeRemoteClient) FetchIssues(_ context.Context, _, _ string, _ progress.Func) ([]models.IssueRecord, error) {
	return f.issues, nil
}

func (f *fakeRemoteClient) FetchAllPRComments(_ context.Context, _, _ string, numbers []int, _ progress.Func) map[int][]models.CommentRecord {
	out := map[int][]models.CommentRecord{}
	for _, n := range numbers {
		out[n] = f.comments[n]
	}
	return out
}

func (f *fakeRemoteClient) FetchAllIssueComments(_ context.Context, _, _ string, numbers []int, _ progress.Func) map[int][]models.CommentRecord {
	f.issueNums = numbers
	return map[int][]models.CommentRecord{}
}

type fakeContentAnalyzer struct {
	calls []string
}

func (f *fakeContentAnalyzer) AnalyzeRepository(_ context.Context, _ int64, repoURL string, report progress.Func) *AnalysisResult {
	f.calls = append(f.calls, repoURL)
	report.Report(1, 1, "done")
	return &AnalysisResult{ErrorKind: string(models.CloneTimeout), Error: "clone did not finish"}
}

func newTestPipeline(store *testStore, client RemoteClient, content ContentAnalyzer) *PipelineService {
	scorer := newStubScorer(6)
	return NewPipelineService(
		client,
		store.repos,
		NewCommitAnalysisService(store.contributors, store.commits, store.metrics, scorer),
		NewPullRequestAnalysisService(store.contributors, store.prs, store.metrics, scorer),
		NewIssueAnalysisService(store.contributors, store.issues, store.metrics, scorer),
		NewCommentAnalysisService(store.contributors, store.prs, store.issues, store.comments, store.metrics),
		content,
		progress.NewRegistry(),
	)
}

func pipelineFixture() *fakeRemoteClient {
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &fakeRemoteClient{
		info:    &models.RepositoryInfo{GithubID: 77, Owner: "octo", Name: "lens", URL: "https://github.com/octo/lens"},
		commits: sampleCommits(5),
		prs: []models.PullRequestRecord{
			{Number: 1, Title: "Add lens", Body: "closes #2", State: "open", CreatedAt: created, Author: models.ContributorInput{Username: "alice"}},
		},
		issues: []models.IssueRecord{
			{Number: 2, Title: "Crash", State: "closed", CreatedAt: created, Author: models.ContributorInput{Username: "bob"}},
		},
		comments: map[int][]models.CommentRecord{
			1: {{CommentID: 500, CommentType: models.CommentTypeReview, Body: "nit", CreatedAt: created, Author: models.ContributorInput{Username: "carol"}}},
		},
	}
}

func TestPipelineRun(t *testing.T) {
	store := setupTestStore(t)
	client := pipelineFixture()
	content := &fakeContentAnalyzer{}
	pipeline := newTestPipeline(store, client, content)
	ctx := context.Background()

	var (
		mu     sync.Mutex
		stages = map[string]bool{}
	)
	result, err := pipeline.Run(ctx, "https://github.com/octo/lens", PipelineOptions{
		MaxWorkers: 4,
		Observer: func(e progress.Event) {
			mu.Lock()
			stages[e.Stage] = true
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 5, result.Commits.Succeeded)
	assert.Equal(t, 1, result.PullRequests.Succeeded)
	assert.Equal(t, 1, result.Issues.Succeeded)
	assert.Equal(t, 1, result.PRCommentsSaved)
	assert.Empty(t, result.FetchErrors)
	assert.Equal(t, []int{2}, client.issueNums)

	require.NotNil(t, result.Content)
	assert.Equal(t, string(models.CloneTimeout), result.Content.ErrorKind)
	assert.Equal(t, []string{"https://github.com/octo/lens.git"}, content.calls)

	require.NotNil(t, result.Repository.LastAnalyzed)
	stored, err := store.repos.GetByID(ctx, result.Repository.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastAnalyzed)

	prStats, err := store.stats.PRStatistics(ctx, result.Repository.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, prStats.PRsWithIssues)
	assert.Equal(t, 100.0, prStats.PercentageLinked)

	mu.Lock()
	defer mu.Unlock()
	for _, stage := range []string{StageFetchCommits, StageAnalyzeCommits, StageAnalyzePRs, StageAnalyzeIssues, StageContent} {
		assert.True(t, stages[stage], "stage %s", stage)
	}
	_, live := pipeline.Trackers().Get(result.RunID)
	assert.False(t, live)
}

func TestPipelineRunIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	pipeline := newTestPipeline(store, pipelineFixture(), nil)
	ctx := context.Background()

	var repoID int64
	for i := 0; i < 2; i++ {
		result, err := pipeline.Run(ctx, "https://github.com/octo/lens", PipelineOptions{SkipContent: true})
		require.NoError(t, err)
		assert.Nil(t, result.Content)
		repoID = result.Repository.ID
	}

	overview, err := store.stats.RepositoryOverview(ctx, repoID)
	require.NoError(t, err)
	assert.Equal(t, 5, overview.TotalCommits)
	assert.Equal(t, 1, overview.TotalPRs)
	assert.Equal(t, 1, overview.TotalIssues)

	repos, err := store.repos.List(ctx)
	require.NoError(t, err)
	assert.Len(t, repos, 1)
}

func TestPipelineFetchFailureContinues(t *testing.T) {
	store := setupTestStore(t)
	client := pipelineFixture()
	client.prErr = &models.RemoteAPIError{Status: 502, Message: "bad gateway"}
	pipeline := newTestPipeline(store, client, nil)

	result, err := pipeline.Run(context.Background(), "https://github.com/octo/lens", PipelineOptions{SkipContent: true})
	require.NoError(t, err)

	require.Len(t, result.FetchErrors, 1)
	assert.Contains(t, result.FetchErrors[0], StageFetchPRs)
	assert.Equal(t, 0, result.PullRequests.Total)
	assert.Equal(t, 5, result.Commits.Succeeded)
	assert.Equal(t, 1, result.Issues.Succeeded)
}

func TestPipelineRepositoryErrorsAreFatal(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{name: "invalid url", err: models.ErrInvalidInput},
		{name: "not found", err: &models.RemoteAPIError{Status: 404, Message: "Not Found"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := setupTestStore(t)
			client := pipelineFixture()
			client.infoErr = tc.err
			pipeline := newTestPipeline(store, client, nil)

			_, err := pipeline.Run(context.Background(), "https://github.com/octo/lens", PipelineOptions{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.err))
		})
	}
}
