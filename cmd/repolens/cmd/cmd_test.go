package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/pool"
	"github.com/alimgiray/repolens/internal/progress"
	"github.com/alimgiray/repolens/internal/services"
	"github.com/alimgiray/repolens/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRepository(t *testing.T) {
	a, err := openApp(&config.Config{Database: config.DatabaseConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "cmd_test.db"),
	}})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	ctx := context.Background()
	repo, err := a.repos.GetOrCreate(ctx, models.RepositoryInfo{
		GithubID: 1001,
		Owner:    "octo",
		Name:     "lens",
		URL:      "https://github.com/octo/lens",
	})
	require.NoError(t, err)

	testCases := []struct {
		name    string
		ref     string
		wantErr error
	}{
		{name: "owner and name", ref: "octo/lens"},
		{name: "url", ref: "https://github.com/octo/lens"},
		{name: "clone url", ref: "https://github.com/octo/lens.git"},
		{name: "stored id", ref: "1"},
		{name: "unknown", ref: "octo/other", wantErr: sql.ErrNoRows},
		{name: "invalid", ref: "lens", wantErr: models.ErrInvalidInput},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := a.resolveRepository(ctx, tc.ref)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, repo.ID, got.ID)
		})
	}
}

func TestPrintReport(t *testing.T) {
	score := 7.5
	report := &services.Report{
		Overview:     &models.RepositoryOverview{Name: "octo/lens", URL: "https://github.com/octo/lens", TotalContributors: 2},
		Commits:      &models.CommitStatistics{TotalCommits: 1200, TotalAdditions: 34000, TotalDeletions: 1200},
		PullRequests: &models.PRStatistics{TotalPRs: 3, AvgQualityScore: &score, PercentageLinked: 66.7},
		Issues:       &models.IssueStatistics{TotalIssues: 2, OpenIssues: 1, ClosedIssues: 1},
		Contributors: []*models.ContributorStats{{Username: "alice", CommitCount: 10, PRCommentCount: 2, IssueCommentCount: 1}},
		Languages:    []models.LanguageShare{{Language: "Python", Files: 3, Lines: 1500, Percentage: 100}},
	}

	var buf bytes.Buffer
	printReport(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "octo/lens (https://github.com/octo/lens)")
	assert.Contains(t, out, "Commits:       1,200 (+34,000 / -1,200")
	assert.Contains(t, out, "quality 7.5/10")
	assert.Contains(t, out, "quality n/a")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "1,500 lines")
	assert.NotContains(t, out, "Code quality")
}

func TestPrintAnalysis(t *testing.T) {
	testCases := []struct {
		name    string
		content *services.AnalysisResult
		want    string
	}{
		{name: "skipped", want: "Content:        skipped"},
		{
			name:    "clone timeout",
			content: &services.AnalysisResult{Error: "clone timed out", ErrorKind: services.AnalysisErrorClone},
			want:    "failed (clone): clone timed out",
		},
		{
			name:    "measured",
			content: &services.AnalysisResult{Content: &models.RepositoryContent{TotalFiles: 12, TotalLines: 4200}},
			want:    "12 files, 4,200 lines",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			printAnalysis(&buf, &services.PipelineResult{
				Repository:  &models.GitHubRepository{Owner: "octo", Name: "lens"},
				Commits:     pool.Summary{Total: 3, Succeeded: 2, Failed: 1},
				Content:     tc.content,
				FetchErrors: []string{"issues: boom"},
			})
			assert.Contains(t, buf.String(), tc.want)
			assert.Contains(t, buf.String(), "Commits:        2 saved, 1 failed")
			assert.Contains(t, buf.String(), "Warning: issues: boom")
		})
	}
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	report := progressPrinter(&buf)

	report(progress.Event{Stage: "fetch_commits", Completed: 3, Total: 10, Label: "abc1234"})
	report(progress.Event{Stage: "fetch_commits", Completed: 10, Total: 10, Label: "commits"})
	report(progress.Event{Stage: "fetch_issues", Completed: 25, Total: progress.Unknown})

	out := buf.String()
	assert.NotContains(t, out, "abc1234")
	assert.Contains(t, out, "10/10 commits")
	assert.Contains(t, out, "fetch_issues")
}

func TestReportFileName(t *testing.T) {
	report := &services.Report{Overview: &models.RepositoryOverview{Name: "octo/lens"}}
	assert.Equal(t, "octo-lens-report.xlsx", reportFileName(report, services.FormatXLSX))
}
