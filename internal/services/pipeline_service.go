package services

import (
	"context"
	"fmt"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/pool"
	"github.com/alimgiray/repolens/internal/progress"
	"github.com/alimgiray/repolens/internal/repositories"
	"github.com/alimgiray/repolens/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Pipeline stage names reported to the progress tracker
const (
	StageFetchCommits   = "fetch_commits"
	StageFetchPRs       = "fetch_prs"
	StageFetchIssues    = "fetch_issues"
	StageAnalyzeCommits = "analyze_commits"
	StageAnalyzePRs     = "analyze_prs"
	StageAnalyzeIssues  = "analyze_issues"
	StagePRComments     = "pr_comments"
	StageIssueComments  = "issue_comments"
	StageContent        = "content"
)

// RemoteClient is the part of the GitHub client the pipeline depends on
type RemoteClient interface {
	FetchRepositoryInfo(ctx context.Context, rawURL string) (*models.RepositoryInfo, error)
	FetchCommits(ctx context.Context, owner, name string, report progress.Func) ([]models.CommitRecord, error)
	FetchPullRequests(ctx context.Context, owner, name string, report progress.Func) ([]models.PullRequestRecord, error)
	FetchIssues(ctx context.Context, owner, name string, report progress.Func) ([]models.IssueRecord, error)
	FetchAllPRComments(ctx context.Context, owner, name string, numbers []int, report progress.Func) map[int][]models.CommentRecord
	FetchAllIssueComments(ctx context.Context, owner, name string, numbers []int, report progress.Func) map[int][]models.CommentRecord
}

// ContentAnalyzer measures the source tree of a repository
type ContentAnalyzer interface {
	AnalyzeRepository(ctx context.Context, repoID int64, repoURL string, report progress.Func) *AnalysisResult
}

// PipelineOptions configures one run
type PipelineOptions struct {
	RunID        string
	MaxWorkers   int
	ItemTimeout  time.Duration
	ScoreCommits bool
	SkipContent  bool
	// Observer receives every progress event in arrival order
	Observer func(progress.Event)
}

// PipelineResult summarizes a finished run
type PipelineResult struct {
	RunID              string                   `json:"run_id"`
	Repository         *models.GitHubRepository `json:"repository"`
	Commits            pool.Summary             `json:"commits"`
	PullRequests       pool.Summary             `json:"pull_requests"`
	Issues             pool.Summary             `json:"issues"`
	PRCommentsSaved    int                      `json:"pr_comments_saved"`
	IssueCommentsSaved int                      `json:"issue_comments_saved"`
	Content            *AnalysisResult          `json:"content,omitempty"`
	FetchErrors        []string                 `json:"fetch_errors,omitempty"`
	Duration           time.Duration            `json:"duration"`
}

// PipelineService runs a full analysis of one repository
type PipelineService struct {
	client          RemoteClient
	repoRepo        *repositories.GitHubRepositoryRepository
	commitAnalysis  *CommitAnalysisService
	prAnalysis      *PullRequestAnalysisService
	issueAnalysis   *IssueAnalysisService
	commentAnalysis *CommentAnalysisService
	content         ContentAnalyzer
	trackers        *progress.Registry
}

func NewPipelineService(
	client RemoteClient,
	repoRepo *repositories.GitHubRepositoryRepository,
	commitAnalysis *CommitAnalysisService,
	prAnalysis *PullRequestAnalysisService,
	issueAnalysis *IssueAnalysisService,
	commentAnalysis *CommentAnalysisService,
	content ContentAnalyzer,
	trackers *progress.Registry,
) *PipelineService {
	if trackers == nil {
		trackers = progress.NewRegistry()
	}
	return &PipelineService{
		client:          client,
		repoRepo:        repoRepo,
		commitAnalysis:  commitAnalysis,
		prAnalysis:      prAnalysis,
		issueAnalysis:   issueAnalysis,
		commentAnalysis: commentAnalysis,
		content:         content,
		trackers:        trackers,
	}
}

// Trackers exposes the live progress of running pipelines
func (s *PipelineService) Trackers() *progress.Registry {
	return s.trackers
}

// Run analyzes the repository at rawURL. Only an invalid URL, an unreachable
// repository or a failure to store the repository row is returned as an
// error; every later stage degrades and records what went wrong.
func (s *PipelineService) Run(ctx context.Context, rawURL string, opts PipelineOptions) (*PipelineResult, error) {
	start := time.Now()
	if opts.RunID == "" {
		opts.RunID = uuid.New().String()
	}
	log := logger.WithFields(logrus.Fields{"run_id": opts.RunID, "url": rawURL})

	tracker := progress.NewTracker(opts.RunID, opts.Observer)
	s.trackers.Add(tracker)
	defer func() {
		tracker.Close()
		s.trackers.Remove(opts.RunID)
	}()

	info, err := s.client.FetchRepositoryInfo(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	repo, err := s.repoRepo.GetOrCreate(ctx, *info)
	if err != nil {
		return nil, fmt.Errorf("failed to store repository: %w", err)
	}
	log = log.WithField("repo_id", repo.ID)
	log.Infof("Analyzing %s", repo.FullName())

	result := &PipelineResult{RunID: opts.RunID, Repository: repo}

	commits, prs, issues, fetchErrs := s.fetchAll(ctx, tracker, info.Owner, info.Name)
	result.FetchErrors = fetchErrs

	analysis := AnalysisOptions{
		MaxWorkers:   opts.MaxWorkers,
		ItemTimeout:  opts.ItemTimeout,
		ScoreCommits: opts.ScoreCommits,
	}

	analysis.Progress = tracker.Stage(StageAnalyzeCommits)
	if result.Commits, err = s.commitAnalysis.AnalyzeCommits(ctx, repo.ID, commits, analysis); err != nil {
		return nil, err
	}
	analysis.Progress = tracker.Stage(StageAnalyzePRs)
	if result.PullRequests, err = s.prAnalysis.AnalyzePullRequests(ctx, repo.ID, prs, analysis); err != nil {
		return nil, err
	}
	analysis.Progress = tracker.Stage(StageAnalyzeIssues)
	if result.Issues, err = s.issueAnalysis.AnalyzeIssues(ctx, repo.ID, issues, analysis); err != nil {
		return nil, err
	}

	prNumbers := make([]int, 0, len(prs))
	for _, pr := range prs {
		prNumbers = append(prNumbers, pr.Number)
	}
	prComments := s.client.FetchAllPRComments(ctx, info.Owner, info.Name, prNumbers, tracker.Stage(StagePRComments))
	if result.PRCommentsSaved, err = s.commentAnalysis.SavePRComments(ctx, repo.ID, prComments); err != nil {
		log.WithError(err).Warn("Failed to save pull request comments")
	}

	issueNumbers := make([]int, 0, len(issues))
	for _, issue := range issues {
		issueNumbers = append(issueNumbers, issue.Number)
	}
	issueComments := s.client.FetchAllIssueComments(ctx, info.Owner, info.Name, issueNumbers, tracker.Stage(StageIssueComments))
	if result.IssueCommentsSaved, err = s.commentAnalysis.SaveIssueComments(ctx, repo.ID, issueComments); err != nil {
		log.WithError(err).Warn("Failed to save issue comments")
	}

	if !opts.SkipContent && s.content != nil {
		result.Content = s.content.AnalyzeRepository(ctx, repo.ID, cloneURL(info), tracker.Stage(StageContent))
		if result.Content.Error != "" {
			log.WithField("kind", result.Content.ErrorKind).Warnf("Content analysis failed: %s", result.Content.Error)
		}
	}

	now := time.Now().UTC()
	if err := s.repoRepo.UpdateLastAnalyzed(ctx, repo.ID, now); err != nil {
		log.WithError(err).Warn("Failed to update last analyzed")
	} else {
		repo.LastAnalyzed = &now
	}

	result.Duration = time.Since(start)
	log.WithField("duration", result.Duration.String()).Info("Analysis finished")
	return result, nil
}

// fetchAll lists commits, pull requests and issues concurrently. A failed
// listing leaves its set empty and is reported in the returned messages.
func (s *PipelineService) fetchAll(ctx context.Context, tracker *progress.Tracker, owner, name string) (
	[]models.CommitRecord, []models.PullRequestRecord, []models.IssueRecord, []string,
) {
	var (
		commits []models.CommitRecord
		prs     []models.PullRequestRecord
		issues  []models.IssueRecord

		commitErr, prErr, issueErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		commits, commitErr = s.client.FetchCommits(ctx, owner, name, tracker.Stage(StageFetchCommits))
		return nil
	})
	g.Go(func() error {
		prs, prErr = s.client.FetchPullRequests(ctx, owner, name, tracker.Stage(StageFetchPRs))
		return nil
	})
	g.Go(func() error {
		issues, issueErr = s.client.FetchIssues(ctx, owner, name, tracker.Stage(StageFetchIssues))
		return nil
	})
	_ = g.Wait()

	var messages []string
	for _, f := range []struct {
		stage string
		err   error
	}{
		{StageFetchCommits, commitErr},
		{StageFetchPRs, prErr},
		{StageFetchIssues, issueErr},
	} {
		if f.err != nil {
			logger.WithError(f.err).WithField("stage", f.stage).Warn("Fetch failed, continuing with an empty set")
			messages = append(messages, fmt.Sprintf("%s: %v", f.stage, f.err))
		}
	}
	if commitErr != nil {
		commits = nil
	}
	if prErr != nil {
		prs = nil
	}
	if issueErr != nil {
		issues = nil
	}
	return commits, prs, issues, messages
}

func cloneURL(info *models.RepositoryInfo) string {
	if info.URL != "" {
		return info.URL + ".git"
	}
	return fmt.Sprintf("https://github.com/%s/%s.git", info.Owner, info.Name)
}
