package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/pool"
	"github.com/alimgiray/repolens/internal/progress"
	"github.com/alimgiray/repolens/pkg/logger"
	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	perPage        = 100
	commentWorkers = 5
)

var repositoryURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`github\.com/([^/]+)/([^/]+?)(?:\.git)?$`),
	regexp.MustCompile(`github\.com/([^/]+)/([^/]+)`),
}

// ParseRepositoryURL extracts owner and name from the accepted GitHub URL shapes
func ParseRepositoryURL(rawURL string) (string, string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	for _, pattern := range repositoryURLPatterns {
		if m := pattern.FindStringSubmatch(trimmed); m != nil {
			return m[1], strings.TrimSuffix(m[2], ".git"), nil
		}
	}
	return "", "", fmt.Errorf("%w: invalid GitHub repository URL: %s", models.ErrInvalidInput, rawURL)
}

// GitHubClientService reads repository data through the GitHub REST API and
// normalizes it into models records.
type GitHubClientService struct {
	client *github.Client
	log    *logrus.Entry
}

// NewGitHubClientService authenticates with a static token. baseURL overrides the
// API endpoint (GitHub Enterprise or a test server) when set.
func NewGitHubClientService(token, baseURL string) (*GitHubClientService, error) {
	ctx := context.Background()
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(ctx, ts)
	}
	client := github.NewClient(httpClient)

	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL: %w", err)
		}
		client.BaseURL = u
	}

	return &GitHubClientService{
		client: client,
		log:    logger.ForComponent("github"),
	}, nil
}

// remoteError converts a go-github error into a RemoteAPIError
func remoteError(err error, action, hint string) error {
	var apiErr *models.RemoteAPIError
	if errors.As(err, &apiErr) {
		return err
	}

	status := 0
	message := err.Error()
	var errResp *github.ErrorResponse
	var rateErr *github.RateLimitError
	switch {
	case errors.As(err, &rateErr):
		if rateErr.Response != nil {
			status = rateErr.Response.StatusCode
		}
		message = fmt.Sprintf("%s: rate limit exceeded, resets at %s", action, rateErr.Rate.Reset.Format(time.RFC3339))
	case errors.As(err, &errResp):
		if errResp.Response != nil {
			status = errResp.Response.StatusCode
		}
		message = fmt.Sprintf("%s: %s", action, errResp.Message)
	default:
		message = fmt.Sprintf("%s: %v", action, err)
	}

	if status != http.StatusNotFound {
		hint = ""
	}
	return &models.RemoteAPIError{Status: status, Message: message, Hint: hint}
}

func notFoundHint(owner, name string) string {
	return fmt.Sprintf("Repository '%s/%s' not found. Please check:\n"+
		"1. The repository exists at https://github.com/%s/%s\n"+
		"2. If it's a private repo, ensure your GitHub token has access\n"+
		"3. The URL is spelled correctly", owner, name, owner, name)
}

// FetchRepositoryInfo resolves rawURL and reads the repository metadata
func (s *GitHubClientService) FetchRepositoryInfo(ctx context.Context, rawURL string) (*models.RepositoryInfo, error) {
	owner, name, err := ParseRepositoryURL(rawURL)
	if err != nil {
		return nil, err
	}

	repo, _, err := s.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, remoteError(err, fmt.Sprintf("could not access repository '%s/%s'", owner, name), notFoundHint(owner, name))
	}

	// GitHub's casing wins over the one typed in the URL
	if login := repo.GetOwner().GetLogin(); login != "" {
		owner = login
	}
	if repo.GetName() != "" {
		name = repo.GetName()
	}

	return &models.RepositoryInfo{
		GithubID:      repo.GetID(),
		Owner:         owner,
		Name:          name,
		URL:           repo.GetHTMLURL(),
		Description:   repo.GetDescription(),
		DefaultBranch: repo.GetDefaultBranch(),
	}, nil
}

func contributorFromUser(u *github.User) models.ContributorInput {
	if u == nil || u.GetLogin() == "" {
		return models.ContributorInput{Username: models.UnknownContributor}
	}
	return models.ContributorInput{Username: u.GetLogin(), AvatarURL: u.GetAvatarURL()}
}

func timePtr(ts *github.Timestamp) *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}

// FetchCommits lists every commit of the default branch and hydrates each one
// with its stats. Commits whose detail request fails are skipped.
func (s *GitHubClientService) FetchCommits(ctx context.Context, owner, name string, report progress.Func) ([]models.CommitRecord, error) {
	log := s.log.WithField("repository", owner+"/"+name)
	opts := &github.CommitsListOptions{ListOptions: github.ListOptions{PerPage: perPage}}

	var listed []*github.RepositoryCommit
	for {
		page, resp, err := s.client.Repositories.ListCommits(ctx, owner, name, opts)
		if err != nil {
			return nil, remoteError(err, "could not fetch commits", notFoundHint(owner, name))
		}
		listed = append(listed, page...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	log.Infof("Found %d commits", len(listed))

	records := make([]models.CommitRecord, 0, len(listed))
	for i, c := range listed {
		short := models.ShortSHA(c.GetSHA())
		detail, _, err := s.client.Repositories.GetCommit(ctx, owner, name, c.GetSHA(), nil)
		if err != nil {
			log.WithError(err).WithField("sha", short).Warn("Skipping commit")
		} else {
			records = append(records, commitRecord(detail))
		}
		report.Report(i+1, len(listed), short)
	}
	return records, nil
}

func commitRecord(c *github.RepositoryCommit) models.CommitRecord {
	author := contributorFromUser(c.GetAuthor())
	commitAuthor := c.GetCommit().GetAuthor()
	author.Email = commitAuthor.GetEmail()

	committedAt := time.Now().UTC()
	if commitAuthor != nil && commitAuthor.Date != nil {
		committedAt = commitAuthor.Date.Time
	}

	return models.CommitRecord{
		SHA:          c.GetSHA(),
		Message:      c.GetCommit().GetMessage(),
		Additions:    c.GetStats().GetAdditions(),
		Deletions:    c.GetStats().GetDeletions(),
		FilesChanged: len(c.Files),
		CommittedAt:  committedAt,
		Author:       author,
	}
}

// FetchPullRequests lists pull requests in every state and reads each one in
// full for its line counts, comment counts, merger and approvers.
func (s *GitHubClientService) FetchPullRequests(ctx context.Context, owner, name string, report progress.Func) ([]models.PullRequestRecord, error) {
	log := s.log.WithField("repository", owner+"/"+name)
	opts := &github.PullRequestListOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var listed []*github.PullRequest
	for {
		page, resp, err := s.client.PullRequests.List(ctx, owner, name, opts)
		if err != nil {
			return nil, remoteError(err, "could not fetch pull requests", notFoundHint(owner, name))
		}
		listed = append(listed, page...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	log.Infof("Found %d pull requests", len(listed))

	records := make([]models.PullRequestRecord, 0, len(listed))
	for i, item := range listed {
		label := fmt.Sprintf("#%d", item.GetNumber())
		pr, _, err := s.client.PullRequests.Get(ctx, owner, name, item.GetNumber())
		if err != nil {
			log.WithError(err).WithField("pr", item.GetNumber()).Warn("Skipping pull request")
			report.Report(i+1, len(listed), label)
			continue
		}

		approvers, err := s.fetchApprovers(ctx, owner, name, pr.GetNumber())
		if err != nil {
			log.WithError(err).WithField("pr", pr.GetNumber()).Warn("Could not fetch reviews")
			approvers = []string{}
		}

		records = append(records, pullRequestRecord(pr, approvers))
		report.Report(i+1, len(listed), label)
	}
	return records, nil
}

func pullRequestRecord(pr *github.PullRequest, approvers []string) models.PullRequestRecord {
	rec := models.PullRequestRecord{
		Number:        pr.GetNumber(),
		Title:         pr.GetTitle(),
		Body:          pr.GetBody(),
		State:         pr.GetState(),
		CommentsCount: pr.GetComments() + pr.GetReviewComments(),
		Additions:     pr.GetAdditions(),
		Deletions:     pr.GetDeletions(),
		CreatedAt:     pr.GetCreatedAt().Time,
		MergedAt:      timePtr(pr.MergedAt),
		ClosedAt:      timePtr(pr.ClosedAt),
		Author:        contributorFromUser(pr.GetUser()),
		Approvers:     approvers,
	}
	if pr.MergedBy != nil && pr.MergedBy.GetLogin() != "" {
		mergedBy := contributorFromUser(pr.MergedBy)
		rec.MergedBy = &mergedBy
	}
	return rec
}

// fetchApprovers returns unique reviewer logins of APPROVED reviews in review order
func (s *GitHubClientService) fetchApprovers(ctx context.Context, owner, name string, number int) ([]string, error) {
	approvers := []string{}
	seen := make(map[string]bool)
	opts := &github.ListOptions{PerPage: perPage}
	for {
		reviews, resp, err := s.client.PullRequests.ListReviews(ctx, owner, name, number, opts)
		if err != nil {
			return nil, err
		}
		for _, review := range reviews {
			login := review.GetUser().GetLogin()
			if review.GetState() != "APPROVED" || login == "" || seen[login] {
				continue
			}
			seen[login] = true
			approvers = append(approvers, login)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return approvers, nil
}

// FetchIssues lists issues in every state, dropping the pull requests the
// issues endpoint also returns. The total is unknown until the last page.
func (s *GitHubClientService) FetchIssues(ctx context.Context, owner, name string, report progress.Func) ([]models.IssueRecord, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	records := []models.IssueRecord{}
	for {
		page, resp, err := s.client.Issues.ListByRepo(ctx, owner, name, opts)
		if err != nil {
			return nil, remoteError(err, "could not fetch issues", notFoundHint(owner, name))
		}
		for _, issue := range page {
			if issue.IsPullRequest() {
				continue
			}
			records = append(records, issueRecord(issue))
			report.Report(len(records), progress.Unknown, fmt.Sprintf("#%d", issue.GetNumber()))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if len(records) > 0 {
		report.Report(len(records), len(records), "issues")
	}
	s.log.WithField("repository", owner+"/"+name).Infof("Found %d issues", len(records))
	return records, nil
}

func issueRecord(issue *github.Issue) models.IssueRecord {
	assignees := make([]string, 0, len(issue.Assignees))
	for _, a := range issue.Assignees {
		assignees = append(assignees, a.GetLogin())
	}
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	return models.IssueRecord{
		Number:        issue.GetNumber(),
		Title:         issue.GetTitle(),
		Body:          issue.GetBody(),
		State:         issue.GetState(),
		Assignees:     assignees,
		Labels:        labels,
		CommentsCount: issue.GetComments(),
		CreatedAt:     issue.GetCreatedAt().Time,
		ClosedAt:      timePtr(issue.ClosedAt),
		Author:        contributorFromUser(issue.GetUser()),
	}
}

// FetchAllPRComments returns conversation and review comments for every number.
// A pull request whose comments cannot be fetched maps to an empty list.
func (s *GitHubClientService) FetchAllPRComments(ctx context.Context, owner, name string, numbers []int, report progress.Func) map[int][]models.CommentRecord {
	return s.fetchCommentBatch(ctx, "pr_comments", numbers, report, func(ctx context.Context, number int) ([]models.CommentRecord, error) {
		comments, err := s.listIssueComments(ctx, owner, name, number)
		if err != nil {
			return nil, err
		}
		reviewComments, err := s.listReviewComments(ctx, owner, name, number)
		if err != nil {
			return nil, err
		}
		return append(comments, reviewComments...), nil
	})
}

// FetchAllIssueComments returns the comments of every issue number.
// An issue whose comments cannot be fetched maps to an empty list.
func (s *GitHubClientService) FetchAllIssueComments(ctx context.Context, owner, name string, numbers []int, report progress.Func) map[int][]models.CommentRecord {
	return s.fetchCommentBatch(ctx, "issue_comments", numbers, report, func(ctx context.Context, number int) ([]models.CommentRecord, error) {
		return s.listIssueComments(ctx, owner, name, number)
	})
}

func (s *GitHubClientService) fetchCommentBatch(
	ctx context.Context,
	batch string,
	numbers []int,
	report progress.Func,
	fetch func(ctx context.Context, number int) ([]models.CommentRecord, error),
) map[int][]models.CommentRecord {
	var mu sync.Mutex
	out := make(map[int][]models.CommentRecord, len(numbers))
	for _, n := range numbers {
		out[n] = []models.CommentRecord{}
	}

	_, _ = pool.Run(ctx, numbers, numberLabel, pool.Options{
		Name:       batch,
		MaxWorkers: commentWorkers,
		Progress:   report,
	}, func(ctx context.Context, number int) error {
		comments, err := fetch(ctx, number)
		if err != nil {
			return err
		}
		mu.Lock()
		out[number] = comments
		mu.Unlock()
		return nil
	})
	return out
}

func numberLabel(n int) string {
	return fmt.Sprintf("#%d", n)
}

func (s *GitHubClientService) listIssueComments(ctx context.Context, owner, name string, number int) ([]models.CommentRecord, error) {
	records := []models.CommentRecord{}
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: perPage}}
	for {
		comments, resp, err := s.client.Issues.ListComments(ctx, owner, name, number, opts)
		if err != nil {
			return nil, remoteError(err, fmt.Sprintf("could not fetch comments for #%d", number), "")
		}
		for _, c := range comments {
			records = append(records, models.CommentRecord{
				CommentID:   c.GetID(),
				CommentType: models.CommentTypeIssue,
				Body:        c.GetBody(),
				CreatedAt:   c.GetCreatedAt().Time,
				Author:      contributorFromUser(c.GetUser()),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return records, nil
}

func (s *GitHubClientService) listReviewComments(ctx context.Context, owner, name string, number int) ([]models.CommentRecord, error) {
	records := []models.CommentRecord{}
	opts := &github.PullRequestListCommentsOptions{ListOptions: github.ListOptions{PerPage: perPage}}
	for {
		comments, resp, err := s.client.PullRequests.ListComments(ctx, owner, name, number, opts)
		if err != nil {
			return nil, remoteError(err, fmt.Sprintf("could not fetch review comments for #%d", number), "")
		}
		for _, c := range comments {
			records = append(records, models.CommentRecord{
				CommentID:   c.GetID(),
				CommentType: models.CommentTypeReview,
				Body:        c.GetBody(),
				CreatedAt:   c.GetCreatedAt().Time,
				Author:      contributorFromUser(c.GetUser()),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return records, nil
}

// CheckRateLimit reports the remaining core and search quota
func (s *GitHubClientService) CheckRateLimit(ctx context.Context) (*models.RateLimitStatus, error) {
	limits, _, err := s.client.RateLimits(ctx)
	if err != nil {
		return nil, remoteError(err, "could not read rate limit", "")
	}

	status := &models.RateLimitStatus{}
	if core := limits.GetCore(); core != nil {
		status.CoreRemaining = core.Remaining
		status.CoreLimit = core.Limit
		status.CoreReset = core.Reset.Time
	}
	if search := limits.GetSearch(); search != nil {
		status.SearchRemaining = search.Remaining
		status.SearchLimit = search.Limit
		status.SearchReset = search.Reset.Time
	}
	return status, nil
}
