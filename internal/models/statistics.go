package models

import "time"

// CommitStatistics aggregates all commits of a repository
type CommitStatistics struct {
	TotalCommits        int     `json:"total_commits" yaml:"total_commits"`
	TotalAdditions      int64   `json:"total_additions" yaml:"total_additions"`
	TotalDeletions      int64   `json:"total_deletions" yaml:"total_deletions"`
	AvgChangesPerCommit float64 `json:"avg_changes_per_commit" yaml:"avg_changes_per_commit"`
}

// PRStatistics aggregates all pull requests of a repository.
// AvgQualityScore is nil when no pull request has been scored.
type PRStatistics struct {
	TotalPRs         int      `json:"total_prs" yaml:"total_prs"`
	TotalAdditions   int64    `json:"total_additions" yaml:"total_additions"`
	TotalDeletions   int64    `json:"total_deletions" yaml:"total_deletions"`
	AvgComments      float64  `json:"avg_comments" yaml:"avg_comments"`
	AvgQualityScore  *float64 `json:"avg_quality_score" yaml:"avg_quality_score"`
	PRsWithIssues    int      `json:"prs_with_issues" yaml:"prs_with_issues"`
	PercentageLinked float64  `json:"percentage_linked" yaml:"percentage_linked"`
}

// IssueStatistics aggregates all issues of a repository
type IssueStatistics struct {
	TotalIssues     int      `json:"total_issues" yaml:"total_issues"`
	OpenIssues      int      `json:"open_issues" yaml:"open_issues"`
	ClosedIssues    int      `json:"closed_issues" yaml:"closed_issues"`
	AvgComments     float64  `json:"avg_comments" yaml:"avg_comments"`
	AvgQualityScore *float64 `json:"avg_quality_score" yaml:"avg_quality_score"`
}

// ContributorStats is one row of the per-repository contributor table
type ContributorStats struct {
	Username          string   `json:"username" yaml:"username"`
	AvatarURL         *string  `json:"avatar_url" yaml:"avatar_url"`
	CommitCount       int      `json:"commit_count" yaml:"commit_count"`
	TotalAdditions    int64    `json:"total_additions" yaml:"total_additions"`
	TotalDeletions    int64    `json:"total_deletions" yaml:"total_deletions"`
	PRCount           int      `json:"pr_count" yaml:"pr_count"`
	AvgPRQuality      *float64 `json:"avg_pr_quality" yaml:"avg_pr_quality"`
	IssueCount        int      `json:"issue_count" yaml:"issue_count"`
	AvgIssueQuality   *float64 `json:"avg_issue_quality" yaml:"avg_issue_quality"`
	PRCommentCount    int      `json:"pr_comment_count" yaml:"pr_comment_count"`
	IssueCommentCount int      `json:"issue_comment_count" yaml:"issue_comment_count"`
}

// RepositoryOverview is the headline summary of a repository
type RepositoryOverview struct {
	Name              string     `json:"name" yaml:"name"`
	URL               string     `json:"url" yaml:"url"`
	LastAnalyzed      *time.Time `json:"last_analyzed" yaml:"last_analyzed"`
	TotalCommits      int        `json:"total_commits" yaml:"total_commits"`
	TotalPRs          int        `json:"total_prs" yaml:"total_prs"`
	TotalIssues       int        `json:"total_issues" yaml:"total_issues"`
	TotalContributors int        `json:"total_contributors" yaml:"total_contributors"`
}
