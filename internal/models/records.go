package models

import "time"

// Records below are produced by the GitHub client and consumed by the analyzers.
// They are decoupled from the go-github wire types.

type RepositoryInfo struct {
	GithubID      int64  `json:"github_id"`
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	Description   string `json:"description"`
	DefaultBranch string `json:"default_branch"`
}

type CommitRecord struct {
	SHA          string           `json:"sha"`
	Message      string           `json:"message"`
	Additions    int              `json:"additions"`
	Deletions    int              `json:"deletions"`
	FilesChanged int              `json:"files_changed"`
	CommittedAt  time.Time        `json:"committed_at"`
	Author       ContributorInput `json:"contributor"`
}

type PullRequestRecord struct {
	Number        int               `json:"pr_number"`
	Title         string            `json:"title"`
	Body          string            `json:"body"`
	State         string            `json:"state"`
	CommentsCount int               `json:"comments_count"`
	Additions     int               `json:"additions"`
	Deletions     int               `json:"deletions"`
	CreatedAt     time.Time         `json:"created_at"`
	MergedAt      *time.Time        `json:"merged_at"`
	ClosedAt      *time.Time        `json:"closed_at"`
	Author        ContributorInput  `json:"contributor"`
	MergedBy      *ContributorInput `json:"merged_by"`
	Approvers     []string          `json:"approvers"`
}

type IssueRecord struct {
	Number        int              `json:"issue_number"`
	Title         string           `json:"title"`
	Body          string           `json:"body"`
	State         string           `json:"state"`
	Assignees     []string         `json:"assignees"`
	Labels        []string         `json:"labels"`
	CommentsCount int              `json:"comments_count"`
	CreatedAt     time.Time        `json:"created_at"`
	ClosedAt      *time.Time       `json:"closed_at"`
	Author        ContributorInput `json:"contributor"`
}

type CommentRecord struct {
	CommentID   int64            `json:"comment_id"`
	CommentType string           `json:"comment_type"`
	Body        string           `json:"body"`
	CreatedAt   time.Time        `json:"created_at"`
	Author      ContributorInput `json:"contributor"`
}

type RateLimitStatus struct {
	CoreRemaining   int       `json:"core_remaining"`
	CoreLimit       int       `json:"core_limit"`
	CoreReset       time.Time `json:"core_reset"`
	SearchRemaining int       `json:"search_remaining"`
	SearchLimit     int       `json:"search_limit"`
	SearchReset     time.Time `json:"search_reset"`
}
