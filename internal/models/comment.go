package models

import "time"

// Comment types stored on pull request comments
const (
	CommentTypeIssue  = "issue"
	CommentTypeReview = "review"
)

type PRComment struct {
	ID            int64     `json:"id"`
	PRID          int64     `json:"pr_id"`
	ContributorID int64     `json:"contributor_id"`
	CommentID     int64     `json:"comment_id"`
	CommentType   string    `json:"comment_type"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"created_at"`
}

type IssueComment struct {
	ID            int64     `json:"id"`
	IssueID       int64     `json:"issue_id"`
	ContributorID int64     `json:"contributor_id"`
	CommentID     int64     `json:"comment_id"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"created_at"`
}
