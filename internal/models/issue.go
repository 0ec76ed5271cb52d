package models

import "time"

// Issue is unique per (repository, number); pull requests are never stored here
type Issue struct {
	ID            int64      `json:"id"`
	RepoID        int64      `json:"repo_id"`
	ContributorID *int64     `json:"contributor_id"`
	Number        int        `json:"issue_number"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	State         string     `json:"state"`
	Assignees     []string   `json:"assignees"`
	Labels        []string   `json:"labels"`
	CommentsCount int        `json:"comments_count"`
	CreatedAt     time.Time  `json:"created_at"`
	ClosedAt      *time.Time `json:"closed_at"`
}
