package models

import (
	"time"
)

// PullRequest is unique per (repository, number) and overwritten on every analysis
type PullRequest struct {
	ID            int64      `json:"id"`
	RepoID        int64      `json:"repo_id"`
	ContributorID *int64     `json:"contributor_id"`
	MergedByID    *int64     `json:"merged_by_id"`
	Number        int        `json:"pr_number"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	State         string     `json:"state"`
	CommentsCount int        `json:"comments_count"` // issue comments + review comments
	Additions     int        `json:"additions"`
	Deletions     int        `json:"deletions"`
	CreatedAt     time.Time  `json:"created_at"`
	MergedAt      *time.Time `json:"merged_at"`
	ClosedAt      *time.Time `json:"closed_at"`
	Approvers     []string   `json:"approvers"`
}
