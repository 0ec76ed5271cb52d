package models

import (
	"time"
)

// GitHubRepository is an analyzed repository, keyed by its remote numeric id
type GitHubRepository struct {
	ID           int64      `json:"id"`
	GithubID     int64      `json:"github_id"`
	Owner        string     `json:"owner"`
	Name         string     `json:"name"`
	URL          string     `json:"url"`
	Description  *string    `json:"description"`
	LastAnalyzed *time.Time `json:"last_analyzed"`
	CreatedAt    time.Time  `json:"created_at"`
}

// FullName returns owner/name
func (r *GitHubRepository) FullName() string {
	return r.Owner + "/" + r.Name
}
