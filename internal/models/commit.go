package models

import (
	"time"
)

// Commit is immutable once stored; the sha is unique across all repositories
type Commit struct {
	ID            int64     `json:"id"`
	RepoID        int64     `json:"repo_id"`
	ContributorID *int64    `json:"contributor_id"`
	SHA           string    `json:"sha"`
	Message       string    `json:"message"`
	Additions     int       `json:"additions"`
	Deletions     int       `json:"deletions"`
	FilesChanged  int       `json:"files_changed"`
	CommittedAt   time.Time `json:"committed_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// ShortSHA returns the first seven characters of the sha
func (c *Commit) ShortSHA() string {
	return ShortSHA(c.SHA)
}

func ShortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
