package models

import "time"

// UnknownContributor is used when the remote author has no login
const UnknownContributor = "unknown"

// Contributor is a GitHub user referenced by commits, pull requests, issues or comments
type Contributor struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     *string   `json:"email"`
	AvatarURL *string   `json:"avatar_url"`
	FirstSeen time.Time `json:"first_seen"`
}

// ContributorInput is the author data carried by a fetched record
type ContributorInput struct {
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
