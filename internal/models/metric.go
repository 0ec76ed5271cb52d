package models

import "time"

// CommitMetric holds the message quality score of a single commit
type CommitMetric struct {
	ID           int64     `json:"id"`
	CommitID     int64     `json:"commit_id"`
	QualityScore float64   `json:"quality_score"`
	Feedback     string    `json:"feedback"`
	CalculatedAt time.Time `json:"calculated_at"`
}

// PRMetric holds the description quality score of a pull request
type PRMetric struct {
	ID               int64     `json:"id"`
	PRID             int64     `json:"pr_id"`
	QualityScore     float64   `json:"quality_score"`
	Feedback         string    `json:"feedback"`
	LinkedToIssue    bool      `json:"linked_to_issue"`
	AvgCommentLength float64   `json:"avg_comment_length"`
	CalculatedAt     time.Time `json:"calculated_at"`
}

// IssueMetric holds the description quality score of an issue
type IssueMetric struct {
	ID           int64     `json:"id"`
	IssueID      int64     `json:"issue_id"`
	QualityScore float64   `json:"quality_score"`
	Feedback     string    `json:"feedback"`
	CalculatedAt time.Time `json:"calculated_at"`
}
