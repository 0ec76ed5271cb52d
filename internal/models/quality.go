package models

// QualityKind selects the rubric used to score a text artifact
type QualityKind string

const (
	QualityKindCommitMessage    QualityKind = "commit-message"
	QualityKindPRDescription    QualityKind = "pr-description"
	QualityKindIssueDescription QualityKind = "issue-description"
)

// NeutralScore is returned whenever scoring cannot produce a real value
const NeutralScore = 5.0

// QualityResult is always populated, degraded results carry the error in Feedback
type QualityResult struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// InsightsInput is the numeric summary submitted for repository-level insights
type InsightsInput struct {
	PrimaryLanguage         string   `json:"primary_language"`
	PrimaryFilesCount       int      `json:"primary_files_count"`
	TotalFiles              int      `json:"total_files"`
	TotalLines              int64    `json:"total_lines"`
	AvgComplexity           float64  `json:"avg_complexity"`
	HighComplexityFunctions int      `json:"high_complexity_functions"`
	MaintainabilityIndex    float64  `json:"maintainability_index"`
	LintScore               float64  `json:"lint_score"`
	LintIssues              int      `json:"lint_issues"`
	CoveragePercent         *float64 `json:"coverage_percent"`
}

// Insights is the free-text summary returned for a repository
type Insights struct {
	Summary     string   `json:"summary"`
	Suggestions []string `json:"suggestions"`
	Score       float64  `json:"score"`
}
