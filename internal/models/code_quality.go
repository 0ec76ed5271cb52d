package models

import "time"

// CodeQualityMetric is stored once per repository and replaced on each analysis
type CodeQualityMetric struct {
	ID                      int64         `json:"id"`
	RepoID                  int64         `json:"repo_id"`
	AvgComplexity           float64       `json:"avg_complexity"`
	ComplexityGrade         string        `json:"complexity_grade"`
	MaintainabilityIndex    float64       `json:"maintainability_index"`
	MaintainabilityGrade    string        `json:"maintainability_grade"`
	LintErrors              int           `json:"lint_errors"`
	LintWarnings            int           `json:"lint_warnings"`
	LintConventions         int           `json:"lint_conventions"`
	LintRefactors           int           `json:"lint_refactors"`
	LintScore               float64       `json:"lint_score"`
	LintMessage             string        `json:"lint_message"`
	CodeSmellsCount         int           `json:"code_smells_count"`
	HighComplexityFunctions int           `json:"high_complexity_functions"`
	TotalFunctions          int           `json:"total_functions"`
	FilesAnalyzed           int           `json:"files_analyzed"`
	PrimaryFilesCount       int           `json:"primary_files_count"`
	HasTests                bool          `json:"has_tests"`
	CoveragePercent         *float64      `json:"coverage_percent"`
	CoverageMessage         string        `json:"coverage_message"`
	QualitySummary          string        `json:"quality_summary"`
	ImprovementSuggestions  []string      `json:"improvement_suggestions"`
	BestPracticesScore      float64       `json:"best_practices_score"`
	FileQualityDetails      []FileQuality `json:"file_quality_details"`
	AnalyzedAt              time.Time     `json:"analyzed_at"`
}

// FileQuality is the per-file breakdown kept alongside the aggregate metric
type FileQuality struct {
	Path                 string  `json:"path"`
	Language             string  `json:"language"`
	Functions            int     `json:"functions"`
	AvgComplexity        float64 `json:"avg_complexity"`
	MaxComplexity        int     `json:"max_complexity"`
	MaintainabilityIndex float64 `json:"maintainability_index"`
}
