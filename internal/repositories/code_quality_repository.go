package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/database"
)

type CodeQualityRepository struct {
	db *database.DB
}

func NewCodeQualityRepository(db *database.DB) *CodeQualityRepository {
	return &CodeQualityRepository{db: db}
}

// Upsert replaces the stored code quality metrics of m.RepoID
func (r *CodeQualityRepository) Upsert(ctx context.Context, m *models.CodeQualityMetric) error {
	suggestions := m.ImprovementSuggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	suggestionsJSON, err := encodeJSON(suggestions)
	if err != nil {
		return fmt.Errorf("failed to encode suggestions: %w", err)
	}
	details := m.FileQualityDetails
	if details == nil {
		details = []models.FileQuality{}
	}
	detailsJSON, err := encodeJSON(details)
	if err != nil {
		return fmt.Errorf("failed to encode file quality details: %w", err)
	}
	if m.AnalyzedAt.IsZero() {
		m.AnalyzedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO code_quality_metrics (
			repo_id, avg_complexity, complexity_grade, maintainability_index, maintainability_grade,
			lint_errors, lint_warnings, lint_conventions, lint_refactors, lint_score, lint_message,
			code_smells_count, high_complexity_functions, total_functions, files_analyzed, primary_files_count,
			has_tests, coverage_percent, coverage_message,
			quality_summary, improvement_suggestions, best_practices_score, file_quality_details, analyzed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id) DO UPDATE SET
			avg_complexity = excluded.avg_complexity,
			complexity_grade = excluded.complexity_grade,
			maintainability_index = excluded.maintainability_index,
			maintainability_grade = excluded.maintainability_grade,
			lint_errors = excluded.lint_errors,
			lint_warnings = excluded.lint_warnings,
			lint_conventions = excluded.lint_conventions,
			lint_refactors = excluded.lint_refactors,
			lint_score = excluded.lint_score,
			lint_message = excluded.lint_message,
			code_smells_count = excluded.code_smells_count,
			high_complexity_functions = excluded.high_complexity_functions,
			total_functions = excluded.total_functions,
			files_analyzed = excluded.files_analyzed,
			primary_files_count = excluded.primary_files_count,
			has_tests = excluded.has_tests,
			coverage_percent = excluded.coverage_percent,
			coverage_message = excluded.coverage_message,
			quality_summary = excluded.quality_summary,
			improvement_suggestions = excluded.improvement_suggestions,
			best_practices_score = excluded.best_practices_score,
			file_quality_details = excluded.file_quality_details,
			analyzed_at = excluded.analyzed_at
	`
	_, err = r.db.ExecContext(ctx, query,
		m.RepoID, m.AvgComplexity, m.ComplexityGrade, m.MaintainabilityIndex, m.MaintainabilityGrade,
		m.LintErrors, m.LintWarnings, m.LintConventions, m.LintRefactors, m.LintScore, m.LintMessage,
		m.CodeSmellsCount, m.HighComplexityFunctions, m.TotalFunctions, m.FilesAnalyzed, m.PrimaryFilesCount,
		m.HasTests, m.CoveragePercent, m.CoverageMessage,
		m.QualitySummary, suggestionsJSON, m.BestPracticesScore, detailsJSON, m.AnalyzedAt.UTC(),
	)
	return err
}

// GetByRepositoryID returns sql.ErrNoRows when no quality analysis is stored
func (r *CodeQualityRepository) GetByRepositoryID(ctx context.Context, repoID int64) (*models.CodeQualityMetric, error) {
	var (
		m               models.CodeQualityMetric
		lintMessage     sql.NullString
		coverageMessage sql.NullString
		summary         sql.NullString
		suggestions     sql.NullString
		details         sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, repo_id, avg_complexity, complexity_grade, maintainability_index, maintainability_grade,
			lint_errors, lint_warnings, lint_conventions, lint_refactors, lint_score, lint_message,
			code_smells_count, high_complexity_functions, total_functions, files_analyzed, primary_files_count,
			has_tests, coverage_percent, coverage_message,
			quality_summary, improvement_suggestions, best_practices_score, file_quality_details, analyzed_at
		FROM code_quality_metrics WHERE repo_id = ?`, repoID,
	).Scan(
		&m.ID, &m.RepoID, &m.AvgComplexity, &m.ComplexityGrade, &m.MaintainabilityIndex, &m.MaintainabilityGrade,
		&m.LintErrors, &m.LintWarnings, &m.LintConventions, &m.LintRefactors, &m.LintScore, &lintMessage,
		&m.CodeSmellsCount, &m.HighComplexityFunctions, &m.TotalFunctions, &m.FilesAnalyzed, &m.PrimaryFilesCount,
		&m.HasTests, &m.CoveragePercent, &coverageMessage,
		&summary, &suggestions, &m.BestPracticesScore, &details, &m.AnalyzedAt,
	)
	if err != nil {
		return nil, err
	}

	m.LintMessage = lintMessage.String
	m.CoverageMessage = coverageMessage.String
	m.QualitySummary = summary.String
	m.ImprovementSuggestions = []string{}
	m.FileQualityDetails = []models.FileQuality{}
	if err := decodeJSON(suggestions, &m.ImprovementSuggestions); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions: %w", err)
	}
	if err := decodeJSON(details, &m.FileQualityDetails); err != nil {
		return nil, fmt.Errorf("failed to decode file quality details: %w", err)
	}
	return &m, nil
}
