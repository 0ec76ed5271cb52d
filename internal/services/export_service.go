package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/repositories"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Export formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatXLSX = "xlsx"
)

// QualitySummary is the exported subset of a code quality metric
type QualitySummary struct {
	AvgComplexity           float64  `json:"avg_complexity" yaml:"avg_complexity"`
	ComplexityGrade         string   `json:"complexity_grade" yaml:"complexity_grade"`
	MaintainabilityIndex    float64  `json:"maintainability_index" yaml:"maintainability_index"`
	MaintainabilityGrade    string   `json:"maintainability_grade" yaml:"maintainability_grade"`
	LintScore               float64  `json:"lint_score" yaml:"lint_score"`
	CodeSmells              int      `json:"code_smells" yaml:"code_smells"`
	HighComplexityFunctions int      `json:"high_complexity_functions" yaml:"high_complexity_functions"`
	TotalFunctions          int      `json:"total_functions" yaml:"total_functions"`
	HasTests                bool     `json:"has_tests" yaml:"has_tests"`
	CoveragePercent         *float64 `json:"coverage_percent" yaml:"coverage_percent"`
	Summary                 string   `json:"summary" yaml:"summary"`
	Suggestions             []string `json:"suggestions" yaml:"suggestions"`
	BestPracticesScore      float64  `json:"best_practices_score" yaml:"best_practices_score"`
}

// Report gathers every aggregate of one repository
type Report struct {
	Overview     *models.RepositoryOverview `json:"overview" yaml:"overview"`
	Commits      *models.CommitStatistics   `json:"commits" yaml:"commits"`
	PullRequests *models.PRStatistics       `json:"pull_requests" yaml:"pull_requests"`
	Issues       *models.IssueStatistics    `json:"issues" yaml:"issues"`
	Contributors []*models.ContributorStats `json:"contributors" yaml:"contributors"`
	Languages    []models.LanguageShare     `json:"languages" yaml:"languages"`
	LargestFiles []models.FileInfo          `json:"largest_files" yaml:"largest_files"`
	Quality      *QualitySummary            `json:"quality,omitempty" yaml:"quality,omitempty"`
	GeneratedAt  time.Time                  `json:"generated_at" yaml:"generated_at"`
}

// ExportService builds repository reports and writes them out
type ExportService struct {
	statsRepo   *repositories.StatisticsRepository
	contentRepo *repositories.RepositoryContentRepository
	qualityRepo *repositories.CodeQualityRepository
}

func NewExportService(
	statsRepo *repositories.StatisticsRepository,
	contentRepo *repositories.RepositoryContentRepository,
	qualityRepo *repositories.CodeQualityRepository,
) *ExportService {
	return &ExportService{
		statsRepo:   statsRepo,
		contentRepo: contentRepo,
		qualityRepo: qualityRepo,
	}
}

// BuildReport reads every aggregate of repoID. Content and quality are
// optional since the content stage may have been skipped.
func (s *ExportService) BuildReport(ctx context.Context, repoID int64) (*Report, error) {
	overview, err := s.statsRepo.RepositoryOverview(ctx, repoID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Overview:     overview,
		Languages:    []models.LanguageShare{},
		LargestFiles: []models.FileInfo{},
		GeneratedAt:  time.Now().UTC(),
	}
	if report.Commits, err = s.statsRepo.CommitStatistics(ctx, repoID); err != nil {
		return nil, fmt.Errorf("failed to get commit statistics: %w", err)
	}
	if report.PullRequests, err = s.statsRepo.PRStatistics(ctx, repoID); err != nil {
		return nil, fmt.Errorf("failed to get pull request statistics: %w", err)
	}
	if report.Issues, err = s.statsRepo.IssueStatistics(ctx, repoID); err != nil {
		return nil, fmt.Errorf("failed to get issue statistics: %w", err)
	}
	if report.Contributors, err = s.statsRepo.ContributorStats(ctx, repoID); err != nil {
		return nil, fmt.Errorf("failed to get contributor statistics: %w", err)
	}

	content, err := s.contentRepo.GetByRepositoryID(ctx, repoID)
	switch {
	case err == nil:
		report.Languages = content.LanguagePercentages()
		report.LargestFiles = content.LargestFiles
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to get repository content: %w", err)
	}

	quality, err := s.qualityRepo.GetByRepositoryID(ctx, repoID)
	switch {
	case err == nil:
		report.Quality = &QualitySummary{
			AvgComplexity:           quality.AvgComplexity,
			ComplexityGrade:         quality.ComplexityGrade,
			MaintainabilityIndex:    quality.MaintainabilityIndex,
			MaintainabilityGrade:    quality.MaintainabilityGrade,
			LintScore:               quality.LintScore,
			CodeSmells:              quality.CodeSmellsCount,
			HighComplexityFunctions: quality.HighComplexityFunctions,
			TotalFunctions:          quality.TotalFunctions,
			HasTests:                quality.HasTests,
			CoveragePercent:         quality.CoveragePercent,
			Summary:                 quality.QualitySummary,
			Suggestions:             quality.ImprovementSuggestions,
			BestPracticesScore:      quality.BestPracticesScore,
		}
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to get code quality: %w", err)
	}

	return report, nil
}

// Write encodes report in format to w
func (s *ExportService) Write(w io.Writer, report *Report, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case FormatXLSX:
		return writeWorkbook(w, report)
	}
	return fmt.Errorf("%w: unsupported format: %s", models.ErrInvalidInput, format)
}

func writeWorkbook(w io.Writer, report *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	const overview = "Overview"
	if err := f.SetSheetName("Sheet1", overview); err != nil {
		return err
	}

	lastAnalyzed := ""
	if report.Overview.LastAnalyzed != nil {
		lastAnalyzed = report.Overview.LastAnalyzed.Format(time.RFC3339)
	}
	rows := [][]interface{}{
		{"Repository", report.Overview.Name},
		{"URL", report.Overview.URL},
		{"Last analyzed", lastAnalyzed},
		{"Contributors", report.Overview.TotalContributors},
		{"Commits", report.Commits.TotalCommits},
		{"Commit additions", report.Commits.TotalAdditions},
		{"Commit deletions", report.Commits.TotalDeletions},
		{"Avg changes per commit", report.Commits.AvgChangesPerCommit},
		{"Pull requests", report.PullRequests.TotalPRs},
		{"Avg PR comments", report.PullRequests.AvgComments},
		{"Avg PR quality", floatOrEmpty(report.PullRequests.AvgQualityScore)},
		{"PRs linked to issues (%)", report.PullRequests.PercentageLinked},
		{"Issues", report.Issues.TotalIssues},
		{"Open issues", report.Issues.OpenIssues},
		{"Closed issues", report.Issues.ClosedIssues},
		{"Avg issue quality", floatOrEmpty(report.Issues.AvgQualityScore)},
	}
	if q := report.Quality; q != nil {
		rows = append(rows,
			[]interface{}{"Complexity", fmt.Sprintf("%.2f (%s)", q.AvgComplexity, q.ComplexityGrade)},
			[]interface{}{"Maintainability", fmt.Sprintf("%.2f (%s)", q.MaintainabilityIndex, q.MaintainabilityGrade)},
			[]interface{}{"Lint score", q.LintScore},
			[]interface{}{"Code smells", q.CodeSmells},
			[]interface{}{"Coverage (%)", floatOrEmpty(q.CoveragePercent)},
		)
	}
	if err := writeRows(f, overview, rows); err != nil {
		return err
	}

	contributors := [][]interface{}{{
		"Username", "Commits", "Additions", "Deletions", "PRs", "Avg PR quality",
		"Issues", "Avg issue quality", "PR comments", "Issue comments",
	}}
	for _, c := range report.Contributors {
		contributors = append(contributors, []interface{}{
			c.Username, c.CommitCount, c.TotalAdditions, c.TotalDeletions, c.PRCount, floatOrEmpty(c.AvgPRQuality),
			c.IssueCount, floatOrEmpty(c.AvgIssueQuality), c.PRCommentCount, c.IssueCommentCount,
		})
	}
	if err := writeSheet(f, "Contributors", contributors); err != nil {
		return err
	}

	languages := [][]interface{}{{"Language", "Files", "Lines", "Percentage"}}
	for _, l := range report.Languages {
		languages = append(languages, []interface{}{l.Language, l.Files, l.Lines, l.Percentage})
	}
	if err := writeSheet(f, "Languages", languages); err != nil {
		return err
	}

	files := [][]interface{}{{"Path", "Language", "Lines", "Size"}}
	for _, file := range report.LargestFiles {
		files = append(files, []interface{}{file.Path, file.Language, file.Lines, file.Size})
	}
	if err := writeSheet(f, "Largest Files", files); err != nil {
		return err
	}

	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func floatOrEmpty(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
