package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alimgiray/repolens/internal/codequality"
	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/internal/progress"
	"github.com/alimgiray/repolens/internal/repositories"
	"github.com/alimgiray/repolens/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	largestFilesLimit = 10
	noExtensionKey    = "no_extension"
	contentSteps      = 4
)

// Error kinds recorded on AnalysisResult
const (
	AnalysisErrorClone   = "clone"
	AnalysisErrorWalk    = "walk"
	AnalysisErrorPersist = "persist"
)

// Cloner produces a local checkout and a cleanup func for it
type Cloner interface {
	ShallowClone(ctx context.Context, repoURL string) (string, func(), error)
}

// AnalysisResult is the outcome of the content stage. Failures are reported
// through Error and ErrorKind instead of aborting the run.
type AnalysisResult struct {
	Content   *models.RepositoryContent `json:"content,omitempty"`
	Quality   *models.CodeQualityMetric `json:"quality,omitempty"`
	Error     string                    `json:"error,omitempty"`
	ErrorKind string                    `json:"error_kind,omitempty"`
}

func (r *AnalysisResult) fail(kind string, err error) *AnalysisResult {
	r.ErrorKind = kind
	r.Error = err.Error()
	return r
}

// RepositoryAnalysisService measures a snapshot of the source tree
type RepositoryAnalysisService struct {
	cloner      Cloner
	analyzer    *codequality.Analyzer
	scorer      TextScorer
	contentRepo *repositories.RepositoryContentRepository
	qualityRepo *repositories.CodeQualityRepository
	log         *logrus.Entry
}

func NewRepositoryAnalysisService(
	cloner Cloner,
	analyzer *codequality.Analyzer,
	scorer TextScorer,
	contentRepo *repositories.RepositoryContentRepository,
	qualityRepo *repositories.CodeQualityRepository,
) *RepositoryAnalysisService {
	return &RepositoryAnalysisService{
		cloner:      cloner,
		analyzer:    analyzer,
		scorer:      scorer,
		contentRepo: contentRepo,
		qualityRepo: qualityRepo,
		log:         logger.ForComponent("content"),
	}
}

// AnalyzeRepository clones repoURL, measures it and stores the results.
// The clone is removed before returning.
func (s *RepositoryAnalysisService) AnalyzeRepository(ctx context.Context, repoID int64, repoURL string, report progress.Func) *AnalysisResult {
	report.Report(0, contentSteps, "clone")
	dir, cleanup, err := s.cloner.ShallowClone(ctx, repoURL)
	defer cleanup()
	if err != nil {
		s.log.WithError(err).WithField("url", repoURL).Warn("Clone failed")
		kind := AnalysisErrorClone
		var cloneErr *models.CloneError
		if errors.As(err, &cloneErr) {
			kind = string(cloneErr.Kind)
		}
		return (&AnalysisResult{}).fail(kind, err)
	}
	report.Report(1, contentSteps, "clone")

	return s.AnalyzeDirectory(ctx, repoID, dir, func(completed, total int, label string) {
		report.Report(completed+1, contentSteps, label)
	})
}

// AnalyzeDirectory measures an existing checkout at root
func (s *RepositoryAnalysisService) AnalyzeDirectory(ctx context.Context, repoID int64, root string, report progress.Func) *AnalysisResult {
	result := &AnalysisResult{}
	log := s.log.WithField("repo_id", repoID)

	content, byLanguage, err := ScanTree(root)
	if err != nil {
		log.WithError(err).Warn("Tree walk failed")
		return result.fail(AnalysisErrorWalk, err)
	}
	content.RepoID = repoID
	result.Content = content
	report.Report(1, contentSteps-1, "scan")
	log.Infof("Analyzed %d files with %d total lines", content.TotalFiles, content.TotalLines)

	quality := s.measureQuality(ctx, root, content, byLanguage)
	quality.RepoID = repoID
	result.Quality = quality
	report.Report(2, contentSteps-1, "quality")

	if err := s.contentRepo.Upsert(ctx, content); err != nil {
		return result.fail(AnalysisErrorPersist, fmt.Errorf("failed to save repository content: %w", err))
	}
	if err := s.qualityRepo.Upsert(ctx, quality); err != nil {
		return result.fail(AnalysisErrorPersist, fmt.Errorf("failed to save code quality: %w", err))
	}
	report.Report(3, contentSteps-1, "saved")
	return result
}

func (s *RepositoryAnalysisService) measureQuality(ctx context.Context, root string, content *models.RepositoryContent, byLanguage map[string][]string) *models.CodeQualityMetric {
	now := time.Now().UTC()
	language := codequality.PrimaryLanguage(content.LanguageBreakdown)
	if language == "" {
		return &models.CodeQualityMetric{
			ComplexityGrade:        "N/A",
			MaintainabilityGrade:   "N/A",
			LintScore:              0,
			LintMessage:            "No supported source files found",
			CoverageMessage:        "No supported source files found",
			QualitySummary:         "No Python files found for quality analysis",
			ImprovementSuggestions: []string{},
			FileQualityDetails:     []models.FileQuality{},
			AnalyzedAt:             now,
		}
	}

	res := s.analyzer.Analyze(ctx, root, language, byLanguage[language])
	metric := &models.CodeQualityMetric{
		AvgComplexity:           res.AvgComplexity,
		ComplexityGrade:         res.ComplexityGrade,
		MaintainabilityIndex:    res.MaintainabilityIndex,
		MaintainabilityGrade:    res.MaintainabilityGrade,
		CodeSmellsCount:         res.CodeSmells,
		HighComplexityFunctions: res.HighComplexityFunctions,
		TotalFunctions:          res.TotalFunctions,
		FilesAnalyzed:           res.FilesAnalyzed,
		PrimaryFilesCount:       res.PrimaryFilesCount,
		FileQualityDetails:      res.Files,
		ImprovementSuggestions:  []string{},
		AnalyzedAt:              now,
	}
	if res.Lint != nil {
		metric.LintErrors = res.Lint.Errors
		metric.LintWarnings = res.Lint.Warnings
		metric.LintConventions = res.Lint.Conventions
		metric.LintRefactors = res.Lint.Refactors
		metric.LintScore = res.Lint.Score()
		metric.LintMessage = res.Lint.Message
	}
	if res.Coverage != nil {
		metric.HasTests = res.Coverage.HasTests
		metric.CoveragePercent = res.Coverage.Percent
		metric.CoverageMessage = res.Coverage.Message
	}

	insights := s.scorer.GenerateInsights(ctx, models.InsightsInput{
		PrimaryLanguage:         language,
		PrimaryFilesCount:       res.PrimaryFilesCount,
		TotalFiles:              content.TotalFiles,
		TotalLines:              content.TotalLines,
		AvgComplexity:           res.AvgComplexity,
		HighComplexityFunctions: res.HighComplexityFunctions,
		MaintainabilityIndex:    res.MaintainabilityIndex,
		LintScore:               metric.LintScore,
		LintIssues:              metric.LintErrors + metric.LintWarnings + metric.LintConventions + metric.LintRefactors,
		CoveragePercent:         metric.CoveragePercent,
	})
	metric.QualitySummary = insights.Summary
	metric.BestPracticesScore = insights.Score
	if insights.Suggestions != nil {
		metric.ImprovementSuggestions = insights.Suggestions
	}
	return metric
}

// ScanTree walks root and aggregates file and line counts. It also returns the
// relative paths of every file grouped by language.
func ScanTree(root string) (*models.RepositoryContent, map[string][]string, error) {
	content := &models.RepositoryContent{
		LanguageBreakdown: map[string]models.LanguageStats{},
		FileTypes:         map[string]int{},
		LargestFiles:      []models.FileInfo{},
		AnalyzedAt:        time.Now().UTC(),
	}
	byLanguage := map[string][]string{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != root && codequality.IgnoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if codequality.IgnoredExtension(ext) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		content.TotalFiles++
		key := ext
		if key == "" {
			key = noExtensionKey
		}
		content.FileTypes[key]++

		language, ok := codequality.LanguageForExtension(ext)
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		stats := content.LanguageBreakdown[language]
		stats.Files++
		defer func() { content.LanguageBreakdown[language] = stats }()

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		text, err := codequality.Decode(data)
		if err != nil {
			return nil
		}
		lines := codequality.CountLines(text)
		stats.Lines += lines
		content.TotalLines += lines
		byLanguage[language] = append(byLanguage[language], rel)
		content.LargestFiles = append(content.LargestFiles, models.FileInfo{
			Path:     rel,
			Lines:    lines,
			Size:     info.Size(),
			Language: language,
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.SliceStable(content.LargestFiles, func(i, j int) bool {
		if content.LargestFiles[i].Lines != content.LargestFiles[j].Lines {
			return content.LargestFiles[i].Lines > content.LargestFiles[j].Lines
		}
		return content.LargestFiles[i].Path < content.LargestFiles[j].Path
	})
	if len(content.LargestFiles) > largestFilesLimit {
		content.LargestFiles = content.LargestFiles[:largestFilesLimit]
	}
	return content, byLanguage, nil
}
