// Package codequality measures source trees: cyclomatic complexity and
// maintainability from tree-sitter parses, plus lint and coverage through
// pluggable tool strategies that fall back to null implementations.
package codequality

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Result is the aggregate quality of the primary-language files of a tree
type Result struct {
	Language                string
	PrimaryFilesCount       int
	FilesAnalyzed           int
	TotalFunctions          int
	HighComplexityFunctions int
	AvgComplexity           float64
	ComplexityGrade         string
	MaintainabilityIndex    float64
	MaintainabilityGrade    string
	CodeSmells              int
	Files                   []models.FileQuality
	Lint                    *LintReport
	Coverage                *CoverageReport
}

type Analyzer struct {
	linters   map[string]Linter
	coverage  map[string]CoverageRunner
	maxSource int64
}

// NewAnalyzer resolves the available tools once. Languages without a registered
// tool get null strategies.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWith(
		map[string]Linter{"Python": NewLinter()},
		map[string]CoverageRunner{"Python": NewCoverageRunner()},
	)
}

func NewAnalyzerWith(linters map[string]Linter, coverage map[string]CoverageRunner) *Analyzer {
	return &Analyzer{
		linters:   linters,
		coverage:  coverage,
		maxSource: 1 << 20,
	}
}

// PrimaryLanguage picks the supported language with the most lines, "" when none is present
func PrimaryLanguage(breakdown map[string]models.LanguageStats) string {
	best := ""
	var bestLines int64 = -1
	for lang, stats := range breakdown {
		if !Supported(lang) || stats.Files == 0 {
			continue
		}
		if stats.Lines > bestLines || (stats.Lines == bestLines && lang < best) {
			best, bestLines = lang, stats.Lines
		}
	}
	return best
}

// Analyze measures files (paths relative to root) written in language
func (a *Analyzer) Analyze(ctx context.Context, root, language string, files []string) *Result {
	log := logger.WithFields(logrus.Fields{"component": "codequality", "language": language})
	result := &Result{
		Language:          language,
		PrimaryFilesCount: len(files),
		Files:             []models.FileQuality{},
	}

	var (
		complexitySum int
		miSum         float64
		miFiles       int
	)
	for _, rel := range files {
		if ctx.Err() != nil {
			break
		}
		info, err := os.Stat(filepath.Join(root, rel))
		if err != nil || info.Size() > a.maxSource {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			continue
		}
		text, err := Decode(data)
		if err != nil {
			continue
		}

		metrics, err := AnalyzeSource(ctx, language, []byte(text))
		if err != nil {
			log.WithError(err).WithField("file", rel).Debugf("Skipping unparsable file")
			continue
		}

		miSum += metrics.MaintainabilityIndex
		miFiles++

		fq := models.FileQuality{
			Path:                 rel,
			Language:             language,
			Functions:            len(metrics.Functions),
			MaxComplexity:        metrics.MaxComplexity(),
			MaintainabilityIndex: round2(metrics.MaintainabilityIndex),
		}
		if len(metrics.Functions) > 0 {
			result.FilesAnalyzed++
			fq.AvgComplexity = round2(float64(metrics.TotalComplexity()) / float64(len(metrics.Functions)))
		}
		for _, fn := range metrics.Functions {
			result.TotalFunctions++
			complexitySum += fn.Complexity
			if fn.Complexity > HighComplexityThreshold {
				result.HighComplexityFunctions++
			}
		}
		result.Files = append(result.Files, fq)
	}

	if result.TotalFunctions > 0 {
		result.AvgComplexity = round2(float64(complexitySum) / float64(result.TotalFunctions))
	}
	if miFiles > 0 {
		result.MaintainabilityIndex = round2(miSum / float64(miFiles))
	}
	result.ComplexityGrade = ComplexityGrade(result.AvgComplexity)
	result.MaintainabilityGrade = MaintainabilityGrade(result.MaintainabilityIndex)
	result.CodeSmells = result.HighComplexityFunctions

	sort.Slice(result.Files, func(i, j int) bool {
		if result.Files[i].MaxComplexity != result.Files[j].MaxComplexity {
			return result.Files[i].MaxComplexity > result.Files[j].MaxComplexity
		}
		return result.Files[i].Path < result.Files[j].Path
	})

	result.Lint = a.lint(ctx, log, root, language, files)
	result.Coverage = a.runCoverage(ctx, log, root, language)
	return result
}

func (a *Analyzer) lint(ctx context.Context, log *logrus.Entry, root, language string, files []string) *LintReport {
	linter, ok := a.linters[language]
	if !ok {
		linter = NullLinter{Tool: "linter for " + language}
	}
	report, err := linter.Lint(ctx, root, files)
	switch {
	case err == nil:
		return report
	case IsUnavailable(err):
		return report
	default:
		log.WithError(err).Warn("Lint analysis failed")
		return &LintReport{Message: "Analysis error: " + err.Error()}
	}
}

func (a *Analyzer) runCoverage(ctx context.Context, log *logrus.Entry, root, language string) *CoverageReport {
	runner, ok := a.coverage[language]
	if !ok {
		runner = NullCoverageRunner{Tool: "coverage runner for " + language}
	}
	report, err := runner.Run(ctx, root)
	switch {
	case err == nil:
		return report
	case IsUnavailable(err):
		return report
	default:
		log.WithError(err).Warn("Coverage analysis failed")
		return &CoverageReport{Message: "Coverage error: " + err.Error()}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
