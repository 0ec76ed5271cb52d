package codequality

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strings"

	"github.com/alimgiray/repolens/internal/models"
)

// LintReport counts linter messages by severity
type LintReport struct {
	Errors        int      `json:"errors"`
	Warnings      int      `json:"warnings"`
	Conventions   int      `json:"conventions"`
	Refactors     int      `json:"refactors"`
	FilesAnalyzed int      `json:"files_analyzed"`
	Details       []string `json:"details"`
	Message       string   `json:"message"`
}

func (r *LintReport) TotalIssues() int {
	return r.Errors + r.Warnings + r.Conventions + r.Refactors
}

// Score is 10 minus the weighted issue count per analyzed file, clamped to 0-10.
// A report without analyzed files scores 10.
func (r *LintReport) Score() float64 {
	if r.FilesAnalyzed == 0 {
		return 10
	}
	penalty := float64(r.Errors)*1.0 +
		float64(r.Warnings)*0.5 +
		float64(r.Conventions)*0.25 +
		float64(r.Refactors)*0.25
	score := 10 - penalty/float64(r.FilesAnalyzed)
	return math.Round(math.Min(math.Max(score, 0), 10)*100) / 100
}

// Linter runs a static-analysis tool over files below root
type Linter interface {
	Name() string
	Lint(ctx context.Context, root string, files []string) (*LintReport, error)
}

// NewLinter returns pylint when it is on PATH, otherwise a null linter
func NewLinter() Linter {
	if path, err := exec.LookPath("pylint"); err == nil {
		return &PylintLinter{binary: path}
	}
	return NullLinter{Tool: "pylint"}
}

// NullLinter reports zero issues for a tool that is not installed
type NullLinter struct {
	Tool string
}

func (l NullLinter) Name() string {
	return l.Tool
}

func (l NullLinter) Lint(ctx context.Context, root string, files []string) (*LintReport, error) {
	return &LintReport{Message: l.Tool + " not available"}, models.ErrToolUnavailable
}

type PylintLinter struct {
	binary string
}

func (l *PylintLinter) Name() string {
	return "pylint"
}

type pylintMessage struct {
	Type    string `json:"type"`
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Symbol  string `json:"symbol"`
	Message string `json:"message"`
}

const maxLintDetails = 20

// Lint runs pylint once over all files with JSON output. pylint exits non-zero
// whenever it reports messages, so the exit status alone is not a failure.
func (l *PylintLinter) Lint(ctx context.Context, root string, files []string) (*LintReport, error) {
	if len(files) == 0 {
		return &LintReport{}, nil
	}

	args := append([]string{"--output-format=json", "--exit-zero"}, files...)
	cmd := exec.CommandContext(ctx, l.binary, args...)
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if stdout.Len() == 0 && runErr != nil {
		return nil, fmt.Errorf("pylint failed: %w: %s", runErr, strings.TrimSpace(stderr.String()))
	}

	report, err := parsePylintOutput(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	report.FilesAnalyzed = len(files)
	return report, nil
}

func parsePylintOutput(out []byte) (*LintReport, error) {
	var messages []pylintMessage
	if len(bytes.TrimSpace(out)) > 0 {
		if err := json.Unmarshal(out, &messages); err != nil {
			return nil, fmt.Errorf("failed to parse pylint output: %w", err)
		}
	}

	report := &LintReport{Details: []string{}}
	for _, m := range messages {
		switch strings.ToLower(m.Type) {
		case "error", "fatal":
			report.Errors++
		case "warning":
			report.Warnings++
		case "convention":
			report.Conventions++
		case "refactor":
			report.Refactors++
		default:
			continue
		}
		if len(report.Details) < maxLintDetails {
			report.Details = append(report.Details, fmt.Sprintf("%s:%d: %s: %s", m.Path, m.Line, m.Symbol, m.Message))
		}
	}
	return report, nil
}

// IsUnavailable reports whether err came from a null strategy
func IsUnavailable(err error) bool {
	return errors.Is(err, models.ErrToolUnavailable)
}
