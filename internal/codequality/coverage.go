package codequality

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alimgiray/repolens/internal/models"
)

const defaultCoverageTimeout = 3 * time.Minute

// CoverageReport describes the test suite found in a source tree
type CoverageReport struct {
	HasTests    bool     `json:"has_tests"`
	Percent     *float64 `json:"coverage_percent"`
	TestsPassed *bool    `json:"tests_passed"`
	Message     string   `json:"message"`
}

// CoverageRunner measures test coverage of a checked-out tree
type CoverageRunner interface {
	Run(ctx context.Context, root string) (*CoverageReport, error)
}

// NewCoverageRunner returns a pytest runner when pytest is on PATH, otherwise a null runner
func NewCoverageRunner() CoverageRunner {
	if path, err := exec.LookPath("pytest"); err == nil {
		return &PytestRunner{binary: path, timeout: defaultCoverageTimeout}
	}
	return NullCoverageRunner{Tool: "pytest"}
}

// NullCoverageRunner only detects whether a test suite exists
type NullCoverageRunner struct {
	Tool string
}

func (r NullCoverageRunner) Run(ctx context.Context, root string) (*CoverageReport, error) {
	return &CoverageReport{
		HasTests: HasTestSuite(root),
		Message:  r.Tool + " not available",
	}, models.ErrToolUnavailable
}

type PytestRunner struct {
	binary  string
	timeout time.Duration
}

type coverageJSON struct {
	Totals struct {
		PercentCovered float64 `json:"percent_covered"`
	} `json:"totals"`
}

func (r *PytestRunner) Run(ctx context.Context, root string) (*CoverageReport, error) {
	if !HasTestSuite(root) {
		return &CoverageReport{Message: "No test suite found"}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, "--cov", "--cov-report=json", "--cov-report=term")
	cmd.Dir = root
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	runErr := cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &CoverageReport{HasTests: true, Message: "Coverage analysis timed out"}, nil
	}

	passed := runErr == nil
	report := &CoverageReport{HasTests: true, TestsPassed: &passed}

	if data, err := os.ReadFile(filepath.Join(root, "coverage.json")); err == nil {
		var cov coverageJSON
		if err := json.Unmarshal(data, &cov); err == nil {
			pct := round2(cov.Totals.PercentCovered)
			report.Percent = &pct
			return report, nil
		}
	}

	if pct, ok := parseCoverageTotal(stdout.String()); ok {
		report.Percent = &pct
		report.Message = "Coverage data parsed from output"
		return report, nil
	}

	report.Message = "Coverage report not produced"
	return report, nil
}

// parseCoverageTotal reads the percentage from the TOTAL row of the terminal report
func parseCoverageTotal(output string) (float64, bool) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "TOTAL") {
			continue
		}
		for _, field := range strings.Fields(line) {
			if !strings.HasSuffix(field, "%") {
				continue
			}
			if pct, err := strconv.ParseFloat(strings.TrimSuffix(field, "%"), 64); err == nil {
				return pct, true
			}
		}
	}
	return 0, false
}

// HasTestSuite reports a tests/ or test/ directory, a pytest config or any Go test file
func HasTestSuite(root string) bool {
	for _, marker := range []string{"tests", "test", "pytest.ini", "pyproject.toml"} {
		if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
			return true
		}
	}

	found := false
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && IgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), "_test.go") {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}
