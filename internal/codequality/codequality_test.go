package codequality

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplexityGrade(t *testing.T) {
	testCases := []struct {
		avg   float64
		grade string
	}{
		{4, "A"}, {5, "A"}, {7, "B"}, {10, "B"}, {15, "C"}, {20, "C"}, {25, "D"}, {30, "D"}, {35, "F"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.grade, ComplexityGrade(tc.avg), "complexity %.1f", tc.avg)
	}
}

func TestMaintainabilityGrade(t *testing.T) {
	testCases := []struct {
		mi    float64
		grade string
	}{
		{25, "A"}, {20, "A"}, {15, "B"}, {10, "B"}, {5, "C"}, {0, "C"}, {-5, "F"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.grade, MaintainabilityGrade(tc.mi), "mi %.1f", tc.mi)
	}
}

const pythonSample = `# helpers
def simple():
    return 1

def branchy(x, items):
    if x > 0 and x < 10:
        return "small"
    elif x > 100:
        return "big"
    for item in items:
        while item:
            item -= 1
    try:
        risky()
    except ValueError:
        pass
    return [i for i in items if i]

class Widget:
    def method(self):
        return self.value if self.value else None
`

func TestAnalyzeSourcePython(t *testing.T) {
	metrics, err := AnalyzeSource(context.Background(), "Python", []byte(pythonSample))
	require.NoError(t, err)
	require.Len(t, metrics.Functions, 3)

	byName := map[string]FunctionComplexity{}
	for _, fn := range metrics.Functions {
		byName[fn.Name] = fn
	}

	assert.Equal(t, 1, byName["simple"].Complexity)
	assert.Equal(t, 2, byName["simple"].Line)
	// if, and, elif, for, while, except, comprehension for, comprehension if
	assert.Equal(t, 9, byName["branchy"].Complexity)
	assert.Equal(t, 2, byName["method"].Complexity)

	assert.Equal(t, 9, metrics.MaxComplexity())
	assert.Equal(t, 1, metrics.CommentLines)
	assert.Greater(t, metrics.HalsteadVolume, 0.0)
	assert.Greater(t, metrics.MaintainabilityIndex, 0.0)
	assert.LessOrEqual(t, metrics.MaintainabilityIndex, 100.0)
}

const goSample = `package sample

// Classify sorts n into a bucket
func Classify(n int) string {
	switch {
	case n < 0:
		return "negative"
	case n == 0 || n == 1:
		return "tiny"
	default:
		return "other"
	}
}

func (s *Store) Each(fn func(int)) {
	for _, v := range s.values {
		if v > 0 && fn != nil {
			fn(v)
		}
	}
}
`

func TestAnalyzeSourceGo(t *testing.T) {
	metrics, err := AnalyzeSource(context.Background(), "Go", []byte(goSample))
	require.NoError(t, err)
	require.Len(t, metrics.Functions, 2)

	assert.Equal(t, "Classify", metrics.Functions[0].Name)
	// two expression cases and one ||
	assert.Equal(t, 4, metrics.Functions[0].Complexity)
	assert.Equal(t, "Each", metrics.Functions[1].Name)
	// for, if, &&
	assert.Equal(t, 4, metrics.Functions[1].Complexity)
}

func TestAnalyzeSourceUnsupported(t *testing.T) {
	_, err := AnalyzeSource(context.Background(), "COBOL", []byte("IDENTIFICATION DIVISION."))
	assert.Error(t, err)
}

func TestMaintainabilityIndexBounds(t *testing.T) {
	assert.Equal(t, 100.0, maintainabilityIndex(0, 1, 10, 0))
	assert.Equal(t, 100.0, maintainabilityIndex(10, 1, 0, 0))

	mi := maintainabilityIndex(5000, 80, 2000, 0)
	assert.GreaterOrEqual(t, mi, 0.0)
	assert.Less(t, mi, 20.0)
}

func TestLintScore(t *testing.T) {
	testCases := []struct {
		name   string
		report LintReport
		score  float64
	}{
		{name: "no files", report: LintReport{Errors: 5}, score: 10},
		{name: "clean", report: LintReport{FilesAnalyzed: 3}, score: 10},
		{name: "weighted", report: LintReport{FilesAnalyzed: 2, Errors: 2, Warnings: 2, Conventions: 4}, score: 8},
		{name: "clamped", report: LintReport{FilesAnalyzed: 1, Errors: 50}, score: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.score, tc.report.Score())
		})
	}
}

func TestParsePylintOutput(t *testing.T) {
	out := []byte(`[
		{"type": "convention", "path": "a.py", "line": 1, "symbol": "missing-docstring", "message": "Missing docstring"},
		{"type": "error", "path": "a.py", "line": 3, "symbol": "undefined-variable", "message": "Undefined variable 'x'"},
		{"type": "warning", "path": "b.py", "line": 7, "symbol": "unused-import", "message": "Unused import os"},
		{"type": "refactor", "path": "b.py", "line": 9, "symbol": "too-many-branches", "message": "Too many branches"},
		{"type": "info", "path": "b.py", "line": 1, "symbol": "locally-disabled", "message": "ignored"}
	]`)

	report, err := parsePylintOutput(out)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 1, report.Warnings)
	assert.Equal(t, 1, report.Conventions)
	assert.Equal(t, 1, report.Refactors)
	assert.Equal(t, 4, report.TotalIssues())
	assert.Len(t, report.Details, 4)

	_, err = parsePylintOutput([]byte("not json"))
	assert.Error(t, err)
}

func TestNullStrategies(t *testing.T) {
	report, err := NullLinter{Tool: "pylint"}.Lint(context.Background(), t.TempDir(), []string{"a.py"})
	assert.ErrorIs(t, err, models.ErrToolUnavailable)
	assert.Equal(t, "pylint not available", report.Message)
	assert.Zero(t, report.TotalIssues())

	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "tests"), 0755))
	cov, err := NullCoverageRunner{Tool: "pytest"}.Run(context.Background(), root)
	assert.True(t, IsUnavailable(err))
	assert.True(t, cov.HasTests)
	assert.Nil(t, cov.Percent)
}

func TestHasTestSuite(t *testing.T) {
	testCases := []struct {
		name  string
		files []string
		want  bool
	}{
		{name: "empty tree", files: nil, want: false},
		{name: "pytest config", files: []string{"pytest.ini"}, want: true},
		{name: "go test file", files: []string{"pkg/store/store_test.go"}, want: true},
		{name: "go test inside vendor-like dir", files: []string{"node_modules/x/x_test.go"}, want: false},
		{name: "plain sources", files: []string{"main.py", "lib/util.go"}, want: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			for _, f := range tc.files {
				path := filepath.Join(root, f)
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
				require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
			}
			assert.Equal(t, tc.want, HasTestSuite(root))
		})
	}
}

func TestParseCoverageTotal(t *testing.T) {
	pct, ok := parseCoverageTotal("Name    Stmts   Miss  Cover\nmod.py     10      2    80%\nTOTAL      10      2    80%\n")
	require.True(t, ok)
	assert.Equal(t, 80.0, pct)

	_, ok = parseCoverageTotal("no summary here")
	assert.False(t, ok)
}

func TestDecodeAndCountLines(t *testing.T) {
	text, err := Decode([]byte("caf\xe9\nline two"))
	require.NoError(t, err)
	assert.Equal(t, "café\nline two", text)
	assert.Equal(t, int64(2), CountLines(text))

	_, err = Decode([]byte("abc\x00def"))
	assert.ErrorIs(t, err, ErrBinaryContent)

	assert.Equal(t, int64(0), CountLines(""))
	assert.Equal(t, int64(2), CountLines("a\nb\n"))
}

func TestTables(t *testing.T) {
	lang, ok := LanguageForExtension(".PY")
	assert.True(t, ok)
	assert.Equal(t, "Python", lang)
	_, ok = LanguageForExtension(".unknown")
	assert.False(t, ok)

	assert.True(t, IgnoredExtension(".png"))
	assert.False(t, IgnoredExtension(".go"))
	assert.True(t, IgnoredDir("node_modules"))
	assert.True(t, IgnoredDir("mypkg.egg-info"))
	assert.False(t, IgnoredDir("src"))
}

func TestPrimaryLanguage(t *testing.T) {
	breakdown := map[string]models.LanguageStats{
		"Markdown": {Files: 10, Lines: 5000},
		"Python":   {Files: 4, Lines: 300},
		"Go":       {Files: 6, Lines: 900},
	}
	assert.Equal(t, "Go", PrimaryLanguage(breakdown))
	assert.Equal(t, "", PrimaryLanguage(map[string]models.LanguageStats{"Rust": {Files: 1, Lines: 10}}))
}

type stubLinter struct {
	report *LintReport
}

func (s stubLinter) Name() string { return "stub" }

func (s stubLinter) Lint(ctx context.Context, root string, files []string) (*LintReport, error) {
	r := *s.report
	r.FilesAnalyzed = len(files)
	return &r, nil
}

func TestAnalyzerAnalyze(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.py"), []byte(pythonSample), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "empty.py"), []byte("X = 1\n"), 0644))

	analyzer := NewAnalyzerWith(
		map[string]Linter{"Python": stubLinter{report: &LintReport{Warnings: 2}}},
		map[string]CoverageRunner{},
	)
	result := analyzer.Analyze(context.Background(), root, "Python", []string{"app.py", "empty.py"})

	assert.Equal(t, 2, result.PrimaryFilesCount)
	assert.Equal(t, 1, result.FilesAnalyzed)
	assert.Equal(t, 3, result.TotalFunctions)
	assert.Equal(t, 4.0, result.AvgComplexity)
	assert.Equal(t, "A", result.ComplexityGrade)
	assert.Len(t, result.Files, 2)
	assert.Equal(t, "app.py", result.Files[0].Path)
	assert.Equal(t, 2, result.Lint.Warnings)
	assert.Equal(t, 9.5, result.Lint.Score())
	assert.Contains(t, result.Coverage.Message, "not available")
}
