package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alimgiray/repolens/internal/codequality"
	"github.com/alimgiray/repolens/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePython = `def simple(x):
    return x + 1


def branchy(x):
    if x > 1:
        return 1
    elif x < 0:
        return -1
    return 0
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	return root
}

func sampleTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"app/main.py":               samplePython,
		"app/util.py":               "import os\nprint(os.getcwd())",
		"cmd/tool.go":               "package main\n\nfunc main() {}\n",
		"README":                    "hello\n",
		"docs/logo.png":             "\x89PNG",
		"node_modules/dep/index.js": "module.exports = 1\n",
		".git/HEAD":                 "ref: refs/heads/main\n",
		"lib.egg-info/PKG-INFO":     "Name: lib\n",
		"data/blob.py":              "abc\x00def\n",
	})
}

func TestScanTree(t *testing.T) {
	root := sampleTree(t)

	content, byLanguage, err := ScanTree(root)
	require.NoError(t, err)

	assert.Equal(t, 5, content.TotalFiles)
	assert.Equal(t, int64(10+2+3), content.TotalLines)
	assert.Equal(t, map[string]int{".py": 3, ".go": 1, "no_extension": 1}, content.FileTypes)

	python := content.LanguageBreakdown["Python"]
	assert.Equal(t, 3, python.Files)
	assert.Equal(t, int64(12), python.Lines)
	assert.Equal(t, models.LanguageStats{Files: 1, Lines: 3}, content.LanguageBreakdown["Go"])

	assert.ElementsMatch(t, []string{"app/main.py", "app/util.py"}, byLanguage["Python"])
	assert.Equal(t, []string{"cmd/tool.go"}, byLanguage["Go"])

	require.Len(t, content.LargestFiles, 3)
	assert.Equal(t, "app/main.py", content.LargestFiles[0].Path)
	assert.Equal(t, int64(10), content.LargestFiles[0].Lines)
	assert.Equal(t, int64(len(samplePython)), content.LargestFiles[0].Size)
}

func TestScanTreeKeepsTopTen(t *testing.T) {
	files := map[string]string{}
	for i := 1; i <= 12; i++ {
		files[filepath.Join("src", strings.Repeat("f", i)+".go")] = strings.Repeat("x\n", i)
	}
	content, _, err := ScanTree(writeTree(t, files))
	require.NoError(t, err)

	require.Len(t, content.LargestFiles, 10)
	assert.Equal(t, int64(12), content.LargestFiles[0].Lines)
	assert.Equal(t, int64(3), content.LargestFiles[9].Lines)
}

func TestScanTreeMissingRoot(t *testing.T) {
	_, _, err := ScanTree(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

type fakeCloner struct {
	dir      string
	err      error
	cleaned  bool
	requests []string
}

func (f *fakeCloner) ShallowClone(_ context.Context, repoURL string) (string, func(), error) {
	f.requests = append(f.requests, repoURL)
	if f.err != nil {
		return "", func() {}, f.err
	}
	return f.dir, func() { f.cleaned = true }, nil
}

type stubLinter struct{}

func (stubLinter) Name() string { return "stub" }

func (stubLinter) Lint(_ context.Context, _ string, files []string) (*codequality.LintReport, error) {
	return &codequality.LintReport{Warnings: 2, FilesAnalyzed: len(files)}, nil
}

func TestAnalyzeRepository(t *testing.T) {
	store := setupTestStore(t)
	repo := store.createRepository(t)
	cloner := &fakeCloner{dir: sampleTree(t)}
	analyzer := codequality.NewAnalyzerWith(map[string]codequality.Linter{"Python": stubLinter{}}, nil)
	svc := NewRepositoryAnalysisService(cloner, analyzer, newStubScorer(5), store.content, store.quality)
	ctx := context.Background()

	var last [2]int
	result := svc.AnalyzeRepository(ctx, repo.ID, "https://github.com/octo/lens.git", func(completed, total int, label string) {
		last = [2]int{completed, total}
	})
	require.Empty(t, result.Error)
	assert.True(t, cloner.cleaned)
	assert.Equal(t, [2]int{4, 4}, last)

	content, err := store.content.GetByRepositoryID(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, content.TotalFiles)

	quality, err := store.quality.GetByRepositoryID(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, quality.PrimaryFilesCount)
	assert.Equal(t, 2, quality.TotalFunctions)
	assert.Equal(t, 2.0, quality.AvgComplexity)
	assert.Equal(t, "A", quality.ComplexityGrade)
	assert.Equal(t, 2, quality.LintWarnings)
	assert.Equal(t, "Readable code", quality.QualitySummary)
	assert.Equal(t, []string{"Add tests"}, quality.ImprovementSuggestions)
	assert.Equal(t, 7.0, quality.BestPracticesScore)
	assert.False(t, quality.HasTests)
}

func TestAnalyzeRepositoryWithoutSupportedLanguage(t *testing.T) {
	store := setupTestStore(t)
	repo := store.createRepository(t)
	cloner := &fakeCloner{dir: writeTree(t, map[string]string{"index.js": "console.log(1)\n"})}
	svc := NewRepositoryAnalysisService(cloner, codequality.NewAnalyzerWith(nil, nil), newStubScorer(5), store.content, store.quality)

	result := svc.AnalyzeRepository(context.Background(), repo.ID, "https://github.com/octo/lens.git", nil)
	require.Empty(t, result.Error)
	require.NotNil(t, result.Quality)
	assert.Equal(t, "N/A", result.Quality.ComplexityGrade)
	assert.Equal(t, "No Python files found for quality analysis", result.Quality.QualitySummary)
	assert.Equal(t, 0.0, result.Quality.BestPracticesScore)
}

func TestAnalyzeRepositoryCloneFailure(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		kind string
	}{
		{
			name: "timeout",
			err:  &models.CloneError{Kind: models.CloneTimeout, URL: "u", Err: errors.New("slow")},
			kind: string(models.CloneTimeout),
		},
		{
			name: "failure",
			err:  &models.CloneError{Kind: models.CloneFailure, URL: "u", Err: errors.New("denied")},
			kind: string(models.CloneFailure),
		},
		{
			name: "untyped",
			err:  errors.New("disk full"),
			kind: AnalysisErrorClone,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := setupTestStore(t)
			repo := store.createRepository(t)
			svc := NewRepositoryAnalysisService(&fakeCloner{err: tc.err}, codequality.NewAnalyzerWith(nil, nil), NullScorer{}, store.content, store.quality)

			result := svc.AnalyzeRepository(context.Background(), repo.ID, "https://github.com/octo/lens.git", nil)
			assert.Equal(t, tc.kind, result.ErrorKind)
			assert.NotEmpty(t, result.Error)
			assert.Nil(t, result.Content)
		})
	}
}

func TestCloneServiceAuthURL(t *testing.T) {
	testCases := []struct {
		name     string
		token    string
		url      string
		expected string
	}{
		{name: "no token", url: "https://github.com/o/r.git", expected: "https://github.com/o/r.git"},
		{name: "https with token", token: "tkn", url: "https://github.com/o/r.git", expected: "https://tkn@github.com/o/r.git"},
		{name: "ssh untouched", token: "tkn", url: "git@github.com:o/r.git", expected: "git@github.com:o/r.git"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NewCloneService(tc.token, 0).authURL(tc.url))
		})
	}
}

func TestCloneServiceFailureRemovesDirectory(t *testing.T) {
	svc := NewCloneService("secret", 0)
	svc.gitPath = filepath.Join(t.TempDir(), "no-such-git")

	dir, cleanup, err := svc.ShallowClone(context.Background(), "https://github.com/o/r.git")
	cleanup()
	require.Error(t, err)
	assert.Empty(t, dir)

	var cloneErr *models.CloneError
	require.True(t, errors.As(err, &cloneErr))
	assert.Equal(t, models.CloneFailure, cloneErr.Kind)
	assert.NotContains(t, err.Error(), "secret")
}
