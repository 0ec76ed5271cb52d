package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("MAX_WORKERS", "")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 30, cfg.Analysis.MaxWorkers)
	assert.Equal(t, 2*time.Minute, cfg.Analysis.ItemTimeout)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.False(t, cfg.Analysis.ScoreCommits)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("MAX_WORKERS", "8")
	t.Setenv("CLONE_TIMEOUT", "90s")
	t.Setenv("SCORE_COMMITS", "true")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "ghp_test", cfg.GitHub.Token)
	assert.Equal(t, 8, cfg.Analysis.MaxWorkers)
	assert.Equal(t, 90*time.Second, cfg.Analysis.CloneTimeout)
	assert.True(t, cfg.Analysis.ScoreCommits)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestLoadFromClampsWorkers(t *testing.T) {
	t.Setenv("MAX_WORKERS", "0")
	t.Setenv("ANALYSIS_WORKERS", "-2")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Analysis.MaxWorkers)
	assert.Equal(t, 1, cfg.Server.AnalysisWorkers)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid sqlite",
			cfg:  Config{GitHub: GitHubConfig{Token: "t"}, Database: DatabaseConfig{Driver: "sqlite3", Path: "x.db"}},
		},
		{
			name:    "missing token",
			cfg:     Config{Database: DatabaseConfig{Driver: "sqlite3", Path: "x.db"}},
			wantErr: "GITHUB_TOKEN",
		},
		{
			name:    "pgx without url",
			cfg:     Config{GitHub: GitHubConfig{Token: "t"}, Database: DatabaseConfig{Driver: "pgx"}},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "unknown driver",
			cfg:     Config{GitHub: GitHubConfig{Token: "t"}, Database: DatabaseConfig{Driver: "mysql"}},
			wantErr: "DATABASE_DRIVER",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
