package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	GitHub   GitHubConfig
	LLM      LLMConfig
	Analysis AnalysisConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            string
	Mode            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	AnalysisWorkers int
	PollInterval    time.Duration
	// APIToken guards the write endpoints when set
	APIToken string
}

type DatabaseConfig struct {
	// Driver is "sqlite3" or "pgx".
	Driver string
	// URL is the DSN for pgx; Path is used for sqlite3.
	URL  string
	Path string
}

type GitHubConfig struct {
	Token   string
	BaseURL string
}

type LLMConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type AnalysisConfig struct {
	MaxWorkers   int
	ItemTimeout  time.Duration
	CloneTimeout time.Duration
	ScoreCommits bool
	SkipContent  bool
}

type LogConfig struct {
	Level string
}

var AppConfig *Config

// env bindings whose names do not follow the key path
var envAliases = map[string]string{
	"server.port":             "PORT",
	"server.mode":             "GIN_MODE",
	"server.read_timeout":     "READ_TIMEOUT",
	"server.write_timeout":    "WRITE_TIMEOUT",
	"server.analysis_workers": "ANALYSIS_WORKERS",
	"server.poll_interval":    "POLL_INTERVAL",
	"server.api_token":        "API_TOKEN",
	"database.driver":         "DATABASE_DRIVER",
	"database.url":            "DATABASE_URL",
	"database.path":           "DB_PATH",
	"github.token":            "GITHUB_TOKEN",
	"github.base_url":         "GITHUB_BASE_URL",
	"llm.api_key":             "OPENAI_API_KEY",
	"llm.model":               "OPENAI_MODEL",
	"llm.base_url":            "OPENAI_BASE_URL",
	"analysis.max_workers":    "MAX_WORKERS",
	"analysis.item_timeout":   "ITEM_TIMEOUT",
	"analysis.clone_timeout":  "CLONE_TIMEOUT",
	"analysis.score_commits":  "SCORE_COMMITS",
	"analysis.skip_content":   "SKIP_CONTENT",
	"log.level":               "LOG_LEVEL",
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.analysis_workers", 1)
	v.SetDefault("server.poll_interval", 5*time.Second)
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.path", "./repolens.db")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("analysis.max_workers", 30)
	v.SetDefault("analysis.item_timeout", 2*time.Minute)
	v.SetDefault("analysis.clone_timeout", 5*time.Minute)
	v.SetDefault("analysis.score_commits", false)
	v.SetDefault("analysis.skip_content", false)
	v.SetDefault("log.level", "info")
}

// Load reads .env (if present) and the environment into AppConfig using the global viper instance.
func Load() error {
	cfg, err := LoadFrom(viper.GetViper())
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// LoadFrom builds a Config from v. Flags bound to v with BindPFlag take precedence over env.
func LoadFrom(v *viper.Viper) (*Config, error) {
	// Missing .env is fine, the environment is used as is
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			Mode:            v.GetString("server.mode"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			AnalysisWorkers: v.GetInt("server.analysis_workers"),
			PollInterval:    v.GetDuration("server.poll_interval"),
			APIToken:        v.GetString("server.api_token"),
		},
		Database: DatabaseConfig{
			Driver: v.GetString("database.driver"),
			URL:    v.GetString("database.url"),
			Path:   v.GetString("database.path"),
		},
		GitHub: GitHubConfig{
			Token:   v.GetString("github.token"),
			BaseURL: v.GetString("github.base_url"),
		},
		LLM: LLMConfig{
			APIKey:  v.GetString("llm.api_key"),
			Model:   v.GetString("llm.model"),
			BaseURL: v.GetString("llm.base_url"),
		},
		Analysis: AnalysisConfig{
			MaxWorkers:   v.GetInt("analysis.max_workers"),
			ItemTimeout:  v.GetDuration("analysis.item_timeout"),
			CloneTimeout: v.GetDuration("analysis.clone_timeout"),
			ScoreCommits: v.GetBool("analysis.score_commits"),
			SkipContent:  v.GetBool("analysis.skip_content"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
	}

	if cfg.Analysis.MaxWorkers <= 0 {
		cfg.Analysis.MaxWorkers = 30
	}
	if cfg.Server.AnalysisWorkers <= 0 {
		cfg.Server.AnalysisWorkers = 1
	}

	return cfg, nil
}

// Validate reports configuration that prevents an analysis from running.
// A missing OpenAI key is not fatal: scoring degrades to neutral results.
func (c *Config) Validate() error {
	var errs []error
	if c.GitHub.Token == "" {
		errs = append(errs, errors.New("GITHUB_TOKEN not found in environment variables"))
	}
	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("DB_PATH must be set for the sqlite3 driver"))
		}
	case "pgx":
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL must be set for the pgx driver"))
		}
	default:
		errs = append(errs, errors.New("DATABASE_DRIVER must be sqlite3 or pgx"))
	}
	return errors.Join(errs...)
}
