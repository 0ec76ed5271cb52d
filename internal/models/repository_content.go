package models

import (
	"math"
	"sort"
	"time"
)

// LanguageStats counts files and lines for one language
type LanguageStats struct {
	Files int   `json:"files"`
	Lines int64 `json:"lines"`
}

// FileInfo describes one of the largest files in a snapshot
type FileInfo struct {
	Path     string `json:"path" yaml:"path"`
	Lines    int64  `json:"lines" yaml:"lines"`
	Size     int64  `json:"size" yaml:"size"`
	Language string `json:"language" yaml:"language"`
}

// RepositoryContent is stored once per repository and replaced on each analysis
type RepositoryContent struct {
	ID                int64                    `json:"id"`
	RepoID            int64                    `json:"repo_id"`
	TotalFiles        int                      `json:"total_files"`
	TotalLines        int64                    `json:"total_lines"`
	LanguageBreakdown map[string]LanguageStats `json:"language_breakdown"`
	FileTypes         map[string]int           `json:"file_types"`
	LargestFiles      []FileInfo               `json:"largest_files"`
	AnalyzedAt        time.Time                `json:"analyzed_at"`
}

// LanguageShare is a language's share of the total line count
type LanguageShare struct {
	Language   string  `json:"language" yaml:"language"`
	Files      int     `json:"files" yaml:"files"`
	Lines      int64   `json:"lines" yaml:"lines"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// LanguagePercentages returns languages ordered by line count with their share rounded to one decimal
func (c *RepositoryContent) LanguagePercentages() []LanguageShare {
	shares := make([]LanguageShare, 0, len(c.LanguageBreakdown))
	for lang, stats := range c.LanguageBreakdown {
		pct := 0.0
		if c.TotalLines > 0 {
			pct = math.Round(float64(stats.Lines)/float64(c.TotalLines)*1000) / 10
		}
		shares = append(shares, LanguageShare{
			Language:   lang,
			Files:      stats.Files,
			Lines:      stats.Lines,
			Percentage: pct,
		})
	}

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Lines != shares[j].Lines {
			return shares[i].Lines > shares[j].Lines
		}
		return shares[i].Language < shares[j].Language
	})
	return shares
}
