package services

import (
	"time"

	"github.com/alimgiray/repolens/internal/pool"
	"github.com/alimgiray/repolens/internal/progress"
)

// AnalysisOptions tunes one per-entity analysis batch
type AnalysisOptions struct {
	MaxWorkers   int
	ItemTimeout  time.Duration
	ScoreCommits bool
	Progress     progress.Func
}

func (o AnalysisOptions) poolOptions(name string) pool.Options {
	return pool.Options{
		Name:        name,
		MaxWorkers:  o.MaxWorkers,
		ItemTimeout: o.ItemTimeout,
		Progress:    o.Progress,
	}
}
