// Package pool runs one task per item with bounded parallelism. A failing or
// panicking task is isolated: it is logged, counted and never cancels its siblings.
package pool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alimgiray/repolens/internal/progress"
	"github.com/alimgiray/repolens/pkg/logger"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxWorkers is used when Options.MaxWorkers is zero
const DefaultMaxWorkers = 30

var ErrInvalidOptions = errors.New("invalid pool options")

type Options struct {
	// Name tags log lines, e.g. "commits"
	Name        string
	MaxWorkers  int
	ItemTimeout time.Duration
	Progress    progress.Func
}

// Summary counts task outcomes of one Run
type Summary struct {
	Total     int `json:"total" yaml:"total"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
}

type result struct {
	label string
	err   error
}

// Run calls task for every item with at most opts.MaxWorkers in flight and
// returns once all of them finished. Progress is reported in completion order
// from a single goroutine. Only invalid options produce an error.
func Run[T any](
	ctx context.Context,
	items []T,
	label func(T) string,
	opts Options,
	task func(ctx context.Context, item T) error,
) (Summary, error) {
	if opts.MaxWorkers < 0 || opts.ItemTimeout < 0 {
		return Summary{}, fmt.Errorf("%w: max workers %d, item timeout %s", ErrInvalidOptions, opts.MaxWorkers, opts.ItemTimeout)
	}
	if opts.MaxWorkers == 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}

	summary := Summary{Total: len(items)}
	if len(items) == 0 {
		return summary, nil
	}

	log := logger.WithFields(logrus.Fields{"batch": opts.Name, "items": len(items), "workers": opts.MaxWorkers})
	log.Debugf("Starting batch")

	results := make(chan result, opts.MaxWorkers)
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for res := range results {
			if res.err != nil {
				summary.Failed++
				log.WithFields(logrus.Fields{"item": res.label}).WithError(res.err).Warn("Item failed")
			} else {
				summary.Succeeded++
			}
			opts.Progress.Report(summary.Succeeded+summary.Failed, summary.Total, res.label)
		}
	}()

	var g errgroup.Group
	g.SetLimit(opts.MaxWorkers)
	for _, item := range items {
		g.Go(func() error {
			results <- result{label: label(item), err: runOne(ctx, item, opts.ItemTimeout, task)}
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	<-consumed

	log.WithFields(logrus.Fields{"succeeded": summary.Succeeded, "failed": summary.Failed}).Info("Batch finished")
	return summary, nil
}

func runOne[T any](ctx context.Context, item T, timeout time.Duration, task func(context.Context, T) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var err error
	if recovered := panics.Try(func() { err = task(ctx, item) }); recovered != nil {
		return recovered.AsError()
	}
	return err
}
