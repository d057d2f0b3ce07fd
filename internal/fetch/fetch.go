// Package fetch runs extraction over many sources in parallel.
package fetch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/browsersearch/internal/browser"
	"github.com/runnerr0/browsersearch/internal/logging"
	"github.com/runnerr0/browsersearch/internal/record"
)

// DefaultMaxWorkers caps the pool when no limit is configured.
const DefaultMaxWorkers = 16

// DefaultStopGrace is how long a timed-out extraction gets to unwind and
// remove its snapshot before it is given up on.
const DefaultStopGrace = 5 * time.Second

// Extractor reads the rows of one source.
type Extractor interface {
	Extract(ctx context.Context, src browser.Source) ([]record.Raw, error)
}

// Batch is the output of one source.
type Batch struct {
	Source browser.Source
	Rows   []record.Raw
	Err    error
}

// Fetcher fans extraction out over a bounded worker pool.
type Fetcher struct {
	extractor  Extractor
	maxWorkers int
	timeout    time.Duration
	stopGrace  time.Duration
	logger     *zap.Logger
}

// New creates a Fetcher. maxWorkers <= 0 means DefaultMaxWorkers;
// timeout <= 0 disables the per-source deadline.
func New(extractor Extractor, maxWorkers int, timeout time.Duration, logger *zap.Logger) *Fetcher {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	logger = logging.OrNop(logger)
	return &Fetcher{
		extractor:  extractor,
		maxWorkers: maxWorkers,
		timeout:    timeout,
		stopGrace:  DefaultStopGrace,
		logger:     logger,
	}
}

// FetchAll extracts every source and returns one Batch per source, in
// source order. A failing, panicking or slow source yields a Batch with
// no rows and its error set; it never affects the others.
func (f *Fetcher) FetchAll(ctx context.Context, sources []browser.Source) []Batch {
	batches := make([]Batch, len(sources))
	if len(sources) == 0 {
		return batches
	}

	// Workers never return an error, so the group context is only
	// cancelled by the caller.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(len(sources), f.maxWorkers))

	for i, src := range sources {
		g.Go(func() error {
			rows, err := f.extractOne(gctx, src)
			if err != nil {
				f.logger.Warn("source skipped",
					zap.String("kind", string(src.Kind)),
					zap.String("profile", src.ProfileID),
					zap.String("path", src.StorePath),
					zap.Error(err),
				)
				rows = nil
			}
			batches[i] = Batch{Source: src, Rows: rows, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return batches
}

// extractOne runs one extraction under the per-source deadline. After the
// deadline it still waits up to stopGrace for the extractor to return, so
// the snapshot it owns is removed before FetchAll does.
func (f *Fetcher) extractOne(ctx context.Context, src browser.Source) ([]record.Raw, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	type result struct {
		rows []record.Raw
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("extract %s: panic: %v", src, r)}
			}
		}()
		rows, err := f.extractor.Extract(ctx, src)
		done <- result{rows: rows, err: err}
	}()

	select {
	case res := <-done:
		return res.rows, res.err
	case <-ctx.Done():
	}

	timer := time.NewTimer(f.stopGrace)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		f.logger.Warn("extractor still running after deadline",
			zap.String("kind", string(src.Kind)),
			zap.String("profile", src.ProfileID),
			zap.Duration("grace", f.stopGrace),
		)
	}
	return nil, fmt.Errorf("extract %s: %w", src, ctx.Err())
}

// Records flattens batches into records, normalizing each batch with its
// source's provenance. Source order is preserved.
func Records(batches []Batch) []record.Record {
	var out []record.Record
	for _, b := range batches {
		out = append(out, record.Normalize(b.Source, b.Rows)...)
	}
	return out
}
