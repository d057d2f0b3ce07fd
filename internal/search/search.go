// Package search wires discovery, extraction and the post-processing
// pipeline into a single query entry point.
package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/browsersearch/internal/browser"
	"github.com/runnerr0/browsersearch/internal/config"
	"github.com/runnerr0/browsersearch/internal/fetch"
	"github.com/runnerr0/browsersearch/internal/logging"
	"github.com/runnerr0/browsersearch/internal/pipeline"
	"github.com/runnerr0/browsersearch/internal/query"
	"github.com/runnerr0/browsersearch/internal/record"
	"github.com/runnerr0/browsersearch/internal/snapshot"
)

// Discoverer lists the sources of enabled browsers.
type Discoverer interface {
	Discover(store browser.StoreType) []browser.Source
	Profiles() []browser.Source
}

// Options holds the pipeline settings taken from configuration.
type Options struct {
	DefaultOperator query.Operator
	IgnoredDomains  []string
	SortRecent      bool
	Limit           int
}

// OptionsFromConfig maps the search section of cfg onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DefaultOperator: query.ParseOperator(cfg.Search.DefaultOperator),
		IgnoredDomains:  cfg.IgnoredDomainList(),
		SortRecent:      cfg.Search.SortRecent,
		Limit:           cfg.Search.MaxResults,
	}
}

// Result is the outcome of one search.
type Result struct {
	Records []record.Record
	Query   query.Query
	// Sources is the number of stores discovered; Failed of those could
	// not be read.
	Sources int
	Failed  int
	Elapsed time.Duration
}

// NoSources reports that no enabled browser had a store to read, which
// callers present differently from an empty result.
func (r Result) NoSources() bool { return r.Sources == 0 }

// Service runs searches.
type Service struct {
	sources Discoverer
	fetcher *fetch.Fetcher
	opts    Options
	logger  *zap.Logger
}

// New creates a Service.
func New(sources Discoverer, fetcher *fetch.Fetcher, opts Options, logger *zap.Logger) *Service {
	logger = logging.OrNop(logger)
	return &Service{sources: sources, fetcher: fetcher, opts: opts, logger: logger}
}

// NewFromConfig builds the registry, extractor and fetcher described by
// cfg, discovering browsers under home.
func NewFromConfig(cfg *config.Config, home string, avatars browser.AvatarProvider, logger *zap.Logger) *Service {
	logger = logging.OrNop(logger)
	regOpts := []browser.Option{browser.WithLogger(logger.Named("registry"))}
	if avatars != nil {
		regOpts = append(regOpts, browser.WithAvatars(avatars, cfg.Profiles.AvatarCacheDir))
	}
	registry := browser.NewRegistry(home, EnabledKinds(cfg), regOpts...)

	extractor := snapshot.New(cfg.Fetch.TempDir, logger.Named("snapshot"))
	fetcher := fetch.New(extractor, cfg.Fetch.MaxWorkers, cfg.Fetch.SourceTimeout, logger.Named("fetch"))

	return New(registry, fetcher, OptionsFromConfig(cfg), logger)
}

// EnabledKinds returns the browser kinds switched on in cfg, in table
// order. Unknown keys in the browsers map are ignored.
func EnabledKinds(cfg *config.Config) []browser.Kind {
	var out []browser.Kind
	for _, k := range browser.Kinds() {
		if cfg.Enabled(string(k)) {
			out = append(out, k)
		}
	}
	return out
}

// Search discovers every store of the given type, reads them in parallel
// and returns the filtered, deduplicated and ranked records. Unreadable
// sources are counted in Failed and otherwise ignored.
func (s *Service) Search(ctx context.Context, raw string, store browser.StoreType) Result {
	start := time.Now()
	q := query.Compile(raw, s.opts.DefaultOperator)

	sources := s.sources.Discover(store)
	if len(sources) == 0 {
		s.logger.Debug("no sources", zap.Stringer("store", store))
		return Result{Records: []record.Record{}, Query: q}
	}

	batches := s.fetcher.FetchAll(ctx, sources)
	failed := 0
	for _, b := range batches {
		if b.Err != nil {
			failed++
		}
	}

	records := pipeline.Run(fetch.Records(batches), pipeline.Options{
		Query:          q,
		IgnoredDomains: s.opts.IgnoredDomains,
		SortRecent:     s.opts.SortRecent,
		Limit:          s.opts.Limit,
	})

	res := Result{
		Records: records,
		Query:   q,
		Sources: len(sources),
		Failed:  failed,
		Elapsed: time.Since(start),
	}
	s.logger.Debug("search done",
		zap.Stringer("store", store),
		zap.Int("sources", res.Sources),
		zap.Int("failed", res.Failed),
		zap.Int("results", len(res.Records)),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res
}

// Profiles lists the profiles of enabled multi-profile browsers.
func (s *Service) Profiles() []browser.Source {
	return s.sources.Profiles()
}
