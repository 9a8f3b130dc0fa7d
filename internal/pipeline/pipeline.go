// Package pipeline drives the metrics engine across companies: it pulls each
// company's period records from a store, derives metrics on a bounded worker
// pool and replaces the company's stored output once computation finishes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/valuemetrics/internal/metrics"
	"github.com/seenimoa/valuemetrics/internal/store"
	"github.com/seenimoa/valuemetrics/pkg/models"
)

// Deriver turns one company's period records into derived metrics.
// *metrics.Engine is the production implementation.
type Deriver interface {
	Derive(records []models.PeriodRecord) []models.DerivedMetrics
}

// Pipeline runs full or partial recomputations.
type Pipeline struct {
	source  store.Source
	sink    store.Sink
	deriver Deriver
	workers int
	logger  *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSink sets the output sink. Without a sink the run is a dry run and
// output is only returned in the Result.
func WithSink(sink store.Sink) Option {
	return func(p *Pipeline) { p.sink = sink }
}

// WithWorkers bounds the number of companies processed concurrently.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a pipeline reading from source and deriving with d.
func New(source store.Source, d Deriver, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:  source,
		deriver: d,
		workers: runtime.NumCPU(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result summarizes a run.
type Result struct {
	// RunID tags the run's log lines.
	RunID     string
	Companies int
	Records   int
	// Failed lists companies whose input could not be fetched or whose
	// derivation panicked.
	Failed   []string
	Stats    metrics.Stats
	Duration time.Duration
	// Output holds every derived record, grouped by company in run order.
	Output []models.DerivedMetrics
}

type companyResult struct {
	id      string
	rows    []models.DerivedMetrics
	fetched bool
	failed  bool
}

// Run recomputes the given companies, or every company known to the source
// when ids is empty. A full run truncates the sink before writing. Per-company
// fetch and derive failures are logged and reported in Result.Failed; the
// returned error covers listing companies and writing output.
func (p *Pipeline) Run(ctx context.Context, ids []string) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	logger := p.logger.With(zap.String("run_id", runID))

	full := len(ids) == 0
	if full {
		var err error
		ids, err = p.source.Companies(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list companies: %w", err)
		}
	}

	logger.Info("derivation started",
		zap.Int("companies", len(ids)),
		zap.Int("workers", p.workers),
		zap.Bool("full", full),
		zap.Bool("dry_run", p.sink == nil),
	)

	results := make([]companyResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			results[i] = p.processCompany(gctx, logger, id)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{RunID: runID, Companies: len(ids)}
	for i := range results {
		r := &results[i]
		if r.failed {
			res.Failed = append(res.Failed, r.id)
		}
		res.Records += len(r.rows)
		res.Output = append(res.Output, r.rows...)
	}
	res.Stats.AddAll(res.Output)

	var err error
	if p.sink != nil {
		err = p.flush(ctx, logger, results, full)
	}

	res.Duration = time.Since(start)
	logger.Info("derivation finished",
		zap.Int("companies", res.Companies),
		zap.Int("records", res.Records),
		zap.Int("failed", len(res.Failed)),
		zap.Duration("duration", res.Duration),
	)
	return res, err
}

func (p *Pipeline) processCompany(ctx context.Context, logger *zap.Logger, id string) companyResult {
	res := companyResult{id: id}

	records, err := p.source.FetchPeriods(ctx, id)
	if err != nil {
		logger.Warn("failed to fetch periods", zap.String("company", id), zap.Error(err))
		res.failed = true
		return res
	}
	res.fetched = true

	rows, err := p.derive(records)
	if err != nil {
		logger.Warn("derivation failed", zap.String("company", id), zap.Error(err))
		res.failed = true
	}
	res.rows = rows
	return res
}

// derive runs the deriver, turning a panic into identity-only rows so the
// company still gets one output per input record.
func (p *Pipeline) derive(records []models.PeriodRecord) (rows []models.DerivedMetrics, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			rows = identityRows(records)
		}
	}()
	return p.deriver.Derive(records), nil
}

func identityRows(records []models.PeriodRecord) []models.DerivedMetrics {
	sorted := make([]models.PeriodRecord, len(records))
	copy(sorted, records)
	metrics.SortRecords(sorted)

	rows := make([]models.DerivedMetrics, len(sorted))
	for i := range sorted {
		rows[i] = models.NewDerivedMetrics(&sorted[i])
	}
	return rows
}

// flush writes the output after every company has been computed. Companies
// whose input could not be fetched are left untouched on partial runs.
func (p *Pipeline) flush(ctx context.Context, logger *zap.Logger, results []companyResult, full bool) error {
	if full {
		if err := p.sink.Truncate(ctx); err != nil {
			return fmt.Errorf("failed to truncate output: %w", err)
		}
	}

	var errs []error
	for _, r := range results {
		if !r.fetched {
			continue
		}
		if err := p.sink.Replace(ctx, r.id, r.rows); err != nil {
			logger.Error("failed to write derived metrics", zap.String("company", r.id), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", r.id, err))
		}
	}
	return errors.Join(errs...)
}
