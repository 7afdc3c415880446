package efficiency

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// RecordSource loads the records of one request. *Loader is the production source.
type RecordSource interface {
	Load(ctx context.Context, filter domain.EfficiencyFilter) (*Records, error)
}

// Observer is notified about every computation.
type Observer interface {
	ObserveLoad(elapsed time.Duration, err error)
	ObserveRun(elapsed time.Duration, stats ReconcileStats)
}

type nopObserver struct{}

func (nopObserver) ObserveLoad(time.Duration, error)         {}
func (nopObserver) ObserveRun(time.Duration, ReconcileStats) {}

// Engine runs load → index → reconcile → aggregate per request. It keeps no
// state between calls, so concurrent calls never share a ledger.
type Engine struct {
	source   RecordSource
	cfg      Config
	observer Observer
}

type EngineOption func(*Engine)

func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

func NewEngine(source RecordSource, cfg Config, opts ...EngineOption) *Engine {
	e := &Engine{
		source:   source,
		cfg:      cfg,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) Calculator() Calculator {
	return NewCalculator(e.cfg)
}

// Compute loads the records of the filter and reconciles them. Partial
// results are never returned: any load failure fails the whole call.
func (e *Engine) Compute(ctx context.Context, filter domain.EfficiencyFilter) (*Result, error) {
	start := time.Now()
	rec, err := e.source.Load(ctx, filter)
	e.observer.ObserveLoad(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	runStart := time.Now()
	result := Run(rec, e.cfg)
	stats := result.Reconciliation.Stats
	e.observer.ObserveRun(time.Since(runStart), stats)

	log.Debug().
		Int("orders", len(result.Reconciliation.Orders)).
		Int("invoices", stats.Invoices).
		Int("lines", stats.Lines).
		Int("full", stats.Full).
		Int("partial", stats.Partial).
		Int("redundant", stats.Redundant).
		Int("unordered", stats.Unordered).
		Int("skipped", stats.Skipped).
		Dur("elapsed", time.Since(start)).
		Msg("efficiency computed")

	return result, nil
}

// Summary computes the executive summary of the filter's period and, when
// a date range is given, of the preceding equal-length period. The two runs
// are independent and execute concurrently.
func (e *Engine) Summary(ctx context.Context, filter domain.EfficiencyFilter) (*domain.ExecutiveSummary, error) {
	if filter.OrderNumber != nil || !filter.HasDateRange() {
		result, err := e.Compute(ctx, filter)
		if err != nil {
			return nil, err
		}
		return result.Summary(), nil
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var current, previous *domain.ExecutiveSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result, err := e.Compute(gctx, filter)
		if err != nil {
			return err
		}
		current = result.Summary()
		return nil
	})
	g.Go(func() error {
		result, err := e.Compute(gctx, filter.Shift())
		if err != nil {
			return fmt.Errorf("failed to compute previous period: %w", err)
		}
		previous = result.Summary()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return WithVariation(current, previous, e.Calculator()), nil
}
