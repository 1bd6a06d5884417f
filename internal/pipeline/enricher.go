package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/clime-app/ipeds-etl/internal/domain"
	"github.com/clime-app/ipeds-etl/internal/observability"
)

// TimezoneStore is the subset of the SQL store the enricher needs.
type TimezoneStore interface {
	AddTimezoneColumn(ctx context.Context, def string) error
	ListCoordinates(ctx context.Context, afterID int64) ([]domain.Coordinates, error)
	SetTimezone(ctx context.Context, id int64, tz string) error
}

// EnrichOptions tunes a timezone enrichment run.
type EnrichOptions struct {
	// CreateColumn adds the timezone column before enriching.
	CreateColumn bool
	// StartAt skips rows with id <= StartAt, for resuming an interrupted run.
	StartAt int64

	DefaultTimezone string
}

// EnrichSummary describes a finished enrichment run.
type EnrichSummary struct {
	Processed int
	Resolved  int
	Fallbacks int
	// LastID is the id of the last row written; pass it as StartAt to resume.
	LastID    int64
	Duration  time.Duration
}

// Enricher resolves and stores a timezone for every stored institution.
type Enricher struct {
	store    TimezoneStore
	resolver domain.TimezoneResolver
	logger   *slog.Logger
	metrics  *observability.Metrics
	opts     EnrichOptions
	ready    atomic.Bool
}

// NewEnricher creates an Enricher. A nil resolver stores the default
// timezone for every row.
func NewEnricher(store TimezoneStore, resolver domain.TimezoneResolver, logger *slog.Logger, metrics *observability.Metrics, opts EnrichOptions) *Enricher {
	if opts.DefaultTimezone == "" {
		opts.DefaultTimezone = domain.DefaultTimezone
	}
	return &Enricher{
		store:    store,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
	}
}

// CheckReadiness returns nil once the enricher has stored a timezone.
func (e *Enricher) CheckReadiness(_ context.Context) error {
	if !e.ready.Load() {
		return errors.New("enricher has not stored any timezones yet")
	}
	return nil
}

// Run enriches rows sequentially. Lookup failures store the default timezone
// and continue; store failures and cancellation stop the run.
func (e *Enricher) Run(ctx context.Context) (EnrichSummary, error) {
	e.metrics.PipelineRunning.Set(1)
	defer e.metrics.PipelineRunning.Set(0)

	start := time.Now()
	sum := EnrichSummary{LastID: e.opts.StartAt}
	finish := func(err error) (EnrichSummary, error) {
		sum.Duration = time.Since(start)
		if err != nil {
			e.logger.Error("timezone enrichment stopped", "error", err, "last_id", sum.LastID)
		}
		return sum, err
	}

	if e.opts.CreateColumn {
		if err := e.store.AddTimezoneColumn(ctx, e.opts.DefaultTimezone); err != nil {
			return finish(err)
		}
		e.logger.Info("timezone column added", "default", e.opts.DefaultTimezone)
	}

	locs, err := e.store.ListCoordinates(ctx, e.opts.StartAt)
	if err != nil {
		return finish(err)
	}
	e.logger.Info("timezone enrichment started", "rows", len(locs), "start_at", e.opts.StartAt)

	for _, loc := range locs {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		tz, ok := domain.ResolveTimezone(ctx, loc, e.resolver, e.opts.DefaultTimezone, e.logger)
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		if ok {
			sum.Resolved++
			e.metrics.TimezoneLookups.WithLabelValues("success").Inc()
		} else {
			sum.Fallbacks++
			e.metrics.TimezoneLookups.WithLabelValues("fallback").Inc()
		}

		if err := e.store.SetTimezone(ctx, loc.ID, tz); err != nil {
			return finish(fmt.Errorf("store timezone: %w", err))
		}
		sum.Processed++
		sum.LastID = loc.ID
		e.ready.Store(true)
		e.logger.Debug("timezone stored", "id", loc.ID, "timezone", tz)
	}

	res, err := finish(nil)
	e.logger.Info("timezone enrichment finished",
		"processed", res.Processed,
		"resolved", res.Resolved,
		"fallbacks", res.Fallbacks,
		"duration", res.Duration,
	)
	return res, err
}
