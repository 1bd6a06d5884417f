package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/clime-app/ipeds-etl/internal/domain"
	"github.com/clime-app/ipeds-etl/internal/observability"
)

// ErrTooManyFailures is returned by Importer.Run when the share of rejected
// rows exceeds Options.MaxFailures.
var ErrTooManyFailures = errors.New("too many rejected rows")

// BatchExtractor reads up to batchSize raw records from the source. It returns
// io.EOF once the source is exhausted.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error)
}

// Transformer converts a raw record into an institution.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawRecord) (domain.Institution, error)
}

// BatchLoader writes multiple institutions to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, batch []domain.Institution) error
}

// Options tunes an import run.
type Options struct {
	BatchSize int

	// MaxFailures is the largest tolerated fraction of rejected rows over the
	// whole file. 1 never aborts. It is checked after the last batch, so only
	// a loader that holds its writes until the run succeeds can discard them.
	MaxFailures float64
}

// Summary describes a finished import run.
type Summary struct {
	Read     int
	Loaded   int
	Failed   int
	Duration time.Duration
}

// FailureRatio returns Failed/Read, or 0 for an empty file.
func (s Summary) FailureRatio() float64 {
	if s.Read == 0 {
		return 0
	}
	return float64(s.Failed) / float64(s.Read)
}

// Importer orchestrates the extract-transform-load loop for one file.
type Importer struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	opts        Options
	ready       atomic.Bool
}

// NewImporter creates an Importer with the given stages and observability.
func NewImporter(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.MaxFailures <= 0 || opts.MaxFailures > 1 {
		opts.MaxFailures = 1
	}
	return &Importer{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		opts:        opts,
	}
}

// CheckReadiness returns nil once the importer has loaded at least one batch.
func (p *Importer) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("importer has not loaded any rows yet")
	}
	return nil
}

// Run reads the source to the end. Rows that fail to normalize are logged,
// counted, and skipped. A load failure aborts the run.
func (p *Importer) Run(ctx context.Context) (Summary, error) {
	p.logger.Info("import started", "batch_size", p.opts.BatchSize, "max_failures", p.opts.MaxFailures)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	start := time.Now()
	var sum Summary
	for {
		if err := ctx.Err(); err != nil {
			sum.Duration = time.Since(start)
			return sum, err
		}

		done, err := p.processBatch(ctx, &sum)
		if err != nil {
			sum.Duration = time.Since(start)
			return sum, err
		}
		if done {
			break
		}
	}
	sum.Duration = time.Since(start)

	p.logger.Info("import finished",
		"read", sum.Read,
		"loaded", sum.Loaded,
		"failed", sum.Failed,
		"duration", sum.Duration,
	)

	if sum.FailureRatio() > p.opts.MaxFailures {
		return sum, fmt.Errorf("%w: %d of %d (limit %.2f)",
			ErrTooManyFailures, sum.Failed, sum.Read, p.opts.MaxFailures)
	}
	return sum, nil
}

// processBatch runs one extract-transform-load cycle. It reports true once
// the source is exhausted.
func (p *Importer) processBatch(ctx context.Context, sum *Summary) (bool, error) {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.opts.BatchSize)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("extract batch: %w", err)
	}
	if len(rawBatch) == 0 {
		return false, nil
	}

	sum.Read += len(rawBatch)
	p.metrics.RecordsRead.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))

	outBatch := p.transformBatch(ctx, rawBatch, sum)
	if len(outBatch) == 0 {
		return false, nil
	}

	if err := p.loader.LoadBatch(ctx, outBatch); err != nil {
		p.logger.Error("load batch failed", "error", err,
			"batch_size", len(outBatch),
			"first_row", rawBatch[0].Row,
		)
		return false, fmt.Errorf("load batch: %w", err)
	}

	sum.Loaded += len(outBatch)
	p.metrics.RecordsLoaded.Add(float64(len(outBatch)))
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return false, nil
}

func (p *Importer) transformBatch(ctx context.Context, rawBatch []domain.RawRecord, sum *Summary) []domain.Institution {
	out := make([]domain.Institution, 0, len(rawBatch))
	for _, raw := range rawBatch {
		inst, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			kind := domain.ErrorKind(err)
			p.logger.Warn("transform failed, skipping row",
				"row", raw.Row,
				"kind", kind,
				"error", err,
			)
			p.metrics.TransformErrors.WithLabelValues(kind).Inc()
			sum.Failed++
			continue
		}
		out = append(out, inst)
	}
	return out
}
