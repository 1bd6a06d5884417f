package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clime-app/ipeds-etl/internal/domain"
	"github.com/clime-app/ipeds-etl/internal/observability"
)

// InstitutionTransformer implements Transformer using domain.Normalize.
type InstitutionTransformer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates an InstitutionTransformer.
func NewTransformer(logger *slog.Logger, metrics *observability.Metrics) *InstitutionTransformer {
	return &InstitutionTransformer{logger: logger, metrics: metrics}
}

// Transform normalizes one row. Consideration values outside the known
// literal set are counted per column so the mapping can be audited.
func (t *InstitutionTransformer) Transform(_ context.Context, raw domain.RawRecord) (domain.Institution, error) {
	if raw.Err != nil {
		return domain.Institution{}, fmt.Errorf("decode row: %w", raw.Err)
	}

	inst, err := domain.Normalize(raw.Record)
	if err != nil {
		return domain.Institution{}, err
	}

	for _, field := range domain.ConsiderationFallbacks(raw.Record) {
		t.logger.Debug("unrecognized consideration value folded into not_recommended",
			"row", raw.Row,
			"field", field,
		)
		t.metrics.ConsiderationFallbacks.WithLabelValues(field).Inc()
	}
	return inst, nil
}
