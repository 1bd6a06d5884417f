package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/clime-app/ipeds-etl/internal/config"
	"github.com/clime-app/ipeds-etl/internal/domain"
)

// Writer publishes normalized institutions to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a producer for KAFKA_TOPIC. Messages with the same key
// land on the same partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes a batch of institutions in one WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, batch []domain.Institution) error {
	if len(batch) == 0 {
		return nil
	}
	processedAt := domain.Now()
	msgs := make([]kafkago.Message, len(batch))
	for i := range batch {
		msg, err := serializeToMessage(batch[i], processedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d institutions to %s: %w", len(msgs), w.writer.Topic, err)
	}
	w.logger.Debug("batch published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// MessageKey identifies an institution across imports. IPEDS names are not
// unique nationally, so state and ZIP code disambiguate.
func MessageKey(inst domain.Institution) string {
	return strings.Join([]string{inst.State, inst.Name, inst.ZIPCode}, "|")
}

func serializeToMessage(inst domain.Institution, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(inst)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize institution %q: %w", inst.Name, err)
	}
	return kafkago.Message{
		Key:   []byte(MessageKey(inst)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "state", Value: []byte(inst.State)},
			{Key: "processed_at", Value: []byte(processedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
