package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/diary-location-service/internal/config"
	"github.com/couchcryptid/diary-location-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces titled diary entries to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes the entries in a single WriteMessages call. Entries are
// keyed by user and message id, so a redelivered message lands on the same
// partition as its first copy. Entries of one user may span partitions.
func (w *Writer) LoadBatch(ctx context.Context, entries []domain.TitledEntry) error {
	if len(entries) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(entries))
	for i := range entries {
		msg, err := serializeToMessage(entries[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d entries: %w", len(msgs), err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a TitledEntry into a Kafka message.
func serializeToMessage(entry domain.TitledEntry) (kafkago.Message, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize diary entry: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(entry.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "tier", Value: []byte(entry.Tier.String())},
			{Key: "resolved_at", Value: []byte(entry.ResolvedAt.Format(time.RFC3339))},
		},
	}, nil
}
