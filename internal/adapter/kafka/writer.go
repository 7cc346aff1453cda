// Package kafka exports linked events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quake-explorer/internal/config"
	"github.com/couchcryptid/quake-explorer/internal/domain"
	"github.com/couchcryptid/quake-explorer/internal/observability"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes linked events to the export topic.
type Writer struct {
	writer    messageWriter
	batchSize int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured export topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newWriter(w, cfg.BatchSize, logger, metrics)
}

func newWriter(w messageWriter, batchSize int, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Writer{writer: w, batchSize: batchSize, logger: logger, metrics: metrics}
}

// Publish serializes links and writes them in batches of the configured size.
// It stops at the first failed batch.
func (w *Writer) Publish(ctx context.Context, links []domain.LinkedEvent) error {
	for start := 0; start < len(links); start += w.batchSize {
		end := min(start+w.batchSize, len(links))
		msgs := make([]kafkago.Message, 0, end-start)
		for i := start; i < end; i++ {
			msg, err := serializeToMessage(links[i])
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish linked events %d-%d: %w", start, end-1, err)
		}
		w.metrics.MessagesProduced.Add(float64(len(msgs)))
		w.logger.Debug("linked events published", "batch_start", start, "batch_size", len(msgs))
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a LinkedEvent into a Kafka message keyed by
// event ID.
func serializeToMessage(link domain.LinkedEvent) (kafkago.Message, error) {
	data, err := json.Marshal(link)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize linked event %s: %w", link.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(link.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "group", Value: []byte(link.Group)},
			{Key: "urgency", Value: []byte(domain.TimeDeltaScheme.Bucket(link.TimeDeltaHours).Label)},
			{Key: "time_delta_hours", Value: []byte(strconv.FormatFloat(link.TimeDeltaHours, 'f', -1, 64))},
		},
	}, nil
}
