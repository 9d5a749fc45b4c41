package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/pm25-etl/internal/config"
	"github.com/couchcryptid/pm25-etl/internal/domain"
)

// Writer publishes exceedance counts to a Kafka topic.
// It implements pipeline.ExceedancePublisher.
type Writer struct {
	writer    *kafkago.Writer
	threshold float64
	logger    *slog.Logger
}

// NewWriter creates a Kafka producer for the configured exceedance topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, threshold: cfg.Threshold, logger: logger}
}

// PublishExceedances serializes and publishes all counts in a single
// WriteMessages call. Messages are keyed by station so one station's years land
// on the same partition.
func (w *Writer) PublishExceedances(ctx context.Context, counts []domain.ExceedanceCount) error {
	if len(counts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(counts))
	for i := range counts {
		msg, err := serializeToMessage(counts[i], w.threshold)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	w.logger.Info("exceedances published", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an ExceedanceCount into a Kafka message.
func serializeToMessage(c domain.ExceedanceCount, threshold float64) (kafkago.Message, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize exceedance count: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(c.Station),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "year", Value: []byte(strconv.Itoa(c.Year))},
			{Key: "threshold", Value: []byte(strconv.FormatFloat(threshold, 'f', -1, 64))},
		},
	}, nil
}
