package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/threatmap-service/internal/config"
	"github.com/couchcryptid/threatmap-service/internal/domain"
)

// Writer produces assessment events to the sink topic.
// It implements monitor.AssessmentSink.
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

// PublishAssessments serializes and publishes assessment events in a single
// WriteMessages call. Events are keyed by location so each location's
// history stays ordered within one partition.
func (w *Writer) PublishAssessments(ctx context.Context, events []domain.AssessmentEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an AssessmentEvent into a Kafka message.
func serializeToMessage(event domain.AssessmentEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize assessment event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.LocationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "score_label", Value: []byte(event.Label)},
			{Key: "score", Value: []byte(strconv.Itoa(event.Score))},
			{Key: "evaluated_at", Value: []byte(event.EvaluatedAt.Format(time.RFC3339))},
		},
	}, nil
}
