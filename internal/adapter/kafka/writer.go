package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/couchcryptid/energy-usage-report/internal/config"
	"github.com/couchcryptid/energy-usage-report/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes chart aggregates to a Kafka topic, one message per chart.
// It implements pipeline.Sink.
type Writer struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSinkTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, topic: cfg.KafkaSinkTopic, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Deliver serializes every chart and publishes them in a single
// WriteMessages call. Messages are keyed by chart id so reruns of the same
// chart land on the same partition.
func (w *Writer) Deliver(ctx context.Context, charts []domain.ChartData) error {
	if len(charts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(charts))
	for i := range charts {
		event, err := domain.SerializeChart(charts[i])
		if err != nil {
			return err
		}
		msgs[i] = toMessage(event)
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d aggregates to %s: %w", len(msgs), w.topic, err)
	}
	w.logger.Info("aggregates published", "topic", w.topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// toMessage converts an OutputEvent into a Kafka message with headers in
// key order.
func toMessage(event domain.OutputEvent) kafkago.Message {
	keys := make([]string, 0, len(event.Headers))
	for k := range event.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(event.Headers[k])})
	}
	return kafkago.Message{
		Key:     event.Key,
		Value:   event.Value,
		Headers: headers,
	}
}
