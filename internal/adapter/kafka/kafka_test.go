package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/energy-usage-report/internal/config"
	"github.com/couchcryptid/energy-usage-report/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testWriter(fw *fakeWriter) *Writer {
	return &Writer{writer: fw, topic: "energy-usage-aggregates", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func sampleChart() domain.ChartData {
	spec := domain.DefaultChartSpecs()[0]
	return domain.ChartData{
		Spec:        spec,
		GeneratedAt: time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
		Savings: []domain.SourceSavings{
			{Source: domain.SourceSolar, MeanSavings: 20, Count: 2},
		},
		Omitted: []*domain.AggregationError{{Group: "wind", Err: domain.ErrNoValues}},
	}
}

func TestToMessage(t *testing.T) {
	event, err := domain.SerializeChart(sampleChart())
	require.NoError(t, err)

	msg := toMessage(event)

	assert.Equal(t, []byte("savings_by_source"), msg.Key)
	assert.Contains(t, string(msg.Value), `"kind":"bar"`)
	assert.Contains(t, string(msg.Value), `"omitted":["wind"]`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "chart_kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("bar"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-04-26T15:10:00Z"), msg.Headers[1].Value)
	assert.Equal(t, "rows", msg.Headers[2].Key)
	assert.Equal(t, []byte("1"), msg.Headers[2].Value)
}

func TestWriter_Deliver(t *testing.T) {
	fw := &fakeWriter{}
	w := testWriter(fw)

	second := sampleChart()
	second.Spec = domain.DefaultChartSpecs()[1]

	require.NoError(t, w.Deliver(context.Background(), []domain.ChartData{sampleChart(), second}))
	require.Len(t, fw.msgs, 2)
	assert.Equal(t, []byte("savings_by_source"), fw.msgs[0].Key)
	assert.Equal(t, []byte("usage_trend"), fw.msgs[1].Key)
	assert.Equal(t, "kafka", w.Name())

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_Deliver_Empty(t *testing.T) {
	fw := &fakeWriter{err: errors.New("must not be called")}
	require.NoError(t, testWriter(fw).Deliver(context.Background(), nil))
}

func TestWriter_Deliver_Error(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	err := testWriter(fw).Deliver(context.Background(), []domain.ChartData{sampleChart()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "energy-usage-aggregates")
	assert.Contains(t, err.Error(), "leader not available")
}

func TestNewWriter(t *testing.T) {
	w := NewWriter(&config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaSinkTopic: "t"}, slog.Default())
	kw, ok := w.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, "t", kw.Topic)
	require.NoError(t, w.Close())
}
