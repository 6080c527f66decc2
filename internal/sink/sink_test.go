package sink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"leadhook/internal/config"
	"leadhook/internal/logger"
	"leadhook/pkg/models"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func testEvent(t *testing.T) *models.LeadEvent {
	t.Helper()
	lead, err := models.NewLead("+5511988887777", "WCI9", models.WithMessageID("m-1"), models.WithTimestamp(1700000000))
	require.NoError(t, err)
	return NewEvent("chat", lead, time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("BRT", -3*3600)))
}

func TestNewEvent(t *testing.T) {
	event := testEvent(t)

	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "chat", event.Partner)
	assert.Equal(t, time.UTC, event.ReceivedAt.Location())
	assert.Equal(t, "WCI9", event.Lead.Protocol)
	assert.NotEqual(t, event.ID, testEvent(t).ID)
}

func TestKafkaSink_Publish(t *testing.T) {
	w := &recordingWriter{}
	s := newKafkaSink(w, "leads", nil)
	event := testEvent(t)

	require.NoError(t, s.Publish(context.Background(), event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, []byte("+5511988887777"), msg.Key)

	var decoded models.LeadEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, "m-1", decoded.Lead.MessageID)
	assert.Equal(t, float64(1700000000), decoded.Lead.Timestamp)

	require.NoError(t, s.Close())
	assert.True(t, w.closed)
}

func TestKafkaSink_PropagatesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	w := &recordingWriter{}
	s := newKafkaSink(w, "leads", nil)
	event := testEvent(t)
	require.NoError(t, s.Publish(ctx, event))
	require.Len(t, w.msgs, 1)

	headers := make(map[string]string)
	for _, h := range w.msgs[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "chat", headers["partner"])
	assert.Equal(t, event.ID, headers["event_id"])
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", headers["traceparent"])
}

func TestKafkaSink_WriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	s := newKafkaSink(w, "leads", nil)

	err := s.Publish(context.Background(), testEvent(t))
	assert.ErrorContains(t, err, "broker down")
}

func TestLogSink_Publish(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSink(logger.NewWithCore(core))
	event := testEvent(t)

	require.NoError(t, s.Publish(context.Background(), event))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Lead event", entry.Message)
	assert.Equal(t, event.ID, entry.ContextMap()["event_id"])
	assert.Equal(t, "WCI9", entry.ContextMap()["protocol"])
	assert.NoError(t, s.Close())
}

func TestNewPostgresSink_TableName(t *testing.T) {
	s, err := NewPostgresSink(nil, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "leads", s.table)
	assert.Contains(t, s.insertQuery(), "INSERT INTO leads")
	assert.Contains(t, s.insertQuery(), "ON CONFLICT DO NOTHING")
	assert.Contains(t, s.createTableQuery(), "CREATE TABLE IF NOT EXISTS leads")
	assert.Contains(t, s.createMessageIndexQuery(), "ON leads (partner, message_id) WHERE message_id <> ''")

	_, err = NewPostgresSink(nil, "leads; DROP TABLE x", nil)
	assert.ErrorContains(t, err, "invalid table name")
}

func TestTimestampColumn(t *testing.T) {
	v, err := timestampColumn(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = timestampColumn("2024-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-01T00:00:00Z"`, v)

	v, err = timestampColumn(float64(1700000000))
	require.NoError(t, err)
	assert.Equal(t, "1700000000", v)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, config.SinkConfig{Type: "log"}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogSink{}, s)

	s, err = New(ctx, config.SinkConfig{Type: "kafka", Kafka: config.KafkaSinkConfig{Brokers: []string{"localhost:9092"}}}, nil, nil)
	require.NoError(t, err)
	ks, ok := s.(*KafkaSink)
	require.True(t, ok)
	assert.Equal(t, "leads", ks.topic)

	_, err = New(ctx, config.SinkConfig{Type: "postgres"}, nil, nil)
	assert.ErrorContains(t, err, "requires a database connection")

	_, err = New(ctx, config.SinkConfig{Type: "s3"}, nil, nil)
	assert.ErrorContains(t, err, "unknown sink type")
}
