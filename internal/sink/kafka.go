package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"leadhook/internal/config"
	"leadhook/internal/constants"
	"leadhook/internal/logger"
	"leadhook/pkg/metrics"
	"leadhook/pkg/models"
	"leadhook/pkg/tracing"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes each event as JSON, keyed by phone so that one contact's
// leads stay on a single partition.
type KafkaSink struct {
	writer messageWriter
	topic  string
	logger logger.Logger
}

func NewKafkaSink(cfg config.KafkaSinkConfig, log logger.Logger) *KafkaSink {
	topic := cfg.Topic
	if topic == "" {
		topic = constants.DefaultLeadTopic
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: constants.KafkaBatchTimeout,
		WriteTimeout: constants.KafkaWriteTimeout,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return newKafkaSink(w, topic, log)
}

func newKafkaSink(w messageWriter, topic string, log logger.Logger) *KafkaSink {
	if log == nil {
		log = logger.NopLogger()
	}
	return &KafkaSink{writer: w, topic: topic, logger: log}
}

func (s *KafkaSink) Publish(ctx context.Context, event *models.LeadEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal lead event: %w", err)
	}

	headers := []kafka.Header{
		{Key: "partner", Value: []byte(event.Partner)},
		{Key: "event_id", Value: []byte(event.ID)},
	}
	headers = tracing.InjectTraceContext(ctx, headers)

	start := time.Now()
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.Lead.Phone),
		Value:   body,
		Headers: headers,
		Time:    start,
	})
	metrics.ObserveSinkPublish(constants.SinkTypeKafka, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	s.logger.DebugwCtx(ctx, "Lead event published",
		"topic", s.topic,
		"event_id", event.ID,
	)
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
