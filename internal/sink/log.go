package sink

import (
	"context"
	"time"

	"leadhook/internal/constants"
	"leadhook/internal/logger"
	"leadhook/pkg/metrics"
	"leadhook/pkg/models"
)

// LogSink writes events to the service log. Used for local runs.
type LogSink struct {
	logger logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	if log == nil {
		log = logger.NopLogger()
	}
	return &LogSink{logger: log}
}

func (s *LogSink) Publish(ctx context.Context, event *models.LeadEvent) error {
	start := time.Now()
	s.logger.InfowCtx(ctx, "Lead event",
		"event_id", event.ID,
		"partner", event.Partner,
		"phone", event.Lead.Phone,
		"protocol", event.Lead.Protocol,
		"message_id", event.Lead.MessageID,
		"conversation_id", event.Lead.ConversationID,
		"received_at", event.ReceivedAt,
	)
	metrics.ObserveSinkPublish(constants.SinkTypeLog, time.Since(start), nil)
	return nil
}

func (s *LogSink) Close() error {
	return nil
}
