// Package chat implements the lead extractor for chat-platform webhooks whose
// message shape varies between event types. Phone and message text are looked up
// from a list of candidate field names; the protocol is pattern-matched out of
// the text.
package chat

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"leadhook/internal/constants"
	"leadhook/internal/logger"
	"leadhook/pkg/errors"
	"leadhook/pkg/logging"
	"leadhook/pkg/models"
	"leadhook/pkg/tracing"
)

const DefaultName = "chat"

type LeadExtractor struct {
	name   string
	rules  Rules
	logger logger.Logger
}

func NewLeadExtractor(name string, log logger.Logger) *LeadExtractor {
	return NewLeadExtractorWithRules(name, DefaultRules(), log)
}

func NewLeadExtractorWithRules(name string, rules Rules, log logger.Logger) *LeadExtractor {
	if name == "" {
		name = DefaultName
	}
	if log == nil {
		log = logger.NopLogger()
	}
	return &LeadExtractor{
		name:   name,
		rules:  rules,
		logger: log,
	}
}

func (e *LeadExtractor) Name() string {
	return e.name
}

// ProcessMessage returns the Lead found in payload, or nil. Every failure is
// logged here and absorbed.
func (e *LeadExtractor) ProcessMessage(ctx context.Context, payload models.Payload) (lead *models.Lead) {
	if logging.GetPartner(ctx) == "" {
		ctx = logging.WithPartner(ctx, e.name)
	}

	ctx, span := tracing.GetTracer(constants.ServiceName).Start(ctx, "chat.process_message")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorwCtx(ctx, "Failed to process partner message",
				"error", errors.RecoverPanic(r),
			)
			lead = nil
		}
	}()

	lead, err := e.Extract(payload)
	if err != nil {
		e.logFailure(ctx, err)
		return nil
	}

	e.logger.InfowCtx(ctx, "Lead extracted",
		"protocol", lead.Protocol,
		"phone", lead.Phone,
	)
	return lead
}

// Extract runs the extraction steps and reports why no Lead was produced.
// It does not log.
func (e *LeadExtractor) Extract(payload models.Payload) (*models.Lead, error) {
	record, err := e.locate(payload)
	if err != nil {
		return nil, err
	}

	phone := e.extractPhone(record)
	text := e.extractText(record)

	protocol, ok := e.extractProtocol(text)
	if !ok {
		return nil, errors.ErrMissingProtocol.
			WithDetail("text_length", len(text))
	}
	if phone == "" {
		return nil, errors.ErrMissingPhone.
			WithDetail("protocol", protocol)
	}

	return models.NewLead(phone, protocol,
		models.WithMessageID(models.Stringify(record["id"])),
		models.WithConversationID(models.Stringify(record["conversation_id"])),
		models.WithTimestamp(record["timestamp"]),
	)
}

func (e *LeadExtractor) logFailure(ctx context.Context, err error) {
	fields := []interface{}{"error", err}
	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		for k, v := range appErr.Details {
			fields = append(fields, k, v)
		}
	}

	if !errors.IsExtractionMiss(err) {
		e.logger.ErrorwCtx(ctx, "Failed to process partner message", fields...)
		return
	}
	if stderrors.Is(err, errors.ErrMissingProtocol) {
		e.logger.WarnwCtx(ctx, "Protocol not found in message", fields...)
		return
	}
	e.logger.WarnwCtx(ctx, "Phone not found in message", fields...)
}

func (e *LeadExtractor) locate(payload models.Payload) (map[string]interface{}, error) {
	var record interface{} = map[string]interface{}(payload)
	for _, rule := range e.rules.Locators {
		if value, ok := rule.Locate(payload); ok {
			record = value
			break
		}
	}

	m, ok := models.AsMap(record)
	if !ok {
		return nil, errors.ErrMalformedPayload.
			WithCause(fmt.Errorf("message record is %T, want object", record))
	}
	return m, nil
}

func (e *LeadExtractor) extractPhone(record map[string]interface{}) string {
	for _, field := range e.rules.PhoneFields {
		value, ok := record[field]
		if !ok || !models.Truthy(value) {
			continue
		}
		return models.NormalizePhone(models.Stringify(value))
	}
	return ""
}

// extractText stops at the first field name present in the record, even when
// that field yields no usable text.
func (e *LeadExtractor) extractText(record map[string]interface{}) string {
	for _, field := range e.rules.TextFields {
		value, ok := record[field]
		if !ok {
			continue
		}
		if nested, isMap := models.AsMap(value); isMap {
			body, _ := nested["body"].(string)
			return body
		}
		text, _ := value.(string)
		return text
	}
	return ""
}

func (e *LeadExtractor) extractProtocol(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	if m := e.rules.Primary.Pattern.FindStringSubmatch(text); m != nil {
		protocol := strings.TrimSpace(m[1])
		return protocol, protocol != ""
	}

	for _, p := range e.rules.Patterns {
		if m := p.Pattern.FindStringSubmatch(text); m != nil {
			protocol := strings.TrimSpace(m[1])
			return protocol, protocol != ""
		}
	}
	return "", false
}
