// Package expression implements a partner adapter whose field lookups are CEL
// expressions over the webhook payload, so new partner shapes can be onboarded
// from configuration alone.
package expression

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/ext"

	"leadhook/internal/constants"
	"leadhook/internal/logger"
	"leadhook/pkg/errors"
	"leadhook/pkg/logging"
	"leadhook/pkg/models"
	"leadhook/pkg/tracing"
)

// Config holds one CEL expression per Lead field. Phone and Protocol are
// required; the rest are optional and default to empty.
type Config struct {
	Phone          string
	Protocol       string
	MessageID      string
	ConversationID string
	Timestamp      string
}

type Partner struct {
	name           string
	phone          cel.Program
	protocol       cel.Program
	messageID      cel.Program
	conversationID cel.Program
	timestamp      cel.Program
	logger         logger.Logger
}

func NewEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("payload", cel.MapType(cel.StringType, cel.DynType)),
		ext.Strings(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

func New(name string, cfg Config, log logger.Logger) (*Partner, error) {
	if name == "" {
		return nil, fmt.Errorf("expression partner requires a name")
	}
	if strings.TrimSpace(cfg.Phone) == "" {
		return nil, fmt.Errorf("partner %s: phone expression is required", name)
	}
	if strings.TrimSpace(cfg.Protocol) == "" {
		return nil, fmt.Errorf("partner %s: protocol expression is required", name)
	}
	if log == nil {
		log = logger.NopLogger()
	}

	env, err := NewEnv()
	if err != nil {
		return nil, err
	}

	p := &Partner{name: name, logger: log}
	fields := []struct {
		field string
		expr  string
		dst   *cel.Program
	}{
		{"phone", cfg.Phone, &p.phone},
		{"protocol", cfg.Protocol, &p.protocol},
		{"message_id", cfg.MessageID, &p.messageID},
		{"conversation_id", cfg.ConversationID, &p.conversationID},
		{"timestamp", cfg.Timestamp, &p.timestamp},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.expr) == "" {
			continue
		}
		prg, err := compile(env, f.expr)
		if err != nil {
			return nil, fmt.Errorf("partner %s: %s expression: %w", name, f.field, err)
		}
		*f.dst = prg
	}

	return p, nil
}

func compile(env *cel.Env, expression string) (cel.Program, error) {
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}
	return program, nil
}

func (p *Partner) Name() string {
	return p.name
}

func (p *Partner) ProcessMessage(ctx context.Context, payload models.Payload) (lead *models.Lead) {
	if logging.GetPartner(ctx) == "" {
		ctx = logging.WithPartner(ctx, p.name)
	}

	ctx, span := tracing.GetTracer(constants.ServiceName).Start(ctx, "expression.process_message")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorwCtx(ctx, "Failed to process partner message",
				"error", errors.RecoverPanic(r),
			)
			lead = nil
		}
	}()

	lead, err := p.Extract(ctx, payload)
	if err != nil {
		if !errors.IsExtractionMiss(err) {
			span.RecordError(err)
			p.logger.ErrorwCtx(ctx, "Failed to process partner message", "error", err)
			return nil
		}
		if stderrors.Is(err, errors.ErrMissingProtocol) {
			p.logger.WarnwCtx(ctx, "Protocol not found in message", "error", err)
		} else {
			p.logger.WarnwCtx(ctx, "Phone not found in message", "error", err)
		}
		return nil
	}

	p.logger.InfowCtx(ctx, "Lead extracted",
		"protocol", lead.Protocol,
		"phone", lead.Phone,
	)
	return lead
}

// Extract evaluates the configured expressions against payload.
func (p *Partner) Extract(ctx context.Context, payload models.Payload) (*models.Lead, error) {
	vars := map[string]interface{}{
		"payload": map[string]interface{}(payload),
	}

	protocol, err := p.evalString(ctx, p.protocol, vars)
	if err != nil {
		return nil, errors.ErrMalformedPayload.WithCause(fmt.Errorf("protocol: %w", err))
	}
	protocol = strings.TrimSpace(protocol)
	if protocol == "" {
		return nil, errors.ErrMissingProtocol
	}

	rawPhone, err := p.evalString(ctx, p.phone, vars)
	if err != nil {
		return nil, errors.ErrMalformedPayload.WithCause(fmt.Errorf("phone: %w", err))
	}
	phone := models.NormalizePhone(rawPhone)
	if phone == "" {
		return nil, errors.ErrMissingPhone
	}

	messageID, err := p.evalString(ctx, p.messageID, vars)
	if err != nil {
		return nil, errors.ErrMalformedPayload.WithCause(fmt.Errorf("message_id: %w", err))
	}
	conversationID, err := p.evalString(ctx, p.conversationID, vars)
	if err != nil {
		return nil, errors.ErrMalformedPayload.WithCause(fmt.Errorf("conversation_id: %w", err))
	}
	timestamp, err := p.eval(ctx, p.timestamp, vars)
	if err != nil {
		return nil, errors.ErrMalformedPayload.WithCause(fmt.Errorf("timestamp: %w", err))
	}

	return models.NewLead(phone, protocol,
		models.WithMessageID(messageID),
		models.WithConversationID(conversationID),
		models.WithTimestamp(timestamp),
	)
}

func (p *Partner) eval(ctx context.Context, prg cel.Program, vars map[string]interface{}) (interface{}, error) {
	if prg == nil {
		return nil, nil
	}
	val, _, err := prg.ContextEval(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}
	if val == types.NullValue {
		return nil, nil
	}
	return val.Value(), nil
}

func (p *Partner) evalString(ctx context.Context, prg cel.Program, vars map[string]interface{}) (string, error) {
	v, err := p.eval(ctx, prg, vars)
	if err != nil {
		return "", err
	}
	return models.Stringify(v), nil
}
