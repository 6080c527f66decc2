package partner

import (
	"fmt"

	"leadhook/internal/config"
	"leadhook/internal/constants"
	"leadhook/internal/logger"
	"leadhook/internal/partner/chat"
	"leadhook/internal/partner/expression"
)

func New(cfg config.PartnerConfig, log logger.Logger) (Partner, error) {
	switch cfg.Type {
	case constants.PartnerTypeChat, "":
		return chat.NewLeadExtractor(cfg.Name, log), nil
	case constants.PartnerTypeExpression:
		return expression.New(cfg.Name, expression.Config{
			Phone:          cfg.Expressions.Phone,
			Protocol:       cfg.Expressions.Protocol,
			MessageID:      cfg.Expressions.MessageID,
			ConversationID: cfg.Expressions.ConversationID,
			Timestamp:      cfg.Expressions.Timestamp,
		}, log)
	default:
		return nil, fmt.Errorf("unknown partner type: %s", cfg.Type)
	}
}

// Build creates a Registry holding one adapter per configured partner.
func Build(cfgs []config.PartnerConfig, log logger.Logger) (*Registry, error) {
	registry := NewRegistry()
	for _, cfg := range cfgs {
		p, err := New(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create partner %q: %w", cfg.Name, err)
		}
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	if registry.Len() == 0 {
		return nil, fmt.Errorf("no partners configured")
	}
	return registry, nil
}
