// Package dedup suppresses leads that a partner delivers more than once.
package dedup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadhook/internal/config"
	"leadhook/internal/constants"
	"leadhook/internal/logger"
	"leadhook/pkg/metrics"
	"leadhook/pkg/models"
	"leadhook/pkg/tracing"
)

type Service struct {
	repo   Repository
	cfg    config.DedupConfig
	logger logger.Logger
}

// NewService returns a Service backed by repo. A disabled cfg or a nil repo
// makes every lead unique.
func NewService(repo Repository, cfg config.DedupConfig, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger()
	}
	if cfg.TTLSeconds <= 0 {
		cfg.TTLSeconds = constants.DefaultDedupTTLSeconds
	}
	return &Service{
		repo:   repo,
		cfg:    cfg,
		logger: log,
	}
}

// Key is the Redis key a lead from partner is recorded under.
func Key(partner string, lead *models.Lead) string {
	if lead.MessageID != "" {
		return constants.CacheKeyPrefixDedup + partner + ":" + lead.MessageID
	}
	return constants.CacheKeyPrefixDedup + partner + ":" + lead.Phone + ":" + lead.Protocol
}

// IsUnique records the lead and reports whether it was seen for the first
// time within the TTL window.
func (s *Service) IsUnique(ctx context.Context, partner string, lead *models.Lead) (bool, error) {
	if !s.cfg.Enabled || s.repo == nil {
		return true, nil
	}

	ctx, span := tracing.GetTracer(constants.ServiceName).Start(ctx, "dedup.is_unique")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := Key(partner, lead)
	start := time.Now()
	unique, err := s.repo.SetNX(ctx, key, start.Unix(), time.Duration(s.cfg.TTLSeconds)*time.Second)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		metrics.ObserveDedupDuration(duration, "error")
		return s.handleRedisError(ctx, err, key)
	}

	status := "duplicate"
	if unique {
		status = "unique"
	}
	metrics.ObserveDedupDuration(duration, status)
	return unique, nil
}

// Release forgets a lead recorded by IsUnique so that a redelivery is treated
// as new. Called when the lead could not be handed downstream.
func (s *Service) Release(ctx context.Context, partner string, lead *models.Lead) error {
	if !s.cfg.Enabled || s.repo == nil {
		return nil
	}

	key := Key(partner, lead)
	if err := s.repo.Del(ctx, key); err != nil {
		return fmt.Errorf("failed to release dedup key %s: %w", key, err)
	}
	return nil
}

func (s *Service) handleRedisError(ctx context.Context, err error, key string) (bool, error) {
	if strings.EqualFold(strings.TrimSpace(s.cfg.OnRedisError), constants.FallbackDeny) {
		metrics.FallbackUsageTotal.WithLabelValues("dedup", "deny_on_error").Inc()
		return false, fmt.Errorf("redis error during dedup check for %s: %w", key, err)
	}

	metrics.FallbackUsageTotal.WithLabelValues("dedup", "allow_on_error").Inc()
	s.logger.WarnwCtx(ctx, "Redis error during dedup check, allowing lead (fallback: allow)",
		"key", key,
		"error", err,
	)
	return true, nil
}
