package dedup

import (
	"context"
	"fmt"
	"time"

	"leadhook/internal/config"
	"leadhook/pkg/circuitbreaker"
)

const breakerName = "redis-dedup"

type CircuitBreakerRepository struct {
	repo Repository
	cb   *circuitbreaker.Wrapper
}

// NewCircuitBreakerRepository wraps repo in a breaker. When the breaker is
// disabled in cfg, calls go straight to repo.
func NewCircuitBreakerRepository(repo Repository, cfg config.CircuitBreakerConfig) *CircuitBreakerRepository {
	if !cfg.Enabled {
		return &CircuitBreakerRepository{repo: repo}
	}

	cbConfig := circuitbreaker.DefaultConfig(breakerName)
	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.IntervalSeconds > 0 {
		cbConfig.Interval = time.Duration(cfg.IntervalSeconds) * time.Second
	}
	if cfg.TimeoutSeconds > 0 {
		cbConfig.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.FailureRatio > 0 && cfg.MinRequests > 0 {
		cbConfig.ReadyToTrip = circuitbreaker.RatioTrip(cfg.MinRequests, cfg.FailureRatio)
	}

	return &CircuitBreakerRepository{
		repo: repo,
		cb:   circuitbreaker.NewWrapper(cbConfig),
	}
}

func (r *CircuitBreakerRepository) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if r.cb == nil {
		return r.repo.SetNX(ctx, key, value, ttl)
	}

	result, err := r.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return r.repo.SetNX(ctx, key, value, ttl)
	})
	if err != nil {
		if r.cb.IsOpen() {
			return false, fmt.Errorf("circuit breaker is open for %s: %w", breakerName, err)
		}
		return false, err
	}

	success, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("repository returned invalid result type")
	}
	return success, nil
}

func (r *CircuitBreakerRepository) Del(ctx context.Context, key string) error {
	if r.cb == nil {
		return r.repo.Del(ctx, key)
	}

	_, err := r.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, r.repo.Del(ctx, key)
	})
	if err != nil && r.cb.IsOpen() {
		return fmt.Errorf("circuit breaker is open for %s: %w", breakerName, err)
	}
	return err
}

func (r *CircuitBreakerRepository) State() string {
	if r.cb == nil {
		return "disabled"
	}
	return r.cb.State().String()
}
