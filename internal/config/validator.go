package config

import (
	"fmt"
	"regexp"
	"strings"

	"leadhook/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validatePartners(cfg.Partners); err != nil {
		errors = append(errors, err)
	}

	if err := validateDatabase(cfg.Database); err != nil {
		errors = append(errors, err)
	}

	if err := validateDedup(cfg.Dedup, cfg.Database.Redis); err != nil {
		errors = append(errors, err)
	}

	if err := validateSink(cfg.Sink, cfg.Database.Postgres); err != nil {
		errors = append(errors, err)
	}

	if err := validateTracing(cfg.Tracing); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validatePartners(partners []PartnerConfig) error {
	seen := make(map[string]bool, len(partners))

	for i, p := range partners {
		field := fmt.Sprintf("partners[%d]", i)

		if p.Name == "" {
			return &ValidationError{
				Field:   field + ".name",
				Message: "partner name is required",
			}
		}

		if seen[p.Name] {
			return &ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate partner name: %s", p.Name),
			}
		}
		seen[p.Name] = true

		switch p.Type {
		case constants.PartnerTypeChat:
		case constants.PartnerTypeExpression:
			if strings.TrimSpace(p.Expressions.Phone) == "" {
				return &ValidationError{
					Field:   field + ".expressions.phone",
					Message: "phone expression is required for expression partners",
				}
			}
			if strings.TrimSpace(p.Expressions.Protocol) == "" {
				return &ValidationError{
					Field:   field + ".expressions.protocol",
					Message: "protocol expression is required for expression partners",
				}
			}
		default:
			return &ValidationError{
				Field:   field + ".type",
				Message: fmt.Sprintf("unknown partner type: %s (supported: chat, expression)", p.Type),
			}
		}
	}

	return nil
}

func validateDatabase(cfg DatabaseConfig) error {
	if cfg.Postgres.Host != "" || cfg.Postgres.Port > 0 {
		if err := validatePostgres(cfg.Postgres); err != nil {
			return err
		}
	}

	if cfg.Redis.Host != "" || cfg.Redis.Port > 0 {
		if err := validateRedis(cfg.Redis); err != nil {
			return err
		}
	}

	return nil
}

func validatePostgres(cfg PostgresConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.postgres.host",
			Message: "PostgreSQL host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.postgres.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.User == "" {
		return &ValidationError{
			Field:   "database.postgres.user",
			Message: "PostgreSQL user is required",
		}
	}

	if cfg.DBName == "" {
		return &ValidationError{
			Field:   "database.postgres.dbname",
			Message: "PostgreSQL database name is required",
		}
	}

	validSSLModes := map[string]bool{
		"disable": true, "allow": true, "prefer": true,
		"require": true, "verify-ca": true, "verify-full": true,
	}
	if cfg.SSLMode != "" && !validSSLModes[strings.ToLower(cfg.SSLMode)] {
		return &ValidationError{
			Field:   "database.postgres.sslmode",
			Message: fmt.Sprintf("invalid SSL mode: %s (valid: disable, allow, prefer, require, verify-ca, verify-full)", cfg.SSLMode),
		}
	}

	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "Redis host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.redis.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	return nil
}

func validateDedup(cfg DedupConfig, redis RedisConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if redis.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "Redis is required when dedup is enabled",
		}
	}

	if cfg.TTLSeconds <= 0 {
		return &ValidationError{
			Field:   "dedup.ttl_seconds",
			Message: "TTL must be positive",
		}
	}

	validOnError := map[string]bool{
		constants.FallbackAllow: true, constants.FallbackDeny: true,
	}
	if !validOnError[strings.ToLower(strings.TrimSpace(cfg.OnRedisError))] {
		return &ValidationError{
			Field:   "dedup.on_redis_error",
			Message: fmt.Sprintf("invalid on_redis_error value: %s (valid: allow, deny)", cfg.OnRedisError),
		}
	}

	return nil
}

func validateSink(cfg SinkConfig, postgres PostgresConfig) error {
	switch cfg.Type {
	case constants.SinkTypeLog:
		return nil
	case constants.SinkTypeKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return &ValidationError{
				Field:   "sink.kafka.brokers",
				Message: "at least one Kafka broker is required",
			}
		}
		for i, broker := range cfg.Kafka.Brokers {
			if broker == "" {
				return &ValidationError{
					Field:   fmt.Sprintf("sink.kafka.brokers[%d]", i),
					Message: "broker address cannot be empty",
				}
			}
		}
		if cfg.Kafka.Topic == "" {
			return &ValidationError{
				Field:   "sink.kafka.topic",
				Message: "Kafka topic is required",
			}
		}
		return nil
	case constants.SinkTypePostgres:
		if postgres.Host == "" {
			return &ValidationError{
				Field:   "database.postgres.host",
				Message: "PostgreSQL is required for the postgres sink",
			}
		}
		if !tableNamePattern.MatchString(cfg.Postgres.Table) {
			return &ValidationError{
				Field:   "sink.postgres.table",
				Message: fmt.Sprintf("invalid table name: %q", cfg.Postgres.Table),
			}
		}
		return nil
	default:
		return &ValidationError{
			Field:   "sink.type",
			Message: fmt.Sprintf("unknown sink type: %s (supported: kafka, postgres, log)", cfg.Type),
		}
	}
}

func validateTracing(cfg TracingConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.OTLP.Endpoint == "" {
		return &ValidationError{
			Field:   "tracing.otlp.endpoint",
			Message: "OTLP endpoint is required when tracing is enabled",
		}
	}

	switch cfg.Sampler.Type {
	case "", "always_on", "always_off", "parentbased_always_on":
	case "traceidratio", "parentbased_traceidratio":
		if cfg.Sampler.Param < 0 || cfg.Sampler.Param > 1 {
			return &ValidationError{
				Field:   "tracing.sampler.param",
				Message: fmt.Sprintf("sampler ratio must be between 0 and 1, got %v", cfg.Sampler.Param),
			}
		}
	default:
		return &ValidationError{
			Field:   "tracing.sampler.type",
			Message: fmt.Sprintf("unknown sampler type: %s", cfg.Sampler.Type),
		}
	}

	return nil
}
