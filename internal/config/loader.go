package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"leadhook/internal/constants"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnvVariables()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyPartnerDefaults(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout_seconds", 10)
	viper.SetDefault("server.write_timeout_seconds", 10)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("dedup.ttl_seconds", constants.DefaultDedupTTLSeconds)
	viper.SetDefault("dedup.on_redis_error", constants.FallbackAllow)

	viper.SetDefault("sink.type", constants.SinkTypeLog)
	viper.SetDefault("sink.kafka.topic", constants.DefaultLeadTopic)
	viper.SetDefault("sink.postgres.table", constants.DefaultLeadTable)

	viper.SetDefault("tracing.service_name", constants.ServiceName)
	viper.SetDefault("tracing.otlp.endpoint", "localhost:4317")
	viper.SetDefault("tracing.otlp.insecure", true)
	viper.SetDefault("tracing.sampler.type", "always_on")
	viper.SetDefault("tracing.sampler.param", 1.0)
}

func bindEnvVariables() {
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("logging.level", "LOGGING_LEVEL")

	viper.BindEnv("dedup.enabled", "DEDUP_ENABLED")

	viper.BindEnv("database.postgres.host", "DATABASE_POSTGRES_HOST")
	viper.BindEnv("database.postgres.port", "DATABASE_POSTGRES_PORT")
	viper.BindEnv("database.postgres.user", "DATABASE_POSTGRES_USER")
	viper.BindEnv("database.postgres.password", "DATABASE_POSTGRES_PASSWORD")
	viper.BindEnv("database.postgres.dbname", "DATABASE_POSTGRES_DBNAME")
	viper.BindEnv("database.postgres.sslmode", "DATABASE_POSTGRES_SSLMODE")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("sink.type", "SINK_TYPE")
	viper.BindEnv("sink.kafka.topic", "SINK_KAFKA_TOPIC")

	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.sampler.type", "TRACING_SAMPLER_TYPE")
	viper.BindEnv("tracing.sampler.param", "TRACING_SAMPLER_PARAM")
}

func applyEnvOverrides(cfg *Config) {
	if brokersEnv := viper.GetString("SINK_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Sink.Kafka.Brokers = brokers
		}
	}

	cfg.Dedup.OnRedisError = strings.ToLower(strings.TrimSpace(cfg.Dedup.OnRedisError))
	cfg.Tracing.Sampler.Type = strings.ToLower(strings.TrimSpace(cfg.Tracing.Sampler.Type))
}

// applyPartnerDefaults registers the built-in chat extractor when the file
// declares no partners, and fills in a missing type.
func applyPartnerDefaults(cfg *Config) {
	if len(cfg.Partners) == 0 {
		cfg.Partners = []PartnerConfig{{
			Name: constants.DefaultPartnerName,
			Type: constants.PartnerTypeChat,
		}}
		return
	}
	for i := range cfg.Partners {
		if cfg.Partners[i].Type == "" {
			cfg.Partners[i].Type = constants.PartnerTypeChat
		}
	}
}
