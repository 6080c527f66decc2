package config

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Partners       []PartnerConfig      `mapstructure:"partners"`
	Dedup          DedupConfig          `mapstructure:"dedup"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Sink           SinkConfig           `mapstructure:"sink"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port                int `mapstructure:"port"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type PartnerConfig struct {
	Name        string           `mapstructure:"name"`
	Type        string           `mapstructure:"type"` // "chat", "expression"
	Expressions ExpressionConfig `mapstructure:"expressions"`
}

// ExpressionConfig holds CEL expressions evaluated against the variable
// `payload` for partners of type "expression".
type ExpressionConfig struct {
	Phone          string `mapstructure:"phone"`
	Protocol       string `mapstructure:"protocol"`
	MessageID      string `mapstructure:"message_id"`
	ConversationID string `mapstructure:"conversation_id"`
	Timestamp      string `mapstructure:"timestamp"`
}

type DedupConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	TTLSeconds   int    `mapstructure:"ttl_seconds"`
	OnRedisError string `mapstructure:"on_redis_error"` // "allow", "deny"
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SinkConfig struct {
	Type     string             `mapstructure:"type"` // "kafka", "postgres", "log"
	Kafka    KafkaSinkConfig    `mapstructure:"kafka"`
	Postgres PostgresSinkConfig `mapstructure:"postgres"`
}

type KafkaSinkConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type PostgresSinkConfig struct {
	Table string `mapstructure:"table"`
}

type CircuitBreakerConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	MaxRequests     uint32  `mapstructure:"max_requests"`
	IntervalSeconds int     `mapstructure:"interval_seconds"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds"`
	FailureRatio    float64 `mapstructure:"failure_ratio"`
	MinRequests     uint32  `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"` // "always_on", "always_off", "traceidratio", "parentbased_always_on", "parentbased_traceidratio"
	Param float64 `mapstructure:"param"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
