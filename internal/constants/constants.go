package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	ShutdownTimeout    = 5 * time.Second
	HealthCheckTimeout = 5 * time.Second
)

const (
	CacheKeyPrefixDedup    = "dedup:"
	DefaultDedupTTLSeconds = 86400
)

const (
	DefaultLeadTopic = "leads"
	DefaultLeadTable = "leads"
)

const (
	DefaultPartnerName = "chat"
)

const (
	PartnerTypeChat       = "chat"
	PartnerTypeExpression = "expression"
)

const (
	SinkTypeKafka    = "kafka"
	SinkTypePostgres = "postgres"
	SinkTypeLog      = "log"
)

const (
	FallbackAllow = "allow"
	FallbackDeny  = "deny"
)

const (
	ServiceName = "lead-service"
)
