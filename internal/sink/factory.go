package sink

import (
	"context"
	"database/sql"
	"fmt"

	"leadhook/internal/config"
	"leadhook/internal/constants"
	"leadhook/internal/logger"
)

// New builds the sink selected by cfg.Type. db is only used by the postgres
// sink and may be nil otherwise.
func New(ctx context.Context, cfg config.SinkConfig, db *sql.DB, log logger.Logger) (Sink, error) {
	switch cfg.Type {
	case constants.SinkTypeKafka:
		return NewKafkaSink(cfg.Kafka, log), nil
	case constants.SinkTypePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres sink requires a database connection")
		}
		s, err := NewPostgresSink(db, cfg.Postgres.Table, log)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case constants.SinkTypeLog, "":
		return NewLogSink(log), nil
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Type)
	}
}
