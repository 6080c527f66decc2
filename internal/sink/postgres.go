package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"leadhook/internal/constants"
	"leadhook/internal/logger"
	"leadhook/pkg/metrics"
	"leadhook/pkg/models"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresSink stores events in a single table. An event is dropped when its
// id, or its (partner, message_id) pair for a non-empty message id, is
// already stored, so a redelivered message inserts at most one row.
type PostgresSink struct {
	db     *sql.DB
	table  string
	logger logger.Logger
}

func NewPostgresSink(db *sql.DB, table string, log logger.Logger) (*PostgresSink, error) {
	if table == "" {
		table = constants.DefaultLeadTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	if log == nil {
		log = logger.NopLogger()
	}
	return &PostgresSink{db: db, table: table, logger: log}, nil
}

func (s *PostgresSink) createTableQuery() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id              UUID PRIMARY KEY,
	partner         TEXT NOT NULL,
	phone           TEXT NOT NULL,
	protocol        TEXT NOT NULL,
	message_id      TEXT NOT NULL DEFAULT '',
	conversation_id TEXT NOT NULL DEFAULT '',
	origin_timestamp JSONB,
	received_at     TIMESTAMPTZ NOT NULL
)`, s.table)
}

func (s *PostgresSink) createMessageIndexQuery() string {
	return fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s_partner_message_id_key
	ON %s (partner, message_id) WHERE message_id <> ''`, s.table, s.table)
}

func (s *PostgresSink) insertQuery() string {
	return fmt.Sprintf(`INSERT INTO %s
	(id, partner, phone, protocol, message_id, conversation_id, origin_timestamp, received_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT DO NOTHING`, s.table)
}

func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.createTableQuery()); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	if _, err := s.db.ExecContext(ctx, s.createMessageIndexQuery()); err != nil {
		return fmt.Errorf("failed to create message index on %s: %w", s.table, err)
	}
	s.logger.Infow("Lead table ready", "table", s.table)
	return nil
}

func (s *PostgresSink) Publish(ctx context.Context, event *models.LeadEvent) error {
	ts, err := timestampColumn(event.Lead.Timestamp)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = s.db.ExecContext(ctx, s.insertQuery(),
		event.ID,
		event.Partner,
		event.Lead.Phone,
		event.Lead.Protocol,
		event.Lead.MessageID,
		event.Lead.ConversationID,
		ts,
		event.ReceivedAt,
	)
	metrics.ObserveSinkPublish(constants.SinkTypePostgres, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert lead event %s: %w", event.ID, err)
	}
	return nil
}

// Close is a no-op: the connection pool belongs to the caller.
func (s *PostgresSink) Close() error {
	return nil
}

// timestampColumn keeps the origin-defined timestamp as JSON so numbers and
// strings survive unchanged.
func timestampColumn(ts interface{}) (interface{}, error) {
	if ts == nil {
		return nil, nil
	}
	raw, err := json.Marshal(ts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode lead timestamp: %w", err)
	}
	return string(raw), nil
}
