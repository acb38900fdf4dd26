package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/iho/vaultledger/internal/domain"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

const createEventsTableSQL = `CREATE TABLE IF NOT EXISTS %s (
	id             String,
	event_type     LowCardinality(String),
	aggregate_type LowCardinality(String),
	aggregate_id   String,
	payload        String,
	created_at     DateTime64(3, 'UTC'),
	archived_at    DateTime64(3, 'UTC')
) ENGINE = ReplacingMergeTree(archived_at)
ORDER BY (aggregate_type, aggregate_id, id)`

const insertEventSQL = `INSERT INTO %s (id, event_type, aggregate_type, aggregate_id, payload, created_at, archived_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

// clickhouseConn is the subset of driver.Conn the archive uses.
type clickhouseConn interface {
	Exec(ctx context.Context, query string, args ...any) error
	Close() error
}

// ClickHousePublisher archives outbox events in a ClickHouse table.
// Redelivered events collapse on id through ReplacingMergeTree.
type ClickHousePublisher struct {
	conn   clickhouseConn
	insert string
	now    func() time.Time
}

// OpenClickHouse connects with dsn and creates the archive table when missing.
func OpenClickHouse(ctx context.Context, dsn, table string) (*ClickHousePublisher, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ClickHouse DSN: %w", err)
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	p, err := NewClickHousePublisher(conn, table)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := p.EnsureTable(ctx, table); err != nil {
		conn.Close()
		return nil, err
	}

	return p, nil
}

// NewClickHousePublisher writes to table over conn.
func NewClickHousePublisher(conn clickhouseConn, table string) (*ClickHousePublisher, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid ClickHouse table name %q", table)
	}
	return &ClickHousePublisher{
		conn:   conn,
		insert: fmt.Sprintf(insertEventSQL, table),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// EnsureTable creates the archive table.
func (p *ClickHousePublisher) EnsureTable(ctx context.Context, table string) error {
	if err := p.conn.Exec(ctx, fmt.Sprintf(createEventsTableSQL, table)); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// Publish inserts event as one archive row.
func (p *ClickHousePublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}

	err = p.conn.Exec(ctx, p.insert,
		event.ID,
		event.EventType,
		event.AggregateType,
		event.AggregateID,
		string(payload),
		event.CreatedAt.UTC(),
		p.now(),
	)
	if err != nil {
		return fmt.Errorf("archive event %s: %w", event.ID, err)
	}
	return nil
}

// Close closes the connection.
func (p *ClickHousePublisher) Close() error {
	return p.conn.Close()
}
