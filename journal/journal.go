package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/blockloop/scan/v2"
	"github.com/go-sql-driver/mysql"
)

type Direction string

const (
	// Inbound events came from the device on the status topic.
	Inbound Direction = "status"
	// Outbound events are commands published on the control topic.
	Outbound Direction = "control"
)

const DefaultLimit = 50
const MaxLimit = 500

type Event struct {
	ID        int64     `db:"id" json:"id"`
	Direction Direction `db:"direction" json:"direction"`
	Topic     string    `db:"topic" json:"topic"`
	Payload   string    `db:"payload" json:"payload"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const createTable = `create table if not exists doorbell_events (
	id bigint not null auto_increment primary key,
	direction varchar(16) not null,
	topic varchar(255) not null,
	payload text not null,
	created_at datetime(3) not null,
	index idx_doorbell_events_created_at (created_at)
);`

// Journal is an append-only record of device traffic. It is an audit trail
// only; the live state is never restored from it.
type Journal struct {
	db *sql.DB
}

// NormalizeDSN makes sure datetime columns come back as time.Time.
func NormalizeDSN(dsn string) (string, error) {
	config, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid database uri: %w", err)
	}
	config.ParseTime = true
	if config.Loc == nil {
		config.Loc = time.UTC
	}
	return config.FormatDSN(), nil
}

func Open(ctx context.Context, dsn string) (*Journal, error) {
	normalized, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql database: %w", err)
	}

	db.SetConnMaxLifetime(time.Minute * 3)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to mysql database: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal table: %w", err)
	}

	return &Journal{db: db}, nil
}

func (journal *Journal) Record(ctx context.Context, event Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	query := "insert into doorbell_events (direction, topic, payload, created_at) values (?, ?, ?, ?);"
	if _, err := journal.db.ExecContext(ctx, query, event.Direction, event.Topic, event.Payload, event.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to record %s event: %w", event.Direction, err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (journal *Journal) Recent(ctx context.Context, limit int) ([]Event, error) {
	limit = ClampLimit(limit)

	query := "select id, direction, topic, payload, created_at from doorbell_events order by id desc limit ?;"
	rows, err := journal.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}

	events := make([]Event, 0)
	if err := scan.Rows(&events, rows); err != nil {
		return nil, fmt.Errorf("failed to scan journal rows: %w", err)
	}
	return events, nil
}

func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func (journal *Journal) Close() error {
	return journal.db.Close()
}
