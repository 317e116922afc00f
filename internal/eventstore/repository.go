// Package eventstore persists the state-change events reported by the
// status monitor so they can be listed after the monitor has moved on.
package eventstore

import (
	"database/sql"
	"fmt"
	"time"

	"nathanbeddoewebdev/oshost/internal/database"
)

// Repository defines the persistence interface for event records.
type Repository interface {
	// Save inserts record and assigns its ID.
	Save(record *EventRecord) error

	// ListRecent returns the most recent n records, newest first.
	ListRecent(n int) ([]EventRecord, error)

	// ListByCorrelationID returns the most recent n records for one
	// correlation ID, newest first.
	ListByCorrelationID(correlationID string, n int) ([]EventRecord, error)

	// DeleteOlderThan removes records observed more than d ago and
	// returns how many were removed.
	DeleteOlderThan(d time.Duration) (int64, error)

	Close() error
}

// SQLiteRepository implements Repository on the shared SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// Open creates or opens the event repository at the default path.
func Open() (*SQLiteRepository, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	return OpenAt(path)
}

// OpenAt creates or opens the event repository at path.
func OpenAt(path string) (*SQLiteRepository, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS events (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			observed_at    TEXT    NOT NULL,
			region         TEXT    NOT NULL DEFAULT '',
			server_id      TEXT    NOT NULL,
			host           TEXT    NOT NULL DEFAULT '',
			state          TEXT    NOT NULL,
			status         TEXT    NOT NULL DEFAULT '',
			correlation_id TEXT    NOT NULL DEFAULT '',
			tags           TEXT    NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_events_observed_at ON events(observed_at);
		CREATE INDEX IF NOT EXISTS idx_events_correlation_id ON events(correlation_id);
	`
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("events: migration failed: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Save(record *EventRecord) error {
	if record.ObservedAt.IsZero() {
		record.ObservedAt = time.Now()
	}
	record.ObservedAt = record.ObservedAt.UTC()

	result, err := r.db.Exec(`
		INSERT INTO events (observed_at, region, server_id, host, state, status, correlation_id, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ObservedAt.Format(time.RFC3339Nano), record.Region, record.ServerID, record.Host,
		record.State, record.Status, record.CorrelationID, joinTags(record.Tags),
	)
	if err != nil {
		return fmt.Errorf("events: insert failed: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("events: failed to get last insert ID: %w", err)
	}
	record.ID = id
	return nil
}

const selectColumns = `SELECT id, observed_at, region, server_id, host, state, status, correlation_id, tags FROM events`

func (r *SQLiteRepository) ListRecent(n int) ([]EventRecord, error) {
	rows, err := r.db.Query(selectColumns+` ORDER BY observed_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("events: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (r *SQLiteRepository) ListByCorrelationID(correlationID string, n int) ([]EventRecord, error) {
	rows, err := r.db.Query(selectColumns+` WHERE correlation_id = ? ORDER BY observed_at DESC, id DESC LIMIT ?`, correlationID, n)
	if err != nil {
		return nil, fmt.Errorf("events: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (r *SQLiteRepository) DeleteOlderThan(d time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-d).Format(time.RFC3339Nano)
	result, err := r.db.Exec(`DELETE FROM events WHERE observed_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("events: delete failed: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanRows(rows *sql.Rows) ([]EventRecord, error) {
	var records []EventRecord
	for rows.Next() {
		var record EventRecord
		var observed, tags string
		err := rows.Scan(
			&record.ID, &observed, &record.Region, &record.ServerID, &record.Host,
			&record.State, &record.Status, &record.CorrelationID, &tags,
		)
		if err != nil {
			return nil, fmt.Errorf("events: scan failed: %w", err)
		}
		record.ObservedAt, _ = time.Parse(time.RFC3339Nano, observed)
		record.Tags = splitTags(tags)
		records = append(records, record)
	}
	return records, rows.Err()
}
