package history

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/randalmurphal/tenanthub/pkg/tenanthub/event"
)

// SQLiteStore persists event history to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) a history database.
// The path should be a file path (e.g., "./history.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS event_history (
			tenant TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			event_id TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			source TEXT NOT NULL,
			response_id TEXT NOT NULL DEFAULT '',
			data BLOB,
			timestamp TEXT NOT NULL,
			PRIMARY KEY (tenant, event_id)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_event_history_tenant_seq
		ON event_history(tenant, sequence)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Record implements Store.
func (s *SQLiteStore) Record(tenant string, evt *event.Event) error {
	rec, err := newRecord(tenant, evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err = s.db.Exec(`
		INSERT INTO event_history (tenant, sequence, event_id, name, type, source, response_id, data, timestamp)
		VALUES (
			?,
			COALESCE((SELECT MAX(sequence) FROM event_history WHERE tenant = ?), 0) + 1,
			?, ?, ?, ?, ?, ?, ?
		)
		ON CONFLICT(tenant, event_id) DO NOTHING
	`, tenant, tenant, rec.EventID, rec.Name, rec.Type, rec.Source, rec.ResponseID, rec.Data,
		rec.Timestamp.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(tenant string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.Query(`
		SELECT tenant, sequence, event_id, name, type, source, response_id, data, timestamp
		FROM (
			SELECT * FROM event_history
			WHERE tenant = ?
			ORDER BY sequence DESC
			LIMIT ?
		)
		ORDER BY sequence
	`, tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(tenant, eventID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Record{}, ErrStoreClosed
	}

	row := s.db.QueryRow(`
		SELECT tenant, sequence, event_id, name, type, source, response_id, data, timestamp
		FROM event_history
		WHERE tenant = ? AND event_id = ?
	`, tenant, eventID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// Count implements Store.
func (s *SQLiteStore) Count(tenant string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM event_history WHERE tenant = ?`, tenant).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// DeleteTenant implements Store.
func (s *SQLiteStore) DeleteTenant(tenant string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM event_history WHERE tenant = ?`, tenant); err != nil {
		return fmt.Errorf("delete tenant history: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var timestamp string
	if err := row.Scan(&rec.Tenant, &rec.Sequence, &rec.EventID, &rec.Name, &rec.Type,
		&rec.Source, &rec.ResponseID, &rec.Data, &timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan history record: %w", err)
	}
	rec.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
	return rec, nil
}
