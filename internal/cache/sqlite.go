package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS responses (
	key       TEXT PRIMARY KEY,
	body      BLOB NOT NULL,
	stored_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_responses_stored_at ON responses(stored_at);
`

// SQLite persists responses in a single SQLite table.
type SQLite struct {
	conn *sql.DB
	ttl  time.Duration
	now  func() time.Time
}

var _ Cache = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(dsn string, ttl time.Duration) (*SQLite, error) {
	if dsn == "" {
		return nil, fmt.Errorf("cache: sqlite path is required")
	}
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cache: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	if _, err := conn.Exec(sqliteSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: apply schema: %w", err)
	}
	return &SQLite{conn: conn, ttl: ttl, now: time.Now}, nil
}

// Get returns the stored body unless it is older than the TTL.
func (s *SQLite) Get(key string) ([]byte, bool, error) {
	var body []byte
	var storedAt time.Time
	err := s.conn.QueryRow(`SELECT body, stored_at FROM responses WHERE key = ?`, key).Scan(&body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get: %w", err)
	}
	if s.expired(storedAt) {
		return nil, false, nil
	}
	return body, true, nil
}

// Set upserts the body and refreshes its timestamp.
func (s *SQLite) Set(key string, value []byte) error {
	_, err := s.conn.Exec(`
		INSERT INTO responses (key, body, stored_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			body      = excluded.body,
			stored_at = excluded.stored_at
	`, key, value, s.now().UTC())
	if err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}

// Delete removes a single entry.
func (s *SQLite) Delete(key string) error {
	if _, err := s.conn.Exec(`DELETE FROM responses WHERE key = ?`, key); err != nil {
		return fmt.Errorf("cache: delete: %w", err)
	}
	return nil
}

// Purge removes every expired entry and reports how many were dropped.
func (s *SQLite) Purge() (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res, err := s.conn.Exec(`DELETE FROM responses WHERE stored_at < ?`, s.now().Add(-s.ttl).UTC())
	if err != nil {
		return 0, fmt.Errorf("cache: purge: %w", err)
	}
	return res.RowsAffected()
}

// Len returns the number of stored rows, expired ones included.
func (s *SQLite) Len() (int, error) {
	var n int
	if err := s.conn.QueryRow(`SELECT count(*) FROM responses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache: count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) expired(storedAt time.Time) bool {
	return s.ttl > 0 && s.now().Sub(storedAt) > s.ttl
}
