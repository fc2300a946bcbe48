package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS model_state (
	target     TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	n_updates  INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);`

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// SQLiteStore keeps model states as JSON documents in an SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	for _, p := range sqlitePragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load reads the state of target.
func (s *SQLiteStore) Load(ctx context.Context, target string) (*State, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM model_state WHERE target = ?`, target).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load %s: %w", target, err)
	}
	var st State
	if err := json.Unmarshal([]byte(doc), &st); err != nil {
		return nil, fmt.Errorf("sqlite: decode %s: %w", target, err)
	}
	st.Repair()
	return &st, nil
}

// Save upserts the state of target.
func (s *SQLiteStore) Save(ctx context.Context, target string, state *State) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("sqlite: encode %s: %w", target, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO model_state (target, state, n_updates, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(target) DO UPDATE SET
			state = excluded.state,
			n_updates = excluded.n_updates,
			updated_at = excluded.updated_at`,
		target, string(doc), state.NUpdates, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("sqlite: save %s: %w", target, err)
	}
	return nil
}

// Targets lists the stored targets.
func (s *SQLiteStore) Targets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT target FROM model_state ORDER BY target`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: targets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
