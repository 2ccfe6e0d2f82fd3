package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Kavirubc/gitscout/pkg/models"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	id     INTEGER PRIMARY KEY CHECK (id = 1),
	filter TEXT    NOT NULL,
	target TEXT    NOT NULL,
	active INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS seen_issues (
	id INTEGER PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS last_fetch (
	pos  INTEGER PRIMARY KEY,
	item TEXT    NOT NULL
);`

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// SQLiteStore keeps the state in an SQLite database. The seen set is a table
// of ids; since it only ever grows, Save inserts and never deletes from it.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load reads the state. An empty database is initialized with the default.
func (s *SQLiteStore) Load(ctx context.Context) (*models.State, error) {
	var (
		filterJSON, targetJSON string
		active                 bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT filter, target, active FROM settings WHERE id = 1`,
	).Scan(&filterJSON, &targetJSON, &active)
	if errors.Is(err, sql.ErrNoRows) {
		st := models.NewState()
		if err := s.Save(ctx, st); err != nil {
			return nil, err
		}
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load settings: %w", err)
	}

	var r record
	if err := json.Unmarshal([]byte(filterJSON), &r.Search); err != nil {
		return nil, fmt.Errorf("sqlite: parse filter: %w", err)
	}
	if err := json.Unmarshal([]byte(targetJSON), &r.Notif); err != nil {
		return nil, fmt.Errorf("sqlite: parse target: %w", err)
	}
	r.IsActive = active

	if r.KnownIssueIDs, err = s.loadSeen(ctx); err != nil {
		return nil, err
	}
	if r.LastItems, err = s.loadLastFetch(ctx); err != nil {
		return nil, err
	}

	return fromRecord(r), nil
}

func (s *SQLiteStore) loadSeen(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM seen_issues`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load seen: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan seen: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) loadLastFetch(ctx context.Context) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT item FROM last_fetch ORDER BY pos`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load last fetch: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("sqlite: scan last fetch: %w", err)
		}
		var it models.Item
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			return nil, fmt.Errorf("sqlite: parse item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Save writes the full state in a single transaction
func (s *SQLiteStore) Save(ctx context.Context, st *models.State) error {
	filterJSON, err := json.Marshal(st.Filter)
	if err != nil {
		return fmt.Errorf("sqlite: marshal filter: %w", err)
	}
	targetJSON, err := json.Marshal(st.Target)
	if err != nil {
		return fmt.Errorf("sqlite: marshal target: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO settings (id, filter, target, active) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET filter = excluded.filter, target = excluded.target, active = excluded.active`,
		string(filterJSON), string(targetJSON), st.Active,
	); err != nil {
		return fmt.Errorf("sqlite: save settings: %w", err)
	}

	seenStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO seen_issues (id) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare seen: %w", err)
	}
	defer seenStmt.Close()
	for id := range st.SeenIDs {
		if _, err := seenStmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("sqlite: save seen %d: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM last_fetch`); err != nil {
		return fmt.Errorf("sqlite: clear last fetch: %w", err)
	}
	for i, it := range st.LastFetch {
		raw, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("sqlite: marshal item: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO last_fetch (pos, item) VALUES (?, ?)`, i, string(raw)); err != nil {
			return fmt.Errorf("sqlite: save last fetch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
