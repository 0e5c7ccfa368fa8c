// Package store persists outline results in SQLite, keyed by the SHA-256 of
// the uploaded document bytes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/docoutline/internal/outline"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no result is stored under a content hash.
var ErrNotFound = errors.New("docoutline: result not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS outlines (
	content_hash TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	entries      INTEGER NOT NULL DEFAULT 0,
	result       TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outlines_created ON outlines(created_at);
`

// Record is one stored outline.
type Record struct {
	ContentHash string         `json:"content_hash"`
	Filename    string         `json:"filename"`
	Result      outline.Result `json:"result"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Summary is a Record without its outline body.
type Summary struct {
	ContentHash string    `json:"content_hash"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	Entries     int       `json:"entries"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store wraps the SQLite database holding outline results.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and creates the
// schema.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts or replaces the result stored under rec.ContentHash. A zero
// CreatedAt is set to the current time; an existing row keeps its original
// creation time.
func (s *Store) Put(ctx context.Context, rec Record) error {
	if rec.ContentHash == "" {
		return errors.New("docoutline: empty content hash")
	}
	if rec.Result.Outline == nil {
		rec.Result.Outline = []outline.Entry{}
	}
	body, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outlines (content_hash, filename, title, entries, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO UPDATE SET
			filename = excluded.filename,
			title = excluded.title,
			entries = excluded.entries,
			result = excluded.result
	`, rec.ContentHash, rec.Filename, rec.Result.Title, len(rec.Result.Outline), string(body),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put %s: %w", rec.ContentHash, err)
	}
	return nil
}

// Get returns the record stored under hash.
func (s *Store) Get(ctx context.Context, hash string) (*Record, error) {
	var (
		rec       Record
		body      string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT content_hash, filename, result, created_at
		FROM outlines WHERE content_hash = ?
	`, hash).Scan(&rec.ContentHash, &rec.Filename, &body, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", hash, err)
	}
	if err := json.Unmarshal([]byte(body), &rec.Result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", hash, err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at %s: %w", hash, err)
	}
	return &rec, nil
}

// List returns up to limit summaries, newest first. A non-positive limit
// returns every row.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT content_hash, filename, title, entries, created_at
		FROM outlines ORDER BY created_at DESC, content_hash LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list outlines: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sum Summary
		var createdAt string
		if err := rows.Scan(&sum.ContentHash, &sum.Filename, &sum.Title, &sum.Entries, &createdAt); err != nil {
			return nil, fmt.Errorf("scan outline: %w", err)
		}
		if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("decode created_at %s: %w", sum.ContentHash, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Count returns the number of stored results.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM outlines").Scan(&n); err != nil {
		return 0, fmt.Errorf("count outlines: %w", err)
	}
	return n, nil
}

// Delete removes the result stored under hash.
func (s *Store) Delete(ctx context.Context, hash string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM outlines WHERE content_hash = ?", hash)
	if err != nil {
		return fmt.Errorf("delete %s: %w", hash, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", hash, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	return nil
}
