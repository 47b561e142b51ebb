package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Statuses recorded per resolution.
const (
	StatusResolved  = "resolved"
	StatusSuggested = "suggested"
	StatusReview    = "review"
)

// Record is one resolution outcome.
type Record struct {
	ID            int64
	DiscSignature string
	DriveLabel    string
	Query         string
	Title         string
	Year          string
	ImdbID        string
	Confidence    float64
	Source        string
	Status        string
	CreatedAt     time.Time
}

// Store persists resolution history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS resolutions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    disc_signature TEXT NOT NULL DEFAULT '',
    drive_label TEXT NOT NULL DEFAULT '',
    query TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL,
    year TEXT NOT NULL DEFAULT '',
    imdb_id TEXT NOT NULL DEFAULT '',
    confidence REAL NOT NULL DEFAULT 0,
    source TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'resolved',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_resolutions_signature ON resolutions(disc_signature);
`

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add inserts one record, stamping CreatedAt when unset, and returns it
// with its assigned id.
func (s *Store) Add(ctx context.Context, rec Record) (Record, error) {
	if strings.TrimSpace(rec.Title) == "" {
		return Record{}, errors.New("history record title required")
	}
	if rec.Status == "" {
		rec.Status = StatusResolved
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO resolutions
    (disc_signature, drive_label, query, title, year, imdb_id, confidence, source, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.DiscSignature, rec.DriveLabel, rec.Query, rec.Title, rec.Year,
		rec.ImdbID, rec.Confidence, rec.Source, rec.Status,
		rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return Record{}, fmt.Errorf("insert history record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("history record id: %w", err)
	}
	rec.ID = id
	return rec, nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, disc_signature, drive_label, query, title, year, imdb_id, confidence, source, status, created_at
FROM resolutions
ORDER BY id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// BySignature returns the most recent record for a disc signature, or
// false when the disc has never been resolved.
func (s *Store) BySignature(ctx context.Context, signature string) (Record, bool, error) {
	if strings.TrimSpace(signature) == "" {
		return Record{}, false, nil
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, disc_signature, drive_label, query, title, year, imdb_id, confidence, source, status, created_at
FROM resolutions
WHERE disc_signature = ?
ORDER BY id DESC
LIMIT 1`, signature)
	if err != nil {
		return Record{}, false, fmt.Errorf("query history by signature: %w", err)
	}
	defer rows.Close()
	records, err := scanRecords(rows)
	if err != nil {
		return Record{}, false, err
	}
	if len(records) == 0 {
		return Record{}, false, nil
	}
	return records[0], true, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		var created string
		if err := rows.Scan(&rec.ID, &rec.DiscSignature, &rec.DriveLabel, &rec.Query,
			&rec.Title, &rec.Year, &rec.ImdbID, &rec.Confidence, &rec.Source,
			&rec.Status, &created); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, created); err == nil {
			rec.CreatedAt = ts
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history records: %w", err)
	}
	return records, nil
}
