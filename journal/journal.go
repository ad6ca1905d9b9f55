// Package journal keeps an optional SQLite log of fetch outcomes so operators
// can see when the upstream endpoint was slow, failing or stuck on a day.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded fetch.
type Entry struct {
	ID        int64
	RequestID string
	FetchedAt time.Time
	Elapsed   time.Duration
	Day       int
	Cash      float64
	Hash      uint64
	Bytes     int
	Error     string
}

// OK reports whether the fetch succeeded.
func (e Entry) OK() bool { return e.Error == "" }

// Journal appends fetch outcomes to a SQLite database.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the database at path and ensures the schema exists.
// A journal that fails Preflight is moved aside and replaced.
func Open(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal: ensure dir: %w", err)
	}
	if _, err := Preflight(path, preflightTimeout); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func initSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS fetches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id TEXT,
    fetched_at INTEGER,
    elapsed_ms INTEGER,
    day INTEGER,
    cash REAL,
    hash TEXT,
    bytes INTEGER,
    error TEXT
);
CREATE INDEX IF NOT EXISTS fetches_fetched_at ON fetches(fetched_at);`
	_, err := db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends one entry.
func (j *Journal) Record(e Entry) error {
	if j == nil || j.db == nil {
		return nil
	}
	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now().UTC()
	}
	var cash any
	if !math.IsNaN(e.Cash) && !math.IsInf(e.Cash, 0) {
		cash = e.Cash
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.db.Exec(`
INSERT INTO fetches (request_id, fetched_at, elapsed_ms, day, cash, hash, bytes, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID,
		e.FetchedAt.UTC().UnixMilli(),
		e.Elapsed.Milliseconds(),
		e.Day,
		cash,
		strconv.FormatUint(e.Hash, 16),
		e.Bytes,
		e.Error,
	)
	if err != nil {
		return fmt.Errorf("journal: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.Query(`
SELECT id, request_id, fetched_at, elapsed_ms, day, cash, hash, bytes, error
FROM fetches ORDER BY fetched_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			fetchedAt int64
			elapsedMS int64
			cash      sql.NullFloat64
			hash      string
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &fetchedAt, &elapsedMS, &e.Day, &cash, &hash, &e.Bytes, &e.Error); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.FetchedAt = time.UnixMilli(fetchedAt).UTC()
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		e.Cash = math.NaN()
		if cash.Valid {
			e.Cash = cash.Float64
		}
		if h, err := strconv.ParseUint(hash, 16, 64); err == nil {
			e.Hash = h
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: rows: %w", err)
	}
	return out, nil
}
