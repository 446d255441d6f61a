package talent

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// QueryRecord is one logged interpretation, kept for analytics.
type QueryRecord struct {
	ID           string    `json:"id"`
	Query        string    `json:"query"`
	Intent       string    `json:"intent"`
	Confidence   float64   `json:"confidence"`
	Fallback     bool      `json:"fallback"`
	Requirements int       `json:"requirements"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunRecord is one completed pipeline run.
type RunRecord struct {
	RunID          string        `json:"run_id"`
	Query          string        `json:"query"`
	TotalFound     int           `json:"total_found"`
	ShortCircuited bool          `json:"short_circuited"`
	Cancelled      bool          `json:"cancelled"`
	Fallback       bool          `json:"fallback"`
	Duration       time.Duration `json:"duration"`
	CreatedAt      time.Time     `json:"created_at"`
}

// HistoryStore is an append/query log of interpretations and runs.
type HistoryStore interface {
	RecordInterpretation(ctx context.Context, r QueryRecord) error
	RecordRun(ctx context.Context, r RunRecord) error
	RecentQueries(ctx context.Context, limit int) ([]QueryRecord, error)
}

// MemoryHistory keeps history in process memory.
type MemoryHistory struct {
	mu      sync.Mutex
	queries []QueryRecord
	runs    []RunRecord
}

// NewMemoryHistory builds an empty in-memory history.
func NewMemoryHistory() *MemoryHistory { return &MemoryHistory{} }

func (h *MemoryHistory) RecordInterpretation(_ context.Context, r QueryRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	h.mu.Lock()
	h.queries = append(h.queries, r)
	h.mu.Unlock()
	return nil
}

func (h *MemoryHistory) RecordRun(_ context.Context, r RunRecord) error {
	h.mu.Lock()
	h.runs = append(h.runs, r)
	h.mu.Unlock()
	return nil
}

// RecentQueries returns the newest records first.
func (h *MemoryHistory) RecentQueries(_ context.Context, limit int) ([]QueryRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []QueryRecord
	for i := len(h.queries) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, h.queries[i])
	}
	return out, nil
}

// Runs returns a copy of the recorded runs in insertion order.
func (h *MemoryHistory) Runs() []RunRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]RunRecord(nil), h.runs...)
}

// SQLiteHistory persists history in a local SQLite database.
type SQLiteHistory struct {
	db *sql.DB
}

// DefaultHistoryPath is ~/.go_talent/history.db.
func DefaultHistoryPath() string {
	return filepath.Join(os.Getenv("HOME"), ".go_talent", "history.db")
}

// OpenSQLiteHistory opens (or creates) the history database at path.
func OpenSQLiteHistory(path string) (*SQLiteHistory, error) {
	if path == "" {
		path = DefaultHistoryPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("history: mkdir %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initHistorySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &SQLiteHistory{db: db}, nil
}

func initHistorySchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS queries (
		id           TEXT PRIMARY KEY,
		query        TEXT NOT NULL,
		intent       TEXT NOT NULL,
		confidence   REAL NOT NULL,
		fallback     INTEGER NOT NULL DEFAULT 0,
		requirements INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS runs (
		run_id          TEXT PRIMARY KEY,
		query           TEXT NOT NULL,
		total_found     INTEGER NOT NULL,
		short_circuited INTEGER NOT NULL DEFAULT 0,
		cancelled       INTEGER NOT NULL DEFAULT 0,
		fallback        INTEGER NOT NULL DEFAULT 0,
		duration_ms     INTEGER NOT NULL,
		created_at      TEXT NOT NULL
	)`)
	return err
}

// Close closes the database.
func (h *SQLiteHistory) Close() error { return h.db.Close() }

func (h *SQLiteHistory) RecordInterpretation(ctx context.Context, r QueryRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO queries (id, query, intent, confidence, fallback, requirements, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Query, r.Intent, r.Confidence, r.Fallback, r.Requirements, r.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("history: insert query: %w", err)
	}
	return nil
}

func (h *SQLiteHistory) RecordRun(ctx context.Context, r RunRecord) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, query, total_found, short_circuited, cancelled, fallback, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Query, r.TotalFound, r.ShortCircuited, r.Cancelled, r.Fallback,
		r.Duration.Milliseconds(), r.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}
	return nil
}

// RecentQueries returns the newest records first.
func (h *SQLiteHistory) RecentQueries(ctx context.Context, limit int) ([]QueryRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, query, intent, confidence, fallback, requirements, created_at
		 FROM queries ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list queries: %w", err)
	}
	defer rows.Close()

	var out []QueryRecord
	for rows.Next() {
		var r QueryRecord
		var created string
		if err := rows.Scan(&r.ID, &r.Query, &r.Intent, &r.Confidence, &r.Fallback, &r.Requirements, &created); err != nil {
			return nil, fmt.Errorf("history: scan query: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}
