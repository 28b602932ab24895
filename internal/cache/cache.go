// Package cache persists scan results keyed by scan id. This is a
// correctness cache: entries never expire by time, freshness is judged by
// the caller's structural validation of the stored results.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one cached scan result.
type Entry struct {
	ScanID    string
	Results   []byte // ScanResult JSON
	Timestamp time.Time
}

// Store wraps the SQLite connection holding cached scan results.
type Store struct {
	conn *sql.DB
}

// Open creates the store at the given path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping cache: %w", err)
	}

	// SQLite optimizations; not critical, ignore errors
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		_, _ = conn.ExecContext(ctx, pragma)
	}

	s := &Store{conn: conn}
	if err := s.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to migrate cache: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scan_results (
		scan_id TEXT PRIMARY KEY,
		results TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	_, err := s.conn.ExecContext(ctx, schema)
	return err
}

// Get returns the cached entry for scanID, or nil when absent.
func (s *Store) Get(ctx context.Context, scanID string) (*Entry, error) {
	var results, createdAt string
	err := s.conn.QueryRowContext(ctx,
		"SELECT results, created_at FROM scan_results WHERE scan_id = ?",
		scanID,
	).Scan(&results, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ts, _ := time.Parse(time.RFC3339, createdAt)
	return &Entry{ScanID: scanID, Results: []byte(results), Timestamp: ts}, nil
}

// Save stores results under scanID, replacing any prior entry whole.
// Last write wins; there is no merging.
func (s *Store) Save(ctx context.Context, scanID string, results []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO scan_results (scan_id, results, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(scan_id) DO UPDATE SET
			results = excluded.results,
			created_at = excluded.created_at
	`, scanID, string(results), now)
	return err
}

// GetResults returns only the cached results JSON, nil when absent.
func (s *Store) GetResults(ctx context.Context, scanID string) ([]byte, error) {
	entry, err := s.Get(ctx, scanID)
	if err != nil || entry == nil {
		return nil, err
	}
	return entry.Results, nil
}

// SaveResults is Save under the name the scan orchestrator consumes.
func (s *Store) SaveResults(ctx context.Context, scanID string, results []byte) error {
	return s.Save(ctx, scanID, results)
}

// Prune removes entries older than the cutoff. Returns the number removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	res, err := s.conn.ExecContext(ctx,
		"DELETE FROM scan_results WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
