// Package sqlite stores folder snapshots in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/justyntemme/prism/internal/resolve"
	"github.com/justyntemme/prism/internal/store"
)

// Store is the relational snapshot backend.
type Store struct {
	db *sql.DB
}

// Open initializes (or reuses) a SQLite database at the provided path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA synchronous=NORMAL;"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS folder_snapshots (
			path TEXT PRIMARY KEY,
			entries TEXT NOT NULL,
			last_visited INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Put(ctx context.Context, snap *store.Snapshot) error {
	entries, err := json.Marshal(snap.Entries)
	if err != nil {
		return fmt.Errorf("marshal entries for %s: %w", snap.Path, err)
	}

	visited := snap.LastVisited
	if visited.IsZero() {
		visited = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO folder_snapshots(path, entries, last_visited)
VALUES(?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
	entries=excluded.entries,
	last_visited=excluded.last_visited
`, snap.Path, string(entries), visited.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", snap.Path, err)
	}
	return nil
}

// Get returns the snapshot for a path, refreshing its visit timestamp.
func (s *Store) Get(ctx context.Context, path string) (*store.Snapshot, error) {
	var (
		raw     string
		visited int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT entries, last_visited FROM folder_snapshots WHERE path = ?`, path,
	).Scan(&raw, &visited)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot %s: %w", path, err)
	}

	var entries []resolve.Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	now := time.Now()
	s.db.ExecContext(ctx,
		`UPDATE folder_snapshots SET last_visited = ? WHERE path = ?`, now.UnixNano(), path)

	return &store.Snapshot{
		Path:        path,
		Entries:     entries,
		LastVisited: now,
	}, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM folder_snapshots WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", path, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM folder_snapshots ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan snapshot path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (s *Store) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan).UnixNano()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM folder_snapshots WHERE last_visited < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count swept snapshots: %w", err)
	}
	return int(n), nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
