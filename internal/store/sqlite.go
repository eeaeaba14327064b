package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/session"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and if needed creates) the session database.
// Use ":memory:" for an in-memory database in tests.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		state TEXT NOT NULL,
		started_at TEXT NOT NULL,
		ended_at TEXT NOT NULL,
		total_seconds INTEGER NOT NULL,
		elapsed_seconds INTEGER NOT NULL,
		check_in_count INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_state ON sessions(state);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordTerminal implements Store.
func (s *SQLiteStore) RecordTerminal(ctx context.Context, snap session.Snapshot) error {
	if !snap.State.IsTerminal() {
		return ferrors.StorageError("refusing to record non-terminal session").
			WithContext("state", snap.State.String()).Build()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, mode, state, started_at, ended_at, total_seconds, elapsed_seconds, check_in_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.SessionID,
		snap.Mode.String(),
		snap.State.String(),
		snap.StartedAt.UTC().Format(time.RFC3339Nano),
		snap.LastTransitionAt.UTC().Format(time.RFC3339Nano),
		int64(snap.Total.Seconds()),
		int64(snap.Elapsed.Seconds()),
		snap.CheckInCount,
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "record terminal session").
			WithContext("session_id", snap.SessionID).Build()
	}
	return nil
}

// CompletedSince implements Store.
func (s *SQLiteStore) CompletedSince(ctx context.Context, since time.Time) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, state, started_at, ended_at, total_seconds, elapsed_seconds, check_in_count
		 FROM sessions WHERE ended_at >= ? ORDER BY ended_at ASC`,
		since.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Recent implements Store.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, state, started_at, ended_at, total_seconds, elapsed_seconds, check_in_count
		 FROM sessions ORDER BY ended_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// CountCompleted implements Store.
func (s *SQLiteStore) CountCompleted(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE state = ?",
		session.StateCompleted.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var (
			r                  Record
			mode, state        string
			startedAt, endedAt string
		)
		if err := rows.Scan(&r.ID, &mode, &state, &startedAt, &endedAt,
			&r.TotalSeconds, &r.ElapsedSeconds, &r.CheckInCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}

		r.Mode = session.ParseMode(mode)
		r.State = session.State(state)

		var err error
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if r.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, fmt.Errorf("parse ended_at: %w", err)
		}

		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}
