// Package history persists finished sessions and their screenshots to a
// local SQLite database so past work survives process restarts.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dude613/avoda-desktop/internal/capture"
	"github.com/dude613/avoda-desktop/internal/session"
	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed recorder for session lifecycle events and
// saved captures.
type Store struct {
	db *sql.DB
}

var (
	_ session.Recorder = (*Store)(nil)
	_ capture.Sink     = (*Store)(nil)
)

// Open creates or opens the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := path + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		ended_at INTEGER,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		key_presses INTEGER NOT NULL DEFAULT 0,
		mouse_clicks INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);

	CREATE TABLE IF NOT EXISTS screenshots (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		captured_at INTEGER NOT NULL,
		data TEXT NOT NULL,
		apps_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_screenshots_session ON screenshots(session_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SessionStarted records the opening of a session.
func (s *Store) SessionStarted(ctx context.Context, id string, startedAt time.Time) error {
	query := `INSERT INTO sessions (id, started_at) VALUES (?, ?)`
	if _, err := s.db.ExecContext(ctx, query, id, startedAt.Unix()); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// SessionEnded records the final accounting of a stopped session.
func (s *Store) SessionEnded(ctx context.Context, sum session.Summary) error {
	query := `
		UPDATE sessions
		SET ended_at = ?, duration_seconds = ?, key_presses = ?, mouse_clicks = ?
		WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query,
		sum.EndedAt.Unix(), int64(sum.Duration/time.Second),
		int64(sum.KeyPresses), int64(sum.MouseClicks), sum.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		log.Printf("SessionEnded matched no session row (id %s)", sum.ID)
	}
	return nil
}

// CaptureSaved persists a capture alongside its session.
func (s *Store) CaptureSaved(ctx context.Context, c capture.Capture) error {
	var appsJSON interface{}
	if len(c.Apps) > 0 {
		data, err := json.Marshal(c.Apps)
		if err != nil {
			return fmt.Errorf("marshal apps: %w", err)
		}
		appsJSON = string(data)
	}

	query := `
		INSERT INTO screenshots (id, session_id, captured_at, data, apps_json)
		VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.SessionID, c.CapturedAt.Unix(), c.Payload, appsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert screenshot: %w", err)
	}
	return nil
}

// RecentSessions returns up to limit finished or in-progress sessions,
// newest first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]session.Summary, error) {
	query := `
		SELECT id, started_at, ended_at, duration_seconds, key_presses, mouse_clicks
		FROM sessions ORDER BY started_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sums []session.Summary
	for rows.Next() {
		var sum session.Summary
		var startedAt, durationSecs, keyPresses, mouseClicks int64
		var endedAt sql.NullInt64

		if err := rows.Scan(&sum.ID, &startedAt, &endedAt, &durationSecs, &keyPresses, &mouseClicks); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}

		sum.StartedAt = time.Unix(startedAt, 0)
		if endedAt.Valid {
			sum.EndedAt = time.Unix(endedAt.Int64, 0)
		}
		sum.Duration = time.Duration(durationSecs) * time.Second
		sum.KeyPresses = uint64(keyPresses)
		sum.MouseClicks = uint64(mouseClicks)
		sums = append(sums, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sums, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
