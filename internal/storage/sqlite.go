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

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

// SQLiteSessionStore keeps sessions in a local SQLite database
type SQLiteSessionStore struct {
	db *sql.DB
}

// NewSQLiteSessionStore opens (creating if needed) the database at dbPath
func NewSQLiteSessionStore(dbPath string) (*SQLiteSessionStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer keeps transcript updates serialized
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		input_mode TEXT NOT NULL DEFAULT 'record',
		duration INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		file_url TEXT NOT NULL DEFAULT '',
		transcript TEXT,
		transcript_segments TEXT,
		transcript_words INTEGER,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteSessionStore{db: db}, nil
}

// CreateSession inserts a session row
func (s *SQLiteSessionStore) CreateSession(ctx context.Context, session types.Session) error {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}

	query := `
	INSERT INTO sessions (id, title, input_mode, duration, status, file_url, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query, session.ID, session.Title, session.InputMode,
		session.Duration, session.Status, session.FileURL, session.CreatedAt, now)
	if err != nil {
		return apperr.Internal("failed to save session", err)
	}
	return nil
}

// GetSession retrieves a session by id
func (s *SQLiteSessionStore) GetSession(ctx context.Context, id string) (*types.Session, error) {
	query := `
	SELECT id, title, input_mode, duration, status, file_url, created_at
	FROM sessions WHERE id = ?
	`

	var session types.Session
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.Title, &session.InputMode, &session.Duration,
		&session.Status, &session.FileURL, &session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("session", id)
	}
	if err != nil {
		return nil, apperr.Internal("failed to get session", err)
	}
	return &session, nil
}

// SetTranscript stores the transcript and marks the session transcribed in one statement
func (s *SQLiteSessionStore) SetTranscript(ctx context.Context, id string, result *types.TranscriptionResult) error {
	segments, err := json.Marshal(result.Segments)
	if err != nil {
		return apperr.Internal("failed to marshal segments", err)
	}

	query := `
	UPDATE sessions
	SET transcript = ?, transcript_segments = ?, transcript_words = ?, status = ?, updated_at = ?
	WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query, result.Text, string(segments), result.WordCount,
		types.SessionTranscribed, time.Now().UTC(), id)
	if err != nil {
		return apperr.Internal("failed to save transcript", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal("failed to save transcript", err)
	}
	if n == 0 {
		return apperr.NotFound("session", id)
	}
	return nil
}

// Transcript returns the stored transcript for a session; ok is false when
// none has been written yet.
func (s *SQLiteSessionStore) Transcript(ctx context.Context, id string) (result *types.TranscriptionResult, ok bool, err error) {
	query := `SELECT transcript, transcript_segments, transcript_words FROM sessions WHERE id = ?`

	var (
		text     sql.NullString
		segments sql.NullString
		words    sql.NullInt64
	)
	err = s.db.QueryRowContext(ctx, query, id).Scan(&text, &segments, &words)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, apperr.NotFound("session", id)
	}
	if err != nil {
		return nil, false, apperr.Internal("failed to get transcript", err)
	}
	if !text.Valid {
		return nil, false, nil
	}

	result = &types.TranscriptionResult{Text: text.String, WordCount: int(words.Int64)}
	if segments.Valid && segments.String != "" {
		if err := json.Unmarshal([]byte(segments.String), &result.Segments); err != nil {
			return nil, false, apperr.Internal("failed to decode segments", err)
		}
	}
	return result, true, nil
}

// Close closes the database connection
func (s *SQLiteSessionStore) Close() error {
	return s.db.Close()
}
