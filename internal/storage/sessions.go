package storage

import (
	"context"

	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

// SessionStore is the external record of recording sessions.
type SessionStore interface {
	// GetSession returns the session or an apperr NotFound error.
	GetSession(ctx context.Context, id string) (*types.Session, error)
	// SetTranscript writes text, segments and word count and marks the
	// session transcribed, all in one update.
	SetTranscript(ctx context.Context, id string, result *types.TranscriptionResult) error
	// CreateSession inserts a new session record.
	CreateSession(ctx context.Context, session types.Session) error
}
