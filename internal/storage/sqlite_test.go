package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

func newTestSQLite(t *testing.T) *SQLiteSessionStore {
	t.Helper()

	store, err := NewSQLiteSessionStore(filepath.Join(t.TempDir(), "db", "nomad.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteCreateAndGet(t *testing.T) {
	t.Parallel()

	store := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, types.Session{
		ID:        "s1",
		Title:     "Standup",
		InputMode: types.InputUpload,
		Duration:  42,
		Status:    types.SessionUploaded,
		FileURL:   "local://s1.wav",
	}))

	got, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "Standup", got.Title)
	require.Equal(t, 42, got.Duration)
	require.Equal(t, "local://s1.wav", got.FileURL)
	require.True(t, got.HasAudio())
	require.False(t, got.CreatedAt.IsZero())

	_, ok, err := store.Transcript(ctx, "s1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSQLiteGetMissing(t *testing.T) {
	t.Parallel()

	_, err := newTestSQLite(t).GetSession(context.Background(), "nope")
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestSQLiteSetTranscript(t *testing.T) {
	t.Parallel()

	store := newTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, store.CreateSession(ctx, types.Session{ID: "s1", Status: types.SessionUploaded, FileURL: "https://x/a.mp3"}))

	result := &types.TranscriptionResult{
		Text:      "one two three",
		WordCount: 3,
		Segments:  []types.Segment{{ID: 0, Start: 0, End: 1.25, Text: "one two three"}},
	}
	require.NoError(t, store.SetTranscript(ctx, "s1", result))

	session, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, types.SessionTranscribed, session.Status)

	stored, ok, err := store.Transcript(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "one two three", stored.Text)
	require.Equal(t, 3, stored.WordCount)
	require.Len(t, stored.Segments, 1)
	require.InDelta(t, 1.25, stored.Segments[0].End, 1e-9)
}

func TestSQLiteSetTranscriptMissingSession(t *testing.T) {
	t.Parallel()

	err := newTestSQLite(t).SetTranscript(context.Background(), "ghost", &types.TranscriptionResult{Text: "x", WordCount: 1})
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
