package transcription

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

type staticProber struct {
	status types.Availability
}

func (p staticProber) Probe(context.Context) types.Availability { return p.status }

type recordingEngine struct {
	id    types.EngineID
	calls int
}

func (e *recordingEngine) ID() types.EngineID { return e.id }

func (e *recordingEngine) Transcribe(context.Context, Request) (*types.TranscriptionResult, error) {
	e.calls++
	return &types.TranscriptionResult{Text: "ok", WordCount: 1}, nil
}

func TestUnimplementedAlwaysFails(t *testing.T) {
	t.Parallel()

	for _, id := range []types.EngineID{types.EngineDeepgram, types.EngineWynona} {
		engine := NewUnimplemented(id)
		require.Equal(t, id, engine.ID())

		for i := 0; i < 2; i++ {
			result, err := engine.Transcribe(context.Background(), Request{SessionID: "s"})
			require.Nil(t, result)
			require.True(t, apperr.IsKind(err, apperr.KindUnimplemented))
		}
	}
}

func TestHealthGatedOffline(t *testing.T) {
	t.Parallel()

	inner := &recordingEngine{id: types.EngineWynona}
	gated := NewHealthGated(inner, staticProber{status: types.Offline})
	require.Equal(t, types.EngineWynona, gated.ID())

	_, err := gated.Transcribe(context.Background(), Request{})
	require.True(t, apperr.IsKind(err, apperr.KindTransport))
	appErr, _ := apperr.As(err)
	require.Equal(t, apperr.CodeEngineOffline, appErr.Code)
	require.Zero(t, inner.calls)
}

func TestHealthGatedOnlineDelegates(t *testing.T) {
	t.Parallel()

	inner := &recordingEngine{id: types.EngineWynona}
	gated := NewHealthGated(inner, staticProber{status: types.Online})

	result, err := gated.Transcribe(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, "ok", result.Text)
	require.Equal(t, 1, inner.calls)
}

func TestHealthGatedOnlineUnimplemented(t *testing.T) {
	t.Parallel()

	gated := NewHealthGated(NewUnimplemented(types.EngineWynona), staticProber{status: types.Online})
	_, err := gated.Transcribe(context.Background(), Request{})
	require.True(t, apperr.IsKind(err, apperr.KindUnimplemented))
}

func TestNewSetRejectsDuplicates(t *testing.T) {
	t.Parallel()

	set, err := NewSet(NewUnimplemented(types.EngineDeepgram), NewUnimplemented(types.EngineWynona))
	require.NoError(t, err)
	_, ok := set.Get(types.EngineDeepgram)
	require.True(t, ok)
	_, ok = set.Get(types.EngineGroqTurbo)
	require.False(t, ok)

	_, err = NewSet(NewUnimplemented(types.EngineDeepgram), NewUnimplemented(types.EngineDeepgram))
	require.Error(t, err)
}

func TestValidateAudioFormat(t *testing.T) {
	t.Parallel()

	require.True(t, ValidateAudioFormat("talk.MP3"))
	require.True(t, ValidateAudioFormat("rec.webm"))
	require.False(t, ValidateAudioFormat("notes.txt"))
	require.False(t, ValidateAudioFormat("noext"))

	require.Equal(t, "audio/mpeg", AudioContentType("talk.MP3"))
	require.Equal(t, "application/octet-stream", AudioContentType("notes.txt"))
	require.Equal(t, []string{".aac", ".flac", ".m4a", ".mp3", ".ogg", ".wav", ".webm"}, SupportedFormats())
}
