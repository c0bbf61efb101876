package transcription

import (
	"context"
	"fmt"

	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

// Request identifies the audio an engine should transcribe.
type Request struct {
	SessionID string
	AudioRef  string
}

// Engine is one speech-to-text backend.
type Engine interface {
	ID() types.EngineID
	Transcribe(ctx context.Context, req Request) (*types.TranscriptionResult, error)
}

// AudioFetcher resolves an audio reference to its bytes.
type AudioFetcher interface {
	Download(ctx context.Context, ref string) ([]byte, error)
}

// Set maps concrete engine ids to their implementations.
type Set map[types.EngineID]Engine

// NewSet indexes engines by ID. A duplicate id is a programming error.
func NewSet(engines ...Engine) (Set, error) {
	set := make(Set, len(engines))
	for _, e := range engines {
		if _, dup := set[e.ID()]; dup {
			return nil, fmt.Errorf("engine %s registered twice", e.ID())
		}
		set[e.ID()] = e
	}
	return set, nil
}

// Get returns the engine for id.
func (s Set) Get(id types.EngineID) (Engine, bool) {
	e, ok := s[id]
	return e, ok
}
