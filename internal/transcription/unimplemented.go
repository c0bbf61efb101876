package transcription

import (
	"context"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

// Unimplemented is a declared engine with no working backend yet. Every
// call fails with an unimplemented error.
type Unimplemented struct {
	id types.EngineID
}

// NewUnimplemented declares id without an implementation.
func NewUnimplemented(id types.EngineID) *Unimplemented {
	return &Unimplemented{id: id}
}

// ID returns the declared engine id.
func (u *Unimplemented) ID() types.EngineID { return u.id }

// Transcribe always fails with an unimplemented error.
func (u *Unimplemented) Transcribe(context.Context, Request) (*types.TranscriptionResult, error) {
	return nil, apperr.Unimplemented(string(u.id))
}
