package transcription

import (
	"context"
	"fmt"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

// Prober reports live reachability of the host behind an engine.
type Prober interface {
	Probe(ctx context.Context) types.Availability
}

// HealthGated probes before delegating; an offline host fails without the
// inner engine being called.
type HealthGated struct {
	inner  Engine
	prober Prober
}

// NewHealthGated wraps inner behind prober.
func NewHealthGated(inner Engine, prober Prober) *HealthGated {
	return &HealthGated{inner: inner, prober: prober}
}

// ID returns the inner engine's id.
func (h *HealthGated) ID() types.EngineID { return h.inner.ID() }

// Transcribe probes the host and delegates only when it is online.
func (h *HealthGated) Transcribe(ctx context.Context, req Request) (*types.TranscriptionResult, error) {
	if h.prober.Probe(ctx) != types.Online {
		return nil, apperr.Transport(string(h.inner.ID())+" health probe",
			fmt.Errorf("engine %s is offline", h.inner.ID())).WithCode(apperr.CodeEngineOffline)
	}
	return h.inner.Transcribe(ctx, req)
}
