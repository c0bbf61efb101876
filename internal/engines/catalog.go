package engines

import (
	"context"

	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

// Prober reports live reachability of a remote engine.
type Prober interface {
	Probe(ctx context.Context) types.Availability
}

// Credentials holds the provider keys whose presence marks cloud engines online.
type Credentials struct {
	GroqAPIKey     string
	DeepgramAPIKey string
}

type entry struct {
	id          types.EngineID
	displayName string
	costPerHour float64
}

var entries = []entry{
	{types.EngineGroqTurbo, "Groq Whisper Turbo", 0.04},
	{types.EngineGroqLarge, "Groq Whisper Large v3", 0.11},
	{types.EngineDeepgram, "Deepgram Nova-3", 0.46},
	{types.EngineWynona, "WYNONA WhisperX", 0.0},
}

// autoPreference is the order in which auto picks a concrete engine.
var autoPreference = []types.EngineID{types.EngineGroqTurbo, types.EngineGroqLarge}

// Catalog describes the concrete engines. Availability is computed on every
// call and never cached.
type Catalog struct {
	creds  Credentials
	wynona Prober
}

// NewCatalog creates a catalog; wynona is consulted for the GPU engine.
func NewCatalog(creds Credentials, wynona Prober) *Catalog {
	return &Catalog{creds: creds, wynona: wynona}
}

// List returns every concrete engine with freshly computed availability.
func (c *Catalog) List(ctx context.Context) []types.EngineDescriptor {
	out := make([]types.EngineDescriptor, 0, len(entries))
	for _, e := range entries {
		out = append(out, types.EngineDescriptor{
			ID:           e.id,
			DisplayName:  e.displayName,
			CostPerHour:  e.costPerHour,
			Availability: c.Availability(ctx, e.id),
		})
	}
	return out
}

// Availability computes the status of one engine.
func (c *Catalog) Availability(ctx context.Context, id types.EngineID) types.Availability {
	switch id {
	case types.EngineGroqTurbo, types.EngineGroqLarge:
		return credentialStatus(c.creds.GroqAPIKey)
	case types.EngineDeepgram:
		return credentialStatus(c.creds.DeepgramAPIKey)
	case types.EngineWynona:
		if c.wynona == nil {
			return types.Offline
		}
		return c.wynona.Probe(ctx)
	default:
		return types.Offline
	}
}

// Resolve maps auto to a concrete engine and returns other ids unchanged.
// auto picks the first online engine in autoPreference, falling back to the
// first entry so the job fails with that engine's configuration error.
// Only credential checks run here, never a network probe.
func (c *Catalog) Resolve(ctx context.Context, id types.EngineID) types.EngineID {
	if id != types.EngineAuto {
		return id
	}
	for _, candidate := range autoPreference {
		if c.Availability(ctx, candidate) == types.Online {
			return candidate
		}
	}
	return autoPreference[0]
}

func credentialStatus(key string) types.Availability {
	if key != "" {
		return types.Online
	}
	return types.Offline
}
