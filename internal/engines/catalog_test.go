package engines

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

type fakeProber struct {
	status types.Availability
	calls  int
}

func (p *fakeProber) Probe(context.Context) types.Availability {
	p.calls++
	return p.status
}

func statusByID(list []types.EngineDescriptor) map[types.EngineID]types.Availability {
	out := make(map[types.EngineID]types.Availability, len(list))
	for _, d := range list {
		out[d.ID] = d.Availability
	}
	return out
}

func TestListCredentialPresence(t *testing.T) {
	t.Parallel()

	c := NewCatalog(Credentials{GroqAPIKey: "gsk"}, &fakeProber{status: types.Offline})
	list := c.List(context.Background())
	require.Len(t, list, 4)

	status := statusByID(list)
	require.Equal(t, types.Online, status[types.EngineGroqTurbo])
	require.Equal(t, types.Online, status[types.EngineGroqLarge])
	require.Equal(t, types.Offline, status[types.EngineDeepgram])
	require.Equal(t, types.Offline, status[types.EngineWynona])
}

func TestListDescriptorMetadata(t *testing.T) {
	t.Parallel()

	list := NewCatalog(Credentials{}, nil).List(context.Background())
	require.Equal(t, types.EngineGroqTurbo, list[0].ID)
	require.Equal(t, "Groq Whisper Turbo", list[0].DisplayName)
	require.InDelta(t, 0.04, list[0].CostPerHour, 1e-9)
	require.Equal(t, types.EngineWynona, list[3].ID)
	require.Zero(t, list[3].CostPerHour)
	require.Equal(t, types.Offline, list[3].Availability, "nil prober means offline")
}

func TestWynonaAvailabilityIsNeverCached(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{status: types.Offline}
	c := NewCatalog(Credentials{}, prober)

	require.Equal(t, types.Offline, c.Availability(context.Background(), types.EngineWynona))
	prober.status = types.Online
	require.Equal(t, types.Online, c.Availability(context.Background(), types.EngineWynona))
	require.Equal(t, 2, prober.calls)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{status: types.Online}
	ctx := context.Background()

	withKey := NewCatalog(Credentials{GroqAPIKey: "gsk"}, prober)
	require.Equal(t, types.EngineGroqTurbo, withKey.Resolve(ctx, types.EngineAuto))
	require.Equal(t, types.EngineDeepgram, withKey.Resolve(ctx, types.EngineDeepgram))

	withoutKey := NewCatalog(Credentials{}, prober)
	require.Equal(t, types.EngineGroqTurbo, withoutKey.Resolve(ctx, types.EngineAuto))
	require.Zero(t, prober.calls, "auto resolution must not probe the network")
}
