package health

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

type countingWaker struct {
	calls atomic.Int32
	err   error
}

func (w *countingWaker) Wake(context.Context) error {
	w.calls.Add(1)
	return w.err
}

// serverConfig points a monitor Config at an httptest server.
func serverConfig(t *testing.T, srv *httptest.Server) Config {
	t.Helper()

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return Config{Host: host, Port: port, ProbeTimeout: time.Second}
}

func TestProbeNotConfiguredIsOffline(t *testing.T) {
	t.Parallel()

	m := NewMonitor(Config{}, nil, nil)
	require.Equal(t, types.Offline, m.Probe(context.Background()))
}

func TestProbeHealthy(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := NewMonitor(serverConfig(t, srv), nil, nil)
	require.Equal(t, types.Online, m.Probe(context.Background()))
}

func TestProbeNonOKIsOffline(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := NewMonitor(serverConfig(t, srv), nil, nil)
	require.Equal(t, types.Offline, m.Probe(context.Background()))
}

func TestProbeTimeoutIsOffline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := serverConfig(t, srv)
	cfg.ProbeTimeout = 50 * time.Millisecond
	m := NewMonitor(cfg, nil, nil)

	start := time.Now()
	require.Equal(t, types.Offline, m.Probe(context.Background()))
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestProbeUnreachableIsOffline(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := serverConfig(t, srv)
	srv.Close()

	m := NewMonitor(cfg, nil, nil)
	require.Equal(t, types.Offline, m.Probe(context.Background()))
}

func TestWakeNotConfigured(t *testing.T) {
	t.Parallel()

	waker := &countingWaker{}
	m := NewMonitor(Config{}, waker, nil)

	result, err := m.Wake(context.Background())
	require.NoError(t, err)
	require.Equal(t, WakeNotConfigured, result)
	require.Zero(t, waker.calls.Load())
}

func TestWakeAlreadyOnlineIsIdempotent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	waker := &countingWaker{}
	m := NewMonitor(serverConfig(t, srv), waker, nil)

	for i := 0; i < 2; i++ {
		result, err := m.Wake(context.Background())
		require.NoError(t, err)
		require.Equal(t, WakeAlreadyOnline, result)
	}
	require.Zero(t, waker.calls.Load())
}

func TestWakeOfflineSendsOnceWithinCooldown(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := serverConfig(t, srv)
	srv.Close()
	cfg.WakeCooldown = time.Minute

	waker := &countingWaker{}
	m := NewMonitor(cfg, waker, nil)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	for i := 0; i < 2; i++ {
		result, err := m.Wake(context.Background())
		require.NoError(t, err)
		require.Equal(t, WakeSignalSent, result)
	}
	require.EqualValues(t, 1, waker.calls.Load())

	clock = clock.Add(2 * time.Minute)
	_, err := m.Wake(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, waker.calls.Load())
}

func TestWakeWithoutTransportIsNotConfigured(t *testing.T) {
	t.Parallel()

	m := NewMonitor(Config{Host: "127.0.0.1", Port: 1, ProbeTimeout: 50 * time.Millisecond}, nil, nil)
	result, err := m.Wake(context.Background())
	require.NoError(t, err)
	require.Equal(t, WakeNotConfigured, result)
}

func TestWakeOnlineWithoutTransportIsAlreadyOnline(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMonitor(serverConfig(t, srv), nil, nil)
	result, err := m.Wake(context.Background())
	require.NoError(t, err)
	require.Equal(t, WakeAlreadyOnline, result)
}

func TestWakeSendFailureIsTransportError(t *testing.T) {
	t.Parallel()

	waker := &countingWaker{err: errors.New("network unreachable")}
	m := NewMonitor(Config{Host: "127.0.0.1", Port: 1, ProbeTimeout: 50 * time.Millisecond}, waker, nil)

	_, err := m.Wake(context.Background())
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindTransport))

	// a failed send does not start the cooldown
	waker.err = nil
	result, err := m.Wake(context.Background())
	require.NoError(t, err)
	require.Equal(t, WakeSignalSent, result)
	require.EqualValues(t, 2, waker.calls.Load())
}
