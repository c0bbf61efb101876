// Package health probes the remote GPU engine and wakes it when it is
// powered down.
package health

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

// WakeResult is the outcome of a wake request.
type WakeResult string

const (
	WakeAlreadyOnline WakeResult = "already_online"
	WakeSignalSent    WakeResult = "wake_signal_sent"
	WakeNotConfigured WakeResult = "not_configured"
)

const (
	defaultPort         = 8765
	defaultHealthPath   = "/health"
	defaultProbeTimeout = 5 * time.Second
)

// Config describes the monitored host.
type Config struct {
	Host         string
	Port         int
	HealthPath   string
	ProbeTimeout time.Duration
	// WakeCooldown suppresses re-sending a wake signal while the host boots.
	WakeCooldown time.Duration
}

// Monitor checks reachability of one host and wakes it on demand.
type Monitor struct {
	cfg    Config
	client *http.Client
	waker  Waker
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	lastWake time.Time
}

// NewMonitor creates a monitor. waker may be nil when no wake transport is configured.
func NewMonitor(cfg Config, waker Waker, logger *zap.Logger) *Monitor {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.HealthPath == "" {
		cfg.HealthPath = defaultHealthPath
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.ProbeTimeout},
		waker:  waker,
		logger: logger,
		now:    time.Now,
	}
}

// Configured reports whether a host is set.
func (m *Monitor) Configured() bool {
	return m.cfg.Host != ""
}

// HealthURL is the endpoint Probe calls.
func (m *Monitor) HealthURL() string {
	return "http://" + net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port)) + m.cfg.HealthPath
}

// Probe returns Online only if the health endpoint answers 200 within the
// probe timeout. Any failure is Offline; no host means Offline with no I/O.
func (m *Monitor) Probe(ctx context.Context) types.Availability {
	if !m.Configured() {
		return types.Offline
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.HealthURL(), nil)
	if err != nil {
		m.logger.Debug("health probe request invalid", zap.Error(err))
		return types.Offline
	}

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Debug("health probe failed", zap.String("url", m.HealthURL()), zap.Error(err))
		return types.Offline
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		m.logger.Debug("health probe non-200", zap.Int("status", resp.StatusCode))
		return types.Offline
	}
	return types.Online
}

// Wake sends a wake signal unless the host is already online. It never waits
// for the host to boot. A signal sent within the cooldown is not repeated.
func (m *Monitor) Wake(ctx context.Context) (WakeResult, error) {
	if !m.Configured() {
		return WakeNotConfigured, nil
	}

	// Probe before the waker check: an online host reports already_online
	// even when no wake transport is configured.
	if m.Probe(ctx) == types.Online {
		return WakeAlreadyOnline, nil
	}

	if m.waker == nil {
		return WakeNotConfigured, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !m.lastWake.IsZero() && m.cfg.WakeCooldown > 0 && now.Sub(m.lastWake) < m.cfg.WakeCooldown {
		m.logger.Info("wake signal already sent, waiting for boot",
			zap.String("host", m.cfg.Host),
			zap.Duration("since", now.Sub(m.lastWake)),
		)
		return WakeSignalSent, nil
	}

	if err := m.waker.Wake(ctx); err != nil {
		return "", apperr.Transport("wake "+m.cfg.Host, fmt.Errorf("send wake signal: %w", err))
	}
	m.lastWake = now

	m.logger.Info("wake signal sent", zap.String("host", m.cfg.Host))
	return WakeSignalSent, nil
}
