package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/codebuildervaibhav/nomad-transcription/internal/config"
	"github.com/codebuildervaibhav/nomad-transcription/internal/dispatch"
	"github.com/codebuildervaibhav/nomad-transcription/internal/engines"
	"github.com/codebuildervaibhav/nomad-transcription/internal/health"
	"github.com/codebuildervaibhav/nomad-transcription/internal/queue"
	"github.com/codebuildervaibhav/nomad-transcription/internal/storage"
	"github.com/codebuildervaibhav/nomad-transcription/internal/telemetry"
	"github.com/codebuildervaibhav/nomad-transcription/internal/transcription"
	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

// services holds every explicitly constructed component of one process.
type services struct {
	cfg        *config.Config
	logger     *zap.Logger
	monitor    *health.Monitor
	catalog    *engines.Catalog
	audio      *storage.LocalStorage
	sessions   storage.SessionStore
	dispatcher *dispatch.Dispatcher
	closers    []func() error
}

// newMonitor builds the wynona health monitor and its optional wake transport.
func newMonitor(cfg *config.Config, logger *zap.Logger) (*health.Monitor, error) {
	w := cfg.Engines.Wynona

	var waker health.Waker
	if w.WOLMAC != "" {
		mpw, err := health.NewMagicPacketWaker(w.WOLMAC, w.BroadcastAddr)
		if err != nil {
			return nil, fmt.Errorf("configure wake: %w", err)
		}
		waker = mpw
	}

	return health.NewMonitor(health.Config{
		Host:         w.Host,
		Port:         w.Port,
		HealthPath:   w.HealthPath,
		ProbeTimeout: w.ProbeTimeout,
		WakeCooldown: w.WakeCooldown,
	}, waker, logger.Named("wynona")), nil
}

func newCatalog(cfg *config.Config, monitor *health.Monitor) *engines.Catalog {
	return engines.NewCatalog(engines.Credentials{
		GroqAPIKey:     cfg.Engines.Groq.APIKey,
		DeepgramAPIKey: cfg.Engines.Deepgram.APIKey,
	}, monitor)
}

func newSessionStore(cfg *config.Config) (storage.SessionStore, func() error, error) {
	switch cfg.Storage.Backend {
	case config.BackendSupabase:
		store, err := storage.NewSupabaseSessionStore(storage.SupabaseConfig{
			URL:        cfg.Supabase.URL,
			ServiceKey: cfg.Supabase.ServiceKey,
			Schema:     cfg.Supabase.Schema,
			Table:      cfg.Supabase.Table,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	default:
		store, err := storage.NewSQLiteSessionStore(cfg.Storage.Database)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
}

func newEngineSet(cfg *config.Config, fetcher transcription.AudioFetcher, monitor *health.Monitor, logger *zap.Logger) (transcription.Set, error) {
	groqCfg := transcription.GroqConfig{
		APIKey:  cfg.Engines.Groq.APIKey,
		BaseURL: cfg.Engines.Groq.BaseURL,
		Timeout: cfg.Engines.Groq.Timeout,
	}

	turbo, err := transcription.NewGroqEngine(types.EngineGroqTurbo, groqCfg, fetcher, logger)
	if err != nil {
		return nil, err
	}
	large, err := transcription.NewGroqEngine(types.EngineGroqLarge, groqCfg, fetcher, logger)
	if err != nil {
		return nil, err
	}

	return transcription.NewSet(
		turbo,
		large,
		transcription.NewUnimplemented(types.EngineDeepgram),
		transcription.NewHealthGated(transcription.NewUnimplemented(types.EngineWynona), monitor),
	)
}

// buildServices wires the full server graph.
func buildServices(cfg *config.Config, logger *zap.Logger) (*services, error) {
	svc := &services{cfg: cfg, logger: logger}

	monitor, err := newMonitor(cfg, logger)
	if err != nil {
		return nil, err
	}
	svc.monitor = monitor
	svc.catalog = newCatalog(cfg, monitor)

	audio, err := storage.NewLocalStorage(cfg.Storage.AudioDir)
	if err != nil {
		return nil, err
	}
	svc.audio = audio

	sessions, closeSessions, err := newSessionStore(cfg)
	if err != nil {
		return nil, err
	}
	svc.sessions = sessions
	svc.closers = append(svc.closers, closeSessions)

	fetcher := storage.NewFetcher(cfg.Download.Timeout, audio, logger.Named("fetch"))
	engineSet, err := newEngineSet(cfg, fetcher, monitor, logger.Named("engine"))
	if err != nil {
		svc.Close()
		return nil, err
	}

	pool := queue.NewWorkerPool(cfg.Workers.MaxConcurrent, logger.Named("pool"))
	svc.dispatcher = dispatch.New(queue.NewRegistry(), pool, engineSet, svc.catalog, sessions, logger.Named("dispatch"),
		dispatch.WithMetrics(telemetry.DefaultJobMetrics()))

	return svc, nil
}

// Close releases storage handles.
func (s *services) Close() {
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			s.logger.Warn("close failed", zap.Error(err))
		}
	}
	s.closers = nil
}
