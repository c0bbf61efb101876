// Package dispatch validates transcription requests, records them as jobs and
// runs them in the background against the selected engine.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
	"github.com/codebuildervaibhav/nomad-transcription/internal/queue"
	"github.com/codebuildervaibhav/nomad-transcription/internal/telemetry"
	"github.com/codebuildervaibhav/nomad-transcription/internal/transcription"
	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

// SessionStore is the part of the session store the dispatcher needs.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*types.Session, error)
	SetTranscript(ctx context.Context, id string, result *types.TranscriptionResult) error
}

// Resolver maps a requested engine to the concrete one that will run.
type Resolver interface {
	Resolve(ctx context.Context, id types.EngineID) types.EngineID
}

// Dispatcher owns job submission and execution.
type Dispatcher struct {
	registry *queue.Registry
	pool     *queue.WorkerPool
	engines  transcription.Set
	resolver Resolver
	sessions SessionStore
	metrics  *telemetry.JobMetrics
	logger   *zap.Logger
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics records job counts, durations and spans on m.
func WithMetrics(m *telemetry.JobMetrics) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// New wires a dispatcher from explicitly constructed collaborators.
func New(registry *queue.Registry, pool *queue.WorkerPool, engines transcription.Set,
	resolver Resolver, sessions SessionStore, logger *zap.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		registry: registry,
		pool:     pool,
		engines:  engines,
		resolver: resolver,
		sessions: sessions,
		metrics:  telemetry.NoopJobMetrics(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit validates the request, creates a queued job and schedules it. It
// returns as soon as the job is recorded; the outcome is only visible by
// polling the job.
func (d *Dispatcher) Submit(ctx context.Context, sessionID, engine string) (types.Job, error) {
	requested, ok := types.ParseEngineID(engine)
	if !ok {
		return types.Job{}, apperr.Validation("invalid engine %q", engine).
			WithCode(apperr.CodeInvalidEngine).
			WithDetail("engine", engine)
	}
	if sessionID == "" {
		return types.Job{}, apperr.Validation("session_id is required")
	}

	session, err := d.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return types.Job{}, err
	}
	if !session.HasAudio() {
		return types.Job{}, apperr.Validation("session has no audio file").
			WithCode(apperr.CodeNoAudio).
			WithDetail("session_id", sessionID)
	}

	resolved := d.resolver.Resolve(ctx, requested)
	id := d.registry.Create(sessionID, requested, resolved)
	job, _ := d.registry.Get(id)
	d.metrics.Submitted(ctx, string(resolved))

	d.logger.Info("job queued",
		zap.String("job_id", id),
		zap.String("session_id", sessionID),
		zap.String("engine", string(requested)),
		zap.String("resolved_engine", string(resolved)),
	)

	audioRef := session.FileURL
	d.pool.Submit("transcribe "+id, func(ctx context.Context) {
		d.execute(ctx, job, audioRef)
	})

	return job, nil
}

// Get returns a snapshot of one job.
func (d *Dispatcher) Get(id string) (types.Job, error) {
	job, ok := d.registry.Get(id)
	if !ok {
		return types.Job{}, apperr.NotFound("job", id)
	}
	return job, nil
}

// List returns a snapshot of every job.
func (d *Dispatcher) List() []types.Job {
	return d.registry.List()
}

// Wait blocks until every scheduled job has reached a terminal state.
func (d *Dispatcher) Wait() {
	d.pool.Wait()
}

// execute is the body of one detached job. Every exit path leaves the job
// completed or failed.
func (d *Dispatcher) execute(ctx context.Context, job types.Job, audioRef string) {
	logger := d.logger.With(
		zap.String("job_id", job.ID),
		zap.String("session_id", job.SessionID),
		zap.String("engine", string(job.ResolvedEngine)),
	)

	finish := func(status, kind string) {}
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			d.fail(job.ID, err, logger)
			finish(string(types.StatusFailed), string(apperr.KindInternal))
		}
	}()

	if !d.registry.SetStatus(job.ID, types.StatusProcessing) {
		logger.Warn("job not in queued state, skipping")
		return
	}
	ctx, finish = d.metrics.Start(ctx, job.ID, string(job.ResolvedEngine))

	start := time.Now()
	result, err := d.run(ctx, job, audioRef)
	if err != nil {
		d.fail(job.ID, err, logger)
		finish(string(types.StatusFailed), string(apperr.KindOf(err)))
		return
	}

	d.registry.SetStatus(job.ID, types.StatusCompleted)
	finish(string(types.StatusCompleted), "")
	logger.Info("job completed",
		zap.Int("word_count", result.WordCount),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (d *Dispatcher) run(ctx context.Context, job types.Job, audioRef string) (*types.TranscriptionResult, error) {
	engine, ok := d.engines.Get(job.ResolvedEngine)
	if !ok {
		engine = transcription.NewUnimplemented(job.ResolvedEngine)
	}

	result, err := engine.Transcribe(ctx, transcription.Request{SessionID: job.SessionID, AudioRef: audioRef})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, apperr.Internal("engine returned no result", nil)
	}

	if err := d.sessions.SetTranscript(ctx, job.SessionID, result); err != nil {
		return nil, fmt.Errorf("save transcript: %w", err)
	}
	return result, nil
}

// fail records err on the job. A job still queued passes through processing
// first so the observed status sequence stays forward-only.
func (d *Dispatcher) fail(id string, err error, logger *zap.Logger) {
	d.registry.SetStatus(id, types.StatusProcessing)
	if !d.registry.Fail(id, err.Error()) {
		logger.Warn("could not mark job failed", zap.Error(err))
		return
	}
	logger.Error("job failed",
		zap.String("kind", string(apperr.KindOf(err))),
		zap.Error(err),
	)
}
