package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/codebuildervaibhav/nomad-transcription/dispatch"

// JobMetrics holds the instruments recorded around job execution.
type JobMetrics struct {
	submitted metric.Int64Counter
	finished  metric.Int64Counter
	active    metric.Int64UpDownCounter
	duration  metric.Float64Histogram
	tracer    trace.Tracer
}

// NewJobMetrics creates instruments on meter and spans on the global tracer.
func NewJobMetrics(meter metric.Meter) (*JobMetrics, error) {
	submitted, err := meter.Int64Counter("jobs.submitted",
		metric.WithDescription("Transcription jobs accepted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jobs.submitted counter: %w", err)
	}

	finished, err := meter.Int64Counter("jobs.finished",
		metric.WithDescription("Transcription jobs that reached a terminal status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jobs.finished counter: %w", err)
	}

	active, err := meter.Int64UpDownCounter("jobs.active",
		metric.WithDescription("Transcription jobs currently processing"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jobs.active counter: %w", err)
	}

	duration, err := meter.Float64Histogram("jobs.duration",
		metric.WithDescription("Time from processing to terminal status"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jobs.duration histogram: %w", err)
	}

	return &JobMetrics{
		submitted: submitted,
		finished:  finished,
		active:    active,
		duration:  duration,
		tracer:    otel.Tracer(instrumentationName),
	}, nil
}

// DefaultJobMetrics records on the global meter provider.
func DefaultJobMetrics() *JobMetrics {
	m, err := NewJobMetrics(otel.Meter(instrumentationName))
	if err != nil {
		return NoopJobMetrics()
	}
	return m
}

// NoopJobMetrics discards every measurement.
func NoopJobMetrics() *JobMetrics {
	m, _ := NewJobMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	return m
}

// Submitted counts an accepted job.
func (m *JobMetrics) Submitted(ctx context.Context, engine string) {
	m.submitted.Add(ctx, 1, metric.WithAttributes(attribute.String("engine", engine)))
}

// Start marks a job as processing and opens its span. The returned func
// records the terminal status; kind is empty on success.
func (m *JobMetrics) Start(ctx context.Context, jobID, engine string) (context.Context, func(status, kind string)) {
	start := time.Now()
	engineAttr := attribute.String("engine", engine)

	ctx, span := m.tracer.Start(ctx, "transcribe",
		trace.WithAttributes(attribute.String("job.id", jobID), engineAttr),
	)
	m.active.Add(ctx, 1, metric.WithAttributes(engineAttr))

	return ctx, func(status, kind string) {
		attrs := []attribute.KeyValue{engineAttr, attribute.String("status", status)}
		if kind != "" {
			attrs = append(attrs, attribute.String("error.kind", kind))
		}

		m.active.Add(ctx, -1, metric.WithAttributes(engineAttr))
		m.finished.Add(ctx, 1, metric.WithAttributes(attrs...))
		m.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(engineAttr))

		span.SetAttributes(attrs...)
		if kind != "" {
			span.SetStatus(codes.Error, kind)
		}
		span.End()
	}
}
