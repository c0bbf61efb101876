package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*JobMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewJobMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestJobMetricsLifecycle(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.Submitted(ctx, "groq-turbo")
	m.Submitted(ctx, "deepgram")

	_, finishOK := m.Start(ctx, "j1", "groq-turbo")
	_, finishFail := m.Start(ctx, "j2", "deepgram")
	require.EqualValues(t, 2, sumOf(t, reader, "jobs.active"))

	finishOK("completed", "")
	finishFail("failed", "unimplemented")

	require.EqualValues(t, 2, sumOf(t, reader, "jobs.submitted"))
	require.EqualValues(t, 2, sumOf(t, reader, "jobs.finished"))
	require.EqualValues(t, 0, sumOf(t, reader, "jobs.active"))
}

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	t.Parallel()

	shutdown, err := Init(context.Background(), Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	m := NoopJobMetrics()
	_, finish := m.Start(context.Background(), "j", "wynona")
	finish("failed", "transport")
}
