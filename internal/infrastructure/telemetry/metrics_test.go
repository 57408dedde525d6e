package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/quick-ledger/ottero/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	cfg := telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    60 * time.Second,
		ServiceName:       "ottero-test",
	}

	mp, err := telemetry.NewMeterProvider(ctx, cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, mp)

	assert.False(t, mp.IsEnabled())
	assert.Equal(t, cfg, mp.GetConfig())
	assert.NotNil(t, mp.Meter("billing"))
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestCounter_AddAndInc(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	counter, err := telemetry.NewCounter(provider.Meter("test"), "test.counter", "test", "{item}")
	require.NoError(t, err)

	ctx := context.Background()
	counter.Add(ctx, 4, telemetry.AttrKind.String("QUOTE"))
	counter.Inc(ctx, telemetry.AttrKind.String("QUOTE"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	sum := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(5), sum.DataPoints[0].Value)
}

func TestHistogram_Record(t *testing.T) {
	h, err := telemetry.NewHistogram(noop.NewMeterProvider().Meter("test"), telemetry.HistogramOpts{
		Name:       "test.histogram",
		Unit:       "{currency}",
		Boundaries: telemetry.AmountBuckets,
	})
	require.NoError(t, err)
	h.Record(context.Background(), 99.5)
}

func TestInstruments_NilMeter(t *testing.T) {
	_, err := telemetry.NewCounter(nil, "x", "", "")
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)

	_, err = telemetry.NewHistogram(nil, telemetry.HistogramOpts{Name: "x"})
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}
