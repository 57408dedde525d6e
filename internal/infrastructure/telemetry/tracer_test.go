package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/quick-ledger/ottero/internal/infrastructure/config"
	"github.com/quick-ledger/ottero/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	cfg := telemetry.Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "ottero-test",
	}

	tp, err := telemetry.NewTracerProvider(ctx, cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, tp)

	assert.False(t, tp.IsEnabled())
	assert.Equal(t, "ottero-test", tp.GetConfig().ServiceName)
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewTracerProvider_Enabled(t *testing.T) {
	// Exporter creation is lazy so no collector is needed to start spans
	if testing.Short() {
		t.Skip("Skipping exporter test in short mode")
	}

	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     0.5,
		ServiceName:       "ottero-test",
		Insecure:          true,
	}, logger)
	require.NoError(t, err)
	assert.True(t, tp.IsEnabled())

	_, span := tp.Tracer("billing").Start(ctx, "document.send")
	span.End()

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = tp.Shutdown(shutdownCtx)
}

func TestTracerProvider_TracerWhenDisabled(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	tracer := tp.Tracer("billing")
	require.NotNil(t, tracer)
	_, span := tracer.Start(context.Background(), "noop")
	span.End()
}

func TestTracerConfig_FromApplicationConfig(t *testing.T) {
	cfg := config.TelemetryConfig{
		Enabled:           true,
		CollectorEndpoint: "otel:4317",
		SamplingRatio:     0.25,
		ServiceName:       "ottero",
		Insecure:          true,
		MetricsEnabled:    false,
		MetricsInterval:   30 * time.Second,
	}

	tc := telemetry.TracerConfig(cfg)
	assert.True(t, tc.Enabled)
	assert.Equal(t, "otel:4317", tc.CollectorEndpoint)
	assert.Equal(t, 0.25, tc.SamplingRatio)

	mc := telemetry.MeterConfig(cfg)
	assert.False(t, mc.Enabled, "metrics need both switches")
	assert.Equal(t, 30*time.Second, mc.ExportInterval)

	cfg.MetricsEnabled = true
	assert.True(t, telemetry.MeterConfig(cfg).Enabled)
}
