package infrastructure

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/rgdonohue/health-rank-dash/internal/config"
)

// TestOTelInitialization tests OpenTelemetry initialization with defaults
func TestOTelInitialization(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Default configuration keeps tracing off
	providers, err := InitializeOTel(nil, logger)
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.Tracer)

	// Shutdown is safe without a tracer provider
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = providers.Shutdown(ctx)
	assert.NoError(t, err)
}

// TestOTelInitializationWithTracing tests the stdout trace exporter path
func TestOTelInitializationWithTracing(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceExporter = "stdout"
	cfg.SampleRatio = 1.0

	providers, err := InitializeOTel(cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = providers.Shutdown(ctx)
	assert.NoError(t, err)
}

// TestOTelUnsupportedExporter tests the error path for unknown exporters
func TestOTelUnsupportedExporter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceExporter = "jaeger"

	_, err := InitializeOTel(cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

// TestDefaultOTelConfig tests default configuration values
func TestDefaultOTelConfig(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")

	cfg := DefaultOTelConfig()

	assert.Equal(t, ServiceName, cfg.ServiceName)
	assert.Equal(t, ServiceVersion, cfg.ServiceVersion)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "none", cfg.TraceExporter)
	assert.False(t, cfg.EnableTracing)
	assert.Equal(t, 1.0, cfg.SampleRatio)

	t.Setenv("ENVIRONMENT", "production")
	cfg = DefaultOTelConfig()
	assert.Equal(t, "production", cfg.Environment)
}

// TestOTelConfigFromTelemetry tests mapping from the application config
func TestOTelConfigFromTelemetry(t *testing.T) {
	cfg := OTelConfigFromTelemetry(config.TelemetryConfig{
		Enabled:       true,
		TraceExporter: "stdout",
		SampleRatio:   0.25,
	})

	assert.True(t, cfg.EnableTracing)
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.Equal(t, 0.25, cfg.SampleRatio)
	assert.Equal(t, ServiceName, cfg.ServiceName)
}

// TestTraceCorrelation tests trace ID extraction from span context
func TestTraceCorrelation(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx := context.Background()

	// No span yet
	assert.Empty(t, TraceIDFromContext(ctx))

	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(ctx, "test-operation")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
}

// TestSpanOperations tests span helpers against a recording span
func TestSpanOperations(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx := context.Background()
	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(ctx, "test-span")
	defer span.End()

	// Test adding span attributes
	SetSpanAttributes(ctx, map[string]interface{}{
		"string_attr": "test_value",
		"int_attr":    42,
		"int64_attr":  int64(42),
		"float_attr":  3.14,
		"bool_attr":   true,
		"other_attr":  []string{"stringified"},
	})

	// Test adding span events
	AddSpanEvent(ctx, "catalog.built", map[string]interface{}{
		"indicators": 90,
		"malformed":  3,
	})

	// Test error recording
	RecordError(ctx, assert.AnError)

	assert.True(t, span.IsRecording())
}

// TestSpanOperationsNoop tests that span helpers are safe without a span
func TestSpanOperationsNoop(t *testing.T) {
	ctx := context.Background()

	// None of these should panic without a recording span
	SetSpanAttributes(ctx, map[string]interface{}{"attr": "value"})
	AddSpanEvent(ctx, "event", map[string]interface{}{"data": 1})
	RecordError(ctx, assert.AnError)

	assert.NotNil(t, SpanFromContext(ctx))
}
