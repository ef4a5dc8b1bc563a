package tracing

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func TestTracingManagerDisabled(t *testing.T) {
	manager := NewTracingManager(TracingConfig{Enabled: false}, quietLogger())

	require.NoError(t, manager.Initialize(context.Background()))
	require.NoError(t, manager.Shutdown(context.Background()))
}

func TestTracingManagerStdoutExporter(t *testing.T) {
	manager := NewTracingManager(TracingConfig{
		ServiceName:    "teambridge-test",
		ServiceVersion: "test",
		Environment:    "test",
		SampleRate:     1.0,
		Enabled:        true,
		UseStdout:      true,
	}, quietLogger())

	require.NoError(t, manager.Initialize(context.Background()))
	require.NoError(t, manager.Shutdown(context.Background()))
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test_span")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
}

func TestWithOtelTracing(t *testing.T) {
	ctx, span := WithOtelTracing(context.Background(), "test_request")
	defer span.End()

	assert.NotNil(t, ctx)
}

func TestGetOtelTraceIDWithoutSpan(t *testing.T) {
	traceID := GetOtelTraceID(context.Background())
	// Without an active span the zero trace ID string is returned.
	assert.Equal(t, "00000000000000000000000000000000", traceID)
}
