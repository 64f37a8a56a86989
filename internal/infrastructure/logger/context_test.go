package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func fieldMap(e observer.LoggedEntry) map[string]any {
	return e.ContextMap()
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l, logs := observed()
	ctx := WithContext(context.Background(), l)
	FromContext(ctx).Info("hello")
	assert.Equal(t, 1, logs.Len())

	wrong := context.WithValue(context.Background(), loggerKey, "not a logger")
	assert.NotNil(t, FromContext(wrong))
}

func TestWithRequestID(t *testing.T) {
	l, logs := observed()
	ctx := WithRequestID(context.Background(), l, "req-123")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	FromContext(ctx).Info("x")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-123", fieldMap(logs.All()[0])["request_id"])
}

func TestWithDocument(t *testing.T) {
	l, logs := observed()
	ctx := WithContext(context.Background(), l)
	ctx = WithDocument(ctx, "INVOICE", "7f1c1e44-4a7b-4a43-9d7d-2a1d9c0b1e01")

	assert.Equal(t, "7f1c1e44-4a7b-4a43-9d7d-2a1d9c0b1e01", GetDocumentID(ctx))
	L(ctx).Info("rendering")
	fields := fieldMap(logs.All()[0])
	assert.Equal(t, "INVOICE", fields["doc_type"])
	assert.Equal(t, "7f1c1e44-4a7b-4a43-9d7d-2a1d9c0b1e01", fields["document_id"])
}

func TestGetters_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetDocumentID(ctx))
	assert.Empty(t, GetTraceID(ctx))
}

func TestL_AddsTraceFields(t *testing.T) {
	l, logs := observed()

	t.Run("without span", func(t *testing.T) {
		L(WithContext(context.Background(), l)).Info("a")
		fields := fieldMap(logs.TakeAll()[0])
		assert.NotContains(t, fields, "trace_id")
	})

	t.Run("with span", func(t *testing.T) {
		ctx := WithContext(spanContext(t), l)
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(ctx))

		L(ctx).Info("b")
		fields := fieldMap(logs.TakeAll()[0])
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
		assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	})
}
