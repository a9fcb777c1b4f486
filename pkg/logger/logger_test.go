package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

// logLine runs fn against a fresh logger and decodes the single line it wrote.
func logLine(t *testing.T, ctx context.Context, msg string) map[string]interface{} {
	t.Helper()

	var buf bytes.Buffer
	l := WithContext(ctx, NewWithWriter("booking-api", "info", &buf))
	l.Info(msg)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func spanContext(t *testing.T, traceHex, spanHex string) trace.SpanContext {
	t.Helper()

	traceID, err := trace.TraceIDFromHex(traceHex)
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex(spanHex)
	require.NoError(t, err)

	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
}

func TestWithContext_CorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "req-123")

	out := logLine(t, ctx, "booking created")

	assert.Equal(t, "req-123", out["correlation_id"])
	assert.Equal(t, "booking-api", out["service"])
}

func TestWithContext_NoSpan(t *testing.T) {
	out := logLine(t, context.Background(), "no span")

	assert.NotContains(t, out, "trace_id")
	assert.NotContains(t, out, "span_id")
}

func TestWithContext_SpanFields(t *testing.T) {
	sc := spanContext(t, "4bf92f3577b34da6a3ce929d0e0e4736", "00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	out := logLine(t, ctx, "with span")

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", out["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", out["span_id"])
}

func TestWithContext_UserID(t *testing.T) {
	ctx := WithUserID(context.Background(), "customer-789")

	out := logLine(t, ctx, "review added")

	assert.Equal(t, "customer-789", out["user_id"])
}

func TestWithContext_NoUserID(t *testing.T) {
	out := logLine(t, context.Background(), "anonymous")

	assert.NotContains(t, out, "user_id")
}

func TestWithContext_AllFields(t *testing.T) {
	sc := spanContext(t, "abcdef1234567890abcdef1234567890", "1234567890abcdef")
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithCorrelationID(ctx, "corr-all")
	ctx = WithUserID(ctx, "provider-all")

	out := logLine(t, ctx, "everything")

	assert.Equal(t, "corr-all", out["correlation_id"])
	assert.Equal(t, "provider-all", out["user_id"])
	assert.Equal(t, "abcdef1234567890abcdef1234567890", out["trace_id"])
	assert.Equal(t, "1234567890abcdef", out["span_id"])
}

func TestFromContext_RoundTrip(t *testing.T) {
	l := NewWithWriter("booking-api", "info", &bytes.Buffer{})

	ctx := NewContext(context.Background(), l)

	assert.Same(t, l, FromContext(ctx))
}

func TestFromContext_Fallback(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestNewWithWriter_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("booking-api", "verbose", &buf)

	l.Debug("hidden")
	assert.Zero(t, buf.Len())

	l.Info("shown")
	assert.NotZero(t, buf.Len())
}
