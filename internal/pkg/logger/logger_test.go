package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestCtx_AddsTraceFields(t *testing.T) {
	var buf bytes.Buffer
	old := Logger
	Logger = zerolog.New(&buf)
	defer func() { Logger = old }()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	Ctx(ctx).Info().Msg("hello")

	assert.Contains(t, buf.String(), `"trace_id":"4bf92f3577b34da6a3ce929d0e0e4736"`)
	assert.Contains(t, buf.String(), `"span_id":"00f067aa0ba902b7"`)
}

func TestCtx_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	old := Logger
	Logger = zerolog.New(&buf)
	defer func() { Logger = old }()

	Ctx(context.Background()).Info().Msg("plain")

	assert.NotContains(t, buf.String(), "trace_id")
	assert.Contains(t, buf.String(), "plain")
}
