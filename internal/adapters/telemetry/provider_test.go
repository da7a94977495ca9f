package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/weld/internal/adapters/telemetry"
	"go.trai.ch/weld/internal/core/ports"
)

func newRecorder(t *testing.T) (*tracetest.SpanRecorder, *telemetry.OTelTracer) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, telemetry.NewOTelTracer(tp, "test")
}

func attrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value)
	for _, kv := range s.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestOTelTracer_Start(t *testing.T) {
	t.Parallel()
	sr, tracer := newRecorder(t)

	ctx, root := tracer.Start(context.Background(), "configure", ports.WithAttribute("source_dir", "/src"))
	_, child := tracer.Start(ctx, "toolchain.load")
	child.End()
	root.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "toolchain.load", spans[0].Name())
	assert.Equal(t, "configure", spans[1].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Equal(t, "/src", attrs(spans[1])["source_dir"].AsString())
}

func TestOTelSpan_SetAttribute(t *testing.T) {
	t.Parallel()
	sr, tracer := newRecorder(t)

	_, span := tracer.Start(context.Background(), "watch.reconfigure")
	span.SetAttribute("str", "value")
	span.SetAttribute("int", 42)
	span.SetAttribute("int64", int64(7))
	span.SetAttribute("float", 1.5)
	span.SetAttribute("bool", true)
	span.SetAttribute("paths", []string{"weld.yaml", "lib/weld.yaml"})
	span.SetAttribute("other", struct{ A int }{A: 1})
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	got := attrs(spans[0])
	assert.Equal(t, "value", got["str"].AsString())
	assert.Equal(t, int64(42), got["int"].AsInt64())
	assert.Equal(t, int64(7), got["int64"].AsInt64())
	assert.InDelta(t, 1.5, got["float"].AsFloat64(), 0)
	assert.True(t, got["bool"].AsBool())
	assert.Equal(t, []string{"weld.yaml", "lib/weld.yaml"}, got["paths"].AsStringSlice())
	assert.Equal(t, "{1}", got["other"].AsString())
}

func TestOTelSpan_RecordError(t *testing.T) {
	t.Parallel()
	sr, tracer := newRecorder(t)

	_, span := tracer.Start(context.Background(), "snapshot.save")
	span.RecordError(errors.New("disk full"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "disk full", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestNewProvider_RegistersGlobal(t *testing.T) {
	bridge := telemetry.NewBridge(nil)
	tp := telemetry.NewProvider(bridge)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	assert.Same(t, tp, otel.GetTracerProvider())
}
