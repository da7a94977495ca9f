package telemetry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/weld/internal/core/ports"
)

// Bridge implements sdktrace.SpanProcessor to log finished spans.
// Nested spans are indented below their parent. Nothing is logged until
// the bridge is enabled.
type Bridge struct {
	logger  ports.Logger
	enabled atomic.Bool

	mu    sync.Mutex
	depth map[trace.SpanID]int
}

// NewBridge returns a new, disabled Bridge.
func NewBridge(logger ports.Logger) *Bridge {
	return &Bridge{
		logger: logger,
		depth:  make(map[trace.SpanID]int),
	}
}

// SetEnabled switches span logging on or off.
func (b *Bridge) SetEnabled(enable bool) {
	b.enabled.Store(enable)
}

// OnStart is called when a span starts.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	if b.logger == nil || !b.enabled.Load() {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	depth := 0
	if p := trace.SpanFromContext(parent).SpanContext(); p.IsValid() {
		if d, ok := b.depth[p.SpanID()]; ok {
			depth = d + 1
		}
	}
	b.depth[sc.SpanID()] = depth
}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	b.mu.Lock()
	depth, started := b.depth[sc.SpanID()]
	delete(b.depth, sc.SpanID())
	b.mu.Unlock()

	if !started || !b.enabled.Load() {
		return
	}

	indent := strings.Repeat("  ", depth)
	took := s.EndTime().Sub(s.StartTime()).Round(time.Microsecond)

	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "phase failed"
		}
		b.logger.Info(fmt.Sprintf("%s%s failed after %s: %s", indent, s.Name(), took, desc))
		return
	}
	b.logger.Info(fmt.Sprintf("%s%s took %s", indent, s.Name(), took))
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}
