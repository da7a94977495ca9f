package ports

import "context"

// SpanConfig holds the settings applied by SpanOption values.
type SpanConfig struct {
	// Attributes are set on the span when it starts.
	Attributes map[string]any
}

// SpanOption configures a span at start.
type SpanOption func(*SpanConfig)

// WithAttribute sets an attribute when the span starts.
func WithAttribute(key string, value any) SpanOption {
	return func(c *SpanConfig) {
		if c.Attributes == nil {
			c.Attributes = make(map[string]any)
		}
		c.Attributes[key] = value
	}
}

// Tracer records the phases of configuring a build.
//
//go:generate mockgen -source=tracer.go -destination=mocks/mock_tracer.go -package=mocks
type Tracer interface {
	// Start opens a span named name as a child of the span in ctx.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
}

// Span is a single timed phase.
type Span interface {
	// End completes the span.
	End()
	// RecordError marks the span as failed with err.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}
