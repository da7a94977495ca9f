package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/weld/internal/adapters/telemetry"
	"go.trai.ch/weld/internal/core/ports"
)

func TestNoOpTracer_Start(t *testing.T) {
	t.Parallel()

	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()

	newCtx, span := tracer.Start(ctx, "configure", ports.WithAttribute("force", true))
	assert.Equal(t, ctx, newCtx)
	assert.NotNil(t, span)

	span.SetAttribute("reused", true)
	span.RecordError(errors.New("boom"))
	span.End()
}
