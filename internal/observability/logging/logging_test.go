package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithComponentAndTraceID(t *testing.T) {
	base := New("noop", slog.LevelInfo)
	scoped := base.WithComponent("catalog").WithTraceID("run-1")

	assert.Equal(t, "catalog", scoped.component)
}

func TestWithContextGeneratesNothingWhenAbsent(t *testing.T) {
	base := New("noop", slog.LevelInfo)
	scoped := base.WithContext(context.Background())

	assert.Same(t, base, scoped)
}

func TestWithContextPropagatesTraceID(t *testing.T) {
	base := New("noop", slog.LevelInfo)
	ctx := ContextWithTraceID(context.Background(), "trace-123")

	scoped := base.WithContext(ctx)
	assert.NotNil(t, scoped)
}

func TestWithErrorNilIsNoop(t *testing.T) {
	base := New("noop", slog.LevelInfo)
	assert.Same(t, base, base.WithError(nil))
}

func TestContextWithTraceIDGeneratesWhenEmpty(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "")
	v, ok := ctx.Value(traceIDKey).(string)
	assert.True(t, ok)
	assert.NotEmpty(t, v)
}
