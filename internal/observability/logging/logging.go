// Package logging provides the structured logger shared by every conformance
// engine component, wrapping the standard library's slog with the
// component/trace conventions the rest of the engine expects.
package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// contextKey namespaces values this package stores on a context.
type contextKey string

const traceIDKey contextKey = "conformist_trace_id"

// EnhancedLogger wraps a *slog.Logger with a fixed component name and
// convenience constructors for per-request/per-run trace IDs.
type EnhancedLogger struct {
	*slog.Logger
	component string
}

// New creates the root logger. style selects the handler: "json" for
// production log shipping, "noop" to discard every line, anything else
// (including "") for a human-readable text handler suited to local runs.
func New(style string, level slog.Level) *EnhancedLogger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch style {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "noop":
		handler = slog.NewTextHandler(discardWriter{}, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return &EnhancedLogger{Logger: slog.New(handler)}
}

// WithComponent returns a logger tagged with component, the way every
// subsystem (catalog, synthesizer, sampler, orchestrator…) identifies itself
// in its log lines.
func (l *EnhancedLogger) WithComponent(component string) *EnhancedLogger {
	return &EnhancedLogger{
		Logger:    l.Logger.With("component", component),
		component: component,
	}
}

// WithTraceID tags the logger with a run or request identifier.
func (l *EnhancedLogger) WithTraceID(traceID string) *EnhancedLogger {
	return &EnhancedLogger{
		Logger:    l.Logger.With("trace_id", traceID),
		component: l.component,
	}
}

// WithContext pulls a trace ID out of ctx (if one was attached via
// ContextWithTraceID) and returns a logger carrying it.
func (l *EnhancedLogger) WithContext(ctx context.Context) *EnhancedLogger {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok && traceID != "" {
		return l.WithTraceID(traceID)
	}
	return l
}

// WithError attaches err as a structured field, or returns l unchanged if err is nil.
func (l *EnhancedLogger) WithError(err error) *EnhancedLogger {
	if err == nil {
		return l
	}
	return &EnhancedLogger{
		Logger:    l.Logger.With("error", err.Error()),
		component: l.component,
	}
}

// ContextWithTraceID attaches a trace ID to ctx, generating one if traceID is empty.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = uuid.New().String()
	}
	return context.WithValue(ctx, traceIDKey, traceID)
}

// discardWriter implements io.Writer by dropping everything, backing the
// "noop" style used in tests that don't want log noise.
type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
