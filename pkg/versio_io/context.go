// pkg/versio_io/context.go

package versio_io

import (
	"context"
	"time"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RuntimeContext carries the per-command context, logger, and span through
// every operation that touches the repository, the network, or the shell.
type RuntimeContext struct {
	Ctx        context.Context
	Log        *zap.Logger
	Span       trace.Span
	Timestamp  time.Time
	Command    string
	Attributes map[string]string
}

// NewContext sets up tracing and logging for one command invocation.
func NewContext(ctx context.Context, cmdName string) *RuntimeContext {
	ctx, span := telemetry.Start(ctx, cmdName)
	traceID := span.SpanContext().TraceID().String()

	log := zap.L().With(
		zap.String("command", cmdName),
		zap.String("trace_id", traceID),
	).Named(cmdName)

	return &RuntimeContext{
		Ctx:        ctx,
		Span:       span,
		Log:        log,
		Timestamp:  time.Now(),
		Command:    cmdName,
		Attributes: make(map[string]string),
	}
}

// HandlePanic recovers panics, logs them, and converts to an error.
func (rc *RuntimeContext) HandlePanic(errPtr *error) {
	if r := recover(); r != nil {
		*errPtr = cerr.AssertionFailedf("panic: %v", r)
		rc.Log.Error("panic recovered", zap.Any("panic", r))
	}
}

// End logs outcome, closes the span, and records the command duration.
func (rc *RuntimeContext) End(errPtr *error) {
	duration := time.Since(rc.Timestamp)

	for k, v := range rc.Attributes {
		rc.Span.SetAttributes(attribute.String(k, v))
	}
	rc.Span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))

	if errPtr != nil && *errPtr != nil {
		rc.Log.Debug("command failed", zap.Duration("duration", duration), zap.Error(*errPtr))
		rc.Span.RecordError(*errPtr)
	} else {
		rc.Log.Debug("command completed", zap.Duration("duration", duration))
	}
	rc.Span.End()
}
