// Package obs instruments the core's two suspension points — persistence
// and the view builder's name-resolution await (§5) — with OpenTelemetry
// spans.
//
// The teacher wires an internal/tracing package around the equivalent
// concern (LLM and tool-call spans in internal/agent/loop.go and
// loop_tracing.go), but that package's source was not present in the
// retrieved copy of the teacher repo — every file that imports it is a
// consumer, none defines it. Rather than guessing its internals from
// call-site usage, this package rebuilds the concern directly on top of the
// teacher's own otel dependency (go.opentelemetry.io/otel, already in its
// go.mod), without the bespoke collector layer that isn't recoverable.
package obs

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope reported to exporters.
const tracerName = "github.com/tenex-chat/tenex-sub007/internal/convo"

// Span wraps a trace.Span so callers in internal/convo don't need to import
// the otel API directly.
type Span struct {
	span trace.Span
}

// End completes the span.
func (s Span) End() {
	if s.span != nil {
		s.span.End()
	}
}

// RecordError attaches err to the span and marks it failed, matching how
// the teacher's loop.go annotates a failed run on its trace.
func (s Span) RecordError(err error) {
	if s.span == nil || err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// StartSpan begins a new span named name under the package's tracer,
// returning a derived context and the span handle.
func StartSpan(ctx context.Context, name string) (context.Context, Span) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, name)
	return ctx, Span{span: span}
}
