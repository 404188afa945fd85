package trace

import (
	"context"
	"fmt"
)

type tracerKey struct{}

type spanKey struct{}

// WithTracer makes t the tracer for work running under ctx. A nil t
// disables tracing for that work.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext returns the tracer bound to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// SpanContext ties work to the span it runs under and to the protocol
// message that caused it.
type SpanContext struct {
	SpanID uint64
	// Method is the method of the message being handled, empty outside one.
	Method string
	// Request is the id of the request being answered, nil for notifications.
	Request fmt.Stringer
}

// Child returns sc moved under span id, still attributed to the same message.
func (sc SpanContext) Child(id uint64) SpanContext {
	sc.SpanID = id
	return sc
}

// CurrentSpan returns the span context bound to ctx, or the zero value.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	sc, _ := ctx.Value(spanKey{}).(SpanContext)
	return sc
}

// WithSpanContext binds sc to ctx.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, spanKey{}, sc)
}

// WithMessage records the message being handled. Spans started from the
// returned context stay attributed to it.
func WithMessage(ctx context.Context, method string, request fmt.Stringer) context.Context {
	sc := CurrentSpan(ctx)
	sc.Method = method
	sc.Request = request
	return WithSpanContext(ctx, sc)
}

// Start begins a span below the one bound to ctx using ctx's tracer and
// returns a context bound to the new span.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	sc := CurrentSpan(ctx)
	span := Begin(FromContext(ctx), scope, name, sc.SpanID)
	if sc.Method != "" {
		span.WithExtra("method", sc.Method)
	}
	if id := span.ID(); id != 0 {
		sc = sc.Child(id)
	}
	return WithSpanContext(ctx, sc), span
}
