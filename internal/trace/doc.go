// Package trace provides the tracing subsystem of the language server.
//
// Tracing records what the protocol loop does with every inbound message so
// that stalls, failure bursts and unexpected terminations can be diagnosed
// after the fact. It is independent of the client-facing $/logTrace channel.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	lspkit serve --trace=- --trace-level=message
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: Zero-overhead no-op tracer when disabled
//   - StreamTracer: Immediate write to output (file/stderr)
//   - RingTracer: Circular buffer dumped on abnormal termination
//   - MultiTracer: Combines multiple tracers
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Only crash dumps
//   - LevelSession: Loop start/stop and lifecycle transitions
//   - LevelMessage: One span per inbound message and handler
//   - LevelDebug: Everything including document store mutations
//
// # Scopes
//
//   - ScopeSession: The connection as a whole
//   - ScopeMessage: One inbound message
//   - ScopeHandler: A capability hook invocation
//   - ScopeDocument: Document store mutations
//
// # Context Propagation
//
// The tracer and the current span travel in the context. The span context
// also names the message being handled, so handler spans and engine code
// can tell which request they serve.
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeMessage, "textDocument/definition")
//	ctx = trace.WithMessage(ctx, "textDocument/definition", id)
//	defer span.End("")
package trace
