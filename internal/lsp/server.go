package lsp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"lspkit/internal/jsonrpc"
	"lspkit/internal/protocol"
	"lspkit/internal/trace"
	"lspkit/internal/vfs"
)

// DefaultMaxConsecutiveFailures is used when Options leaves the threshold unset.
const DefaultMaxConsecutiveFailures = 5

// Options configures a Server.
type Options struct {
	// MaxConsecutiveFailures is the number of failed reads in a row that is
	// still tolerated; one more terminates the loop.
	MaxConsecutiveFailures int
	// Trace is the $/logTrace level until the client picks one.
	Trace  protocol.Trace
	Tracer trace.Tracer
	// Log receives server diagnostics; defaults to stderr.
	Log io.Writer
}

// Server runs the protocol loop for one client connection. It is not safe for
// concurrent use: Run, and every hook it invokes, own the instance.
type Server struct {
	transport jsonrpc.Transport
	engine    Engine
	store     *vfs.Store
	handlers  map[string]handlerFunc

	state               lifecycle
	initializeAttempted bool
	failures            int
	maxFailures         int
	traceLevel          protocol.Trace

	tracer trace.Tracer
	logw   io.Writer
	span   uint64

	pending  jsonrpc.ID
	answered bool
}

// NewServer constructs a server speaking over t and delegating to e.
func NewServer(t jsonrpc.Transport, e Engine, opts Options) *Server {
	maxFailures := opts.MaxConsecutiveFailures
	if maxFailures <= 0 {
		maxFailures = DefaultMaxConsecutiveFailures
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	logw := opts.Log
	if logw == nil {
		logw = os.Stderr
	}
	s := &Server{
		transport:   t,
		engine:      e,
		store:       vfs.NewStore(),
		maxFailures: maxFailures,
		traceLevel:  opts.Trace,
		tracer:      tracer,
		logw:        logw,
	}
	s.handlers = s.dispatchTable()
	return s
}

// Run serves the connection until exit, transport end-of-stream, too many
// failed reads, or ctx cancellation. A shutdown followed by exit returns nil.
func (s *Server) Run(ctx context.Context) error {
	ctx = trace.WithTracer(ctx, s.tracer)
	session := trace.Begin(s.tracer, trace.ScopeSession, "session", 0)
	s.span = session.ID()
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: s.span})

	err := s.loop(ctx)
	s.setState(stateExited)
	if err != nil {
		trace.Failure(s.tracer, "session", err.Error())
		session.End(err.Error())
		return err
	}
	session.End("exit")
	return nil
}

func (s *Server) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := s.receive(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, io.EOF) {
				return ErrConnectionClosed
			}
			if err := s.readFailed(err); err != nil {
				return err
			}
			continue
		}
		msg, err := jsonrpc.Decode(raw)
		if err != nil {
			if err := s.readFailed(err); err != nil {
				return err
			}
			continue
		}
		s.failures = 0

		if msg.IsResponse() {
			s.logf("ignoring response for id %s", msg.ID)
			continue
		}
		if err := s.handleMessage(ctx, msg); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return err
		}
	}
}

type received struct {
	msg jsonrpc.Value
	err error
}

// receive waits for the next message or for ctx to be done. Only one read is
// outstanding at a time; a read abandoned on cancellation is left to finish
// on its own.
func (s *Server) receive(ctx context.Context) (jsonrpc.Value, error) {
	done := make(chan received, 1)
	go func() {
		msg, err := s.transport.Receive()
		done <- received{msg: msg, err: err}
	}()
	select {
	case r := <-done:
		return r.msg, r.err
	case <-ctx.Done():
		return jsonrpc.Value{}, ctx.Err()
	}
}

// readFailed counts a failed read and answers it when the id survived.
func (s *Server) readFailed(err error) error {
	s.failures++
	s.logf("read failed (%d/%d): %v", s.failures, s.maxFailures, err)
	s.tracePoint(trace.ScopeSession, "read-failure", err.Error())

	var decodeErr *jsonrpc.DecodeError
	if errors.As(err, &decodeErr) && !decodeErr.ID.IsAbsent() {
		s.send(jsonrpc.NewErrorResponse(decodeErr.ID, decodeErr.RPCError()))
	}
	if s.failures > s.maxFailures {
		return fmt.Errorf("%w: %d in a row, last: %w", ErrTooManyFailures, s.failures, err)
	}
	return nil
}

func (s *Server) handleMessage(ctx context.Context, msg *jsonrpc.Message) error {
	ctx, span := trace.Start(ctx, trace.ScopeMessage, msg.Method)
	var request fmt.Stringer
	if msg.IsRequest() {
		span.WithExtra("id", msg.ID.String())
		request = msg.ID
	}
	ctx = trace.WithMessage(ctx, msg.Method, request)

	outcome, err := s.route(ctx, msg)
	span.End(outcome)
	return err
}

// route applies lifecycle gating, looks the method up and answers requests.
// The returned error is non-nil only when the loop must stop.
func (s *Server) route(ctx context.Context, msg *jsonrpc.Message) (string, error) {
	if !s.state.routable(msg.Method) {
		if !msg.IsRequest() {
			return "dropped in state " + s.state.String(), nil
		}
		code, text := jsonrpc.ServerNotInitialized, "server not initialized"
		if s.state == stateShutdownRequested {
			code, text = jsonrpc.InvalidRequest, "server is shutting down"
		}
		s.respondError(msg.ID, &jsonrpc.Error{Code: code, Message: text})
		return code.String(), nil
	}

	handler, ok := s.handlers[msg.Method]
	if !ok {
		if !msg.IsRequest() {
			return "unhandled notification", nil
		}
		s.respondError(msg.ID, jsonrpc.NewError(jsonrpc.MethodNotFound, "method not found: %s", msg.Method))
		return jsonrpc.MethodNotFound.String(), nil
	}

	if msg.IsRequest() {
		s.pending, s.answered = msg.ID, false
		defer func() { s.pending = jsonrpc.ID{} }()
	}

	result, err := s.invoke(ctx, handler, msg)
	if errors.Is(err, errExit) || errors.Is(err, ErrExitWithoutShutdown) {
		return "exit", err
	}

	if !msg.IsRequest() {
		if err != nil {
			s.notificationFailed(msg.Method, err)
			return "error", nil
		}
		return "ok", nil
	}
	if s.answered {
		return "answered by engine", nil
	}
	if err != nil {
		rpcErr := responseError(msg.Method, err)
		s.respondError(msg.ID, rpcErr)
		return rpcErr.Code.String(), nil
	}
	s.send(jsonrpc.NewResponse(msg.ID, result))
	return "ok", nil
}

// invoke runs handler, turning a panic into an error.
func (s *Server) invoke(ctx context.Context, handler handlerFunc, msg *jsonrpc.Message) (result jsonrpc.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.tracePoint(trace.ScopeMessage, "panic", fmt.Sprint(r))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler(ctx, msg.ID, msg.Params)
}

func (s *Server) notificationFailed(method string, err error) {
	s.logf("%s: %v", method, err)
	s.notify("window/logMessage", jsonrpc.Object(
		jsonrpc.Field("type", jsonrpc.Int(messageTypeError)),
		jsonrpc.Field("message", jsonrpc.String(fmt.Sprintf("%s: %v", method, err))),
	))
}

// messageTypeError is the window/logMessage type for errors.
const messageTypeError = 1

// Error answers the request currently being handled with an error. It fails
// when id is not that request or the request was already answered.
func (s *Server) Error(id jsonrpc.ID, code jsonrpc.ErrorCode, message string) error {
	if id.IsAbsent() || id != s.pending {
		return fmt.Errorf("no pending request with id %s", id)
	}
	if s.answered {
		return fmt.Errorf("request %s already answered", id)
	}
	s.respondError(id, &jsonrpc.Error{Code: code, Message: message})
	return nil
}

// Log sends message over $/logTrace when the client asked for messages.
func (s *Server) Log(message string) {
	if s.traceLevel < protocol.TraceMessages {
		return
	}
	s.notify("$/logTrace", jsonrpc.Object(jsonrpc.Field("message", jsonrpc.String(message))))
}

// Trace sends message over $/logTrace only in verbose mode.
func (s *Server) Trace(message string) {
	if s.traceLevel < protocol.TraceVerbose {
		return
	}
	s.notify("$/logTrace", jsonrpc.Object(
		jsonrpc.Field("message", jsonrpc.String(message)),
		jsonrpc.Field("verbose", jsonrpc.String(message)),
	))
}

// Documents exposes the store read-only.
func (s *Server) Documents() Documents { return s.store }

// TraceLevel returns the current $/logTrace level.
func (s *Server) TraceLevel() protocol.Trace { return s.traceLevel }

func (s *Server) setTrace(level protocol.Trace) {
	if s.traceLevel == level {
		return
	}
	s.tracePoint(trace.ScopeSession, "trace", s.traceLevel.String()+" -> "+level.String())
	s.traceLevel = level
}

func (s *Server) respondError(id jsonrpc.ID, rpcErr *jsonrpc.Error) {
	if id == s.pending {
		s.answered = true
	}
	s.send(jsonrpc.NewErrorResponse(id, rpcErr))
}

func (s *Server) notify(method string, params jsonrpc.Value) {
	s.send(jsonrpc.NewNotification(method, params))
}

// send writes msg; a failed write is logged and the loop carries on, since
// the next read will report a dead connection.
func (s *Server) send(msg jsonrpc.Value) {
	if err := s.transport.Send(msg); err != nil {
		s.logf("send failed: %v", err)
	}
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(s.logw, "lspkit: "+format+"\n", args...)
}

func (s *Server) tracePoint(scope trace.Scope, name, detail string) {
	trace.Point(s.tracer, scope, name, detail, s.span)
}
