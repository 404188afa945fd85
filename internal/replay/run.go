package replay

import (
	"context"
	"errors"
	"fmt"

	"lspkit/internal/jsonrpc"
	"lspkit/internal/lsp"
)

// Options configures Run.
type Options struct {
	Server lsp.Options
	// Sink receives per-step progress; nil discards it.
	Sink Sink
}

// Result summarizes a replayed session.
type Result struct {
	Steps []StepResult
	Sent  []jsonrpc.Value
	// Unread counts scripted messages the server never read, e.g. after exit.
	Unread int
}

// Run feeds msgs to a fresh server backed by engine. Running out of messages
// without an exit is not an error; every other loop failure is returned along
// with the partial result.
func Run(ctx context.Context, msgs []jsonrpc.Value, engine lsp.Engine, opts Options) (Result, error) {
	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}
	q := jsonrpc.NewQueueTransport(msgs...)
	rec := newRecorder(q, Labels(msgs), sink)
	server := lsp.NewServer(rec, engine, opts.Server)

	err := server.Run(ctx)
	res := Result{
		Steps:  rec.finish(),
		Sent:   q.Sent(),
		Unread: q.Remaining(),
	}
	if errors.Is(err, lsp.ErrConnectionClosed) {
		err = nil
	}

	session := Event{Step: -1, Label: "session", Status: StatusDone, Detail: "exit"}
	switch {
	case err != nil:
		session.Status = StatusError
		session.Detail = err.Error()
	case res.Unread > 0:
		session.Detail = fmt.Sprintf("exit, %d unread", res.Unread)
	}
	sink.OnEvent(session)
	return res, err
}
