package lsp

import (
	"context"
	"fmt"
	"io"
	"testing"

	"lspkit/internal/jsonrpc"
	"lspkit/internal/protocol"
)

// recordingEngine logs every hook call and can be told to fail or panic.
type recordingEngine struct {
	BaseEngine
	client Client
	calls  []string
	fail   map[string]error
	panics map[string]bool
	// onHook runs after a hook is recorded, before it returns.
	onHook func(ctx context.Context, name string)
}

func (e *recordingEngine) record(ctx context.Context, name string) error {
	e.calls = append(e.calls, name)
	if e.panics[name] {
		panic(name + " exploded")
	}
	if e.onHook != nil {
		e.onHook(ctx, name)
	}
	return e.fail[name]
}

func (e *recordingEngine) Initialize(ctx context.Context, c Client, _ string, _ []protocol.WorkspaceFolder) (protocol.ServerID, error) {
	e.client = c
	return protocol.ServerID{Name: "test", Version: "0.1"}, e.record(ctx, "Initialize")
}

func (e *recordingEngine) Initialized(ctx context.Context) error {
	return e.record(ctx, "Initialized")
}

func (e *recordingEngine) ChangeConfiguration(ctx context.Context, _ jsonrpc.Value) error {
	return e.record(ctx, "ChangeConfiguration")
}

func (e *recordingEngine) DocumentOpened(ctx context.Context, uri, _ string, version int, _ string) error {
	return e.record(ctx, fmt.Sprintf("DocumentOpened %s v%d", uri, version))
}

func (e *recordingEngine) DocumentReplaced(ctx context.Context, uri string, _ *int, text string) error {
	return e.record(ctx, fmt.Sprintf("DocumentReplaced %s %q", uri, text))
}

func (e *recordingEngine) DocumentPatched(ctx context.Context, uri string, _ *int, r protocol.Range, text string) error {
	return e.record(ctx, fmt.Sprintf("DocumentPatched %s %s %q", uri, r, text))
}

func (e *recordingEngine) DocumentChanged(ctx context.Context, uri string) error {
	return e.record(ctx, "DocumentChanged "+uri)
}

func (e *recordingEngine) DocumentClosed(ctx context.Context, uri string) error {
	return e.record(ctx, "DocumentClosed "+uri)
}

func (e *recordingEngine) GotoDefinition(ctx context.Context, pos protocol.DocumentPosition) ([]protocol.Location, error) {
	if err := e.record(ctx, "GotoDefinition"); err != nil {
		return nil, err
	}
	return []protocol.Location{{URI: pos.URI, Range: protocol.Range{Start: pos.Position, End: pos.Position}}}, nil
}

func (e *recordingEngine) SemanticHighlight(ctx context.Context, _ protocol.DocumentPosition) ([]protocol.DocumentHighlight, error) {
	return nil, e.record(ctx, "SemanticHighlight")
}

func (e *recordingEngine) References(ctx context.Context, _ protocol.DocumentPosition) ([]protocol.Location, error) {
	return nil, e.record(ctx, "References")
}

func parse(t *testing.T, raw string) jsonrpc.Value {
	t.Helper()
	v, err := jsonrpc.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse %s: %v", raw, err)
	}
	return v
}

func request(t *testing.T, id int64, method, params string) jsonrpc.Value {
	t.Helper()
	var p jsonrpc.Value
	if params != "" {
		p = parse(t, params)
	}
	return jsonrpc.NewRequest(jsonrpc.NumberID(id), method, p)
}

func notification(t *testing.T, method, params string) jsonrpc.Value {
	t.Helper()
	var p jsonrpc.Value
	if params != "" {
		p = parse(t, params)
	}
	return jsonrpc.NewNotification(method, p)
}

// handshake is the usual opening of a session.
func handshake(t *testing.T) []jsonrpc.Value {
	return []jsonrpc.Value{
		request(t, 1, "initialize", `{"rootUri":null}`),
		notification(t, "initialized", `{}`),
	}
}

// closing is the orderly end of a session.
func closing(t *testing.T) []jsonrpc.Value {
	return []jsonrpc.Value{
		request(t, 99, "shutdown", ""),
		notification(t, "exit", ""),
	}
}

func script(parts ...[]jsonrpc.Value) []jsonrpc.Value {
	var out []jsonrpc.Value
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

type session struct {
	server *Server
	sent   []*jsonrpc.Message
	err    error
}

func runSession(t *testing.T, engine Engine, opts Options, msgs ...jsonrpc.Value) *session {
	t.Helper()
	transport := jsonrpc.NewQueueTransport(msgs...)
	if opts.Log == nil {
		opts.Log = io.Discard
	}
	server := NewServer(transport, engine, opts)
	err := server.Run(context.Background())

	out := &session{server: server, err: err}
	for _, raw := range transport.Sent() {
		msg, decodeErr := jsonrpc.Decode(raw)
		if decodeErr != nil {
			t.Fatalf("server sent malformed message %s: %v", raw, decodeErr)
		}
		out.sent = append(out.sent, msg)
	}
	return out
}

func (s *session) response(t *testing.T, id int64) *jsonrpc.Message {
	t.Helper()
	var found *jsonrpc.Message
	for _, msg := range s.sent {
		if msg.IsResponse() && msg.ID == jsonrpc.NumberID(id) {
			if found != nil {
				t.Fatalf("request %d answered twice", id)
			}
			found = msg
		}
	}
	if found == nil {
		t.Fatalf("no response for request %d", id)
	}
	return found
}

func (s *session) notifications(method string) []*jsonrpc.Message {
	var out []*jsonrpc.Message
	for _, msg := range s.sent {
		if msg.Method == method {
			out = append(out, msg)
		}
	}
	return out
}

func expectErrorCode(t *testing.T, msg *jsonrpc.Message, code jsonrpc.ErrorCode) {
	t.Helper()
	if msg.Error == nil {
		t.Fatalf("expected error %s, got result %s", code, msg.Result)
	}
	if msg.Error.Code != code {
		t.Fatalf("expected error %s, got %s (%s)", code, msg.Error.Code, msg.Error.Message)
	}
}
