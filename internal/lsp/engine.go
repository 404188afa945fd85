package lsp

import (
	"context"

	"lspkit/internal/jsonrpc"
	"lspkit/internal/protocol"
	"lspkit/internal/trace"
	"lspkit/internal/vfs"
)

// Engine is the language-specific half of a server. The protocol loop calls
// these hooks after it has validated parameters and updated the document
// store. Embed BaseEngine to get no-op defaults for hooks an engine does not
// care about.
type Engine interface {
	Initialize(ctx context.Context, client Client, rootURI string, folders []protocol.WorkspaceFolder) (protocol.ServerID, error)
	Initialized(ctx context.Context) error
	ChangeConfiguration(ctx context.Context, settings jsonrpc.Value) error

	DocumentOpened(ctx context.Context, uri, languageID string, version int, text string) error
	DocumentReplaced(ctx context.Context, uri string, version *int, text string) error
	DocumentPatched(ctx context.Context, uri string, version *int, r protocol.Range, text string) error
	DocumentChanged(ctx context.Context, uri string) error
	DocumentClosed(ctx context.Context, uri string) error

	GotoDefinition(ctx context.Context, pos protocol.DocumentPosition) ([]protocol.Location, error)
	SemanticHighlight(ctx context.Context, pos protocol.DocumentPosition) ([]protocol.DocumentHighlight, error)
	References(ctx context.Context, pos protocol.DocumentPosition) ([]protocol.Location, error)
}

// Client is what an engine may do towards the editor. All calls must happen
// on the goroutine running the hook.
type Client interface {
	// PushDiagnostics replaces the diagnostics shown for uri.
	PushDiagnostics(uri string, version *int, diags []protocol.Diagnostic) error
	// Error answers the request being handled with an error instead of a result.
	Error(id jsonrpc.ID, code jsonrpc.ErrorCode, message string) error
	Log(message string)
	Trace(message string)
	Documents() Documents
	TraceLevel() protocol.Trace
}

// Documents is a read-only view of the document store.
type Documents interface {
	Get(uri string) (*vfs.Document, bool)
	URIs() []string
}

// BaseEngine implements every hook as a no-op. Request hooks return empty results.
type BaseEngine struct {
	Name    string
	Version string
}

func (b BaseEngine) Initialize(context.Context, Client, string, []protocol.WorkspaceFolder) (protocol.ServerID, error) {
	name := b.Name
	if name == "" {
		name = "lspkit"
	}
	return protocol.ServerID{Name: name, Version: b.Version}, nil
}

func (BaseEngine) Initialized(context.Context) error { return nil }

func (BaseEngine) ChangeConfiguration(context.Context, jsonrpc.Value) error { return nil }

func (BaseEngine) DocumentOpened(context.Context, string, string, int, string) error { return nil }

func (BaseEngine) DocumentReplaced(context.Context, string, *int, string) error { return nil }

func (BaseEngine) DocumentPatched(context.Context, string, *int, protocol.Range, string) error {
	return nil
}

func (BaseEngine) DocumentChanged(context.Context, string) error { return nil }

func (BaseEngine) DocumentClosed(context.Context, string) error { return nil }

func (BaseEngine) GotoDefinition(context.Context, protocol.DocumentPosition) ([]protocol.Location, error) {
	return nil, nil
}

func (BaseEngine) SemanticHighlight(context.Context, protocol.DocumentPosition) ([]protocol.DocumentHighlight, error) {
	return nil, nil
}

func (BaseEngine) References(context.Context, protocol.DocumentPosition) ([]protocol.Location, error) {
	return nil, nil
}

// RequestID returns the id of the request whose hook is running, if any.
func RequestID(ctx context.Context) (jsonrpc.ID, bool) {
	id, ok := trace.CurrentSpan(ctx).Request.(jsonrpc.ID)
	return id, ok && !id.IsAbsent()
}
