package lsp

import (
	"fmt"

	"lspkit/internal/jsonrpc"
	"lspkit/internal/protocol"
	"lspkit/internal/trace"
)

// PushDiagnostics sends one textDocument/publishDiagnostics notification.
// The list replaces whatever the client shows for uri; an empty list clears
// it. A push for a version older than the one in the store is dropped.
func (s *Server) PushDiagnostics(uri string, version *int, diags []protocol.Diagnostic) error {
	if version != nil {
		if doc, ok := s.store.Get(uri); ok {
			if current, has := doc.Version(); has && *version < current {
				s.tracePoint(trace.ScopeDocument, "diagnostics-stale", fmt.Sprintf("%s v%d < v%d", uri, *version, current))
				return nil
			}
		}
	}
	params := protocol.PublishDiagnosticsParams{URI: uri, Version: version, Diagnostics: diags}
	if err := s.transport.Send(jsonrpc.NewNotification("textDocument/publishDiagnostics", params.Value())); err != nil {
		return fmt.Errorf("publish diagnostics for %s: %w", uri, err)
	}
	s.tracePoint(trace.ScopeDocument, "diagnostics", fmt.Sprintf("%s: %d", uri, len(diags)))
	return nil
}
