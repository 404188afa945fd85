package lsp

import (
	"context"

	"lspkit/internal/jsonrpc"
	"lspkit/internal/protocol"
)

func (s *Server) handleDefinition(ctx context.Context, _ jsonrpc.ID, params jsonrpc.Value) (jsonrpc.Value, error) {
	pos, err := protocol.DecodeDocumentPosition(params)
	if err != nil {
		return jsonrpc.Null(), invalidParams("textDocument/definition", err)
	}
	var locs []protocol.Location
	err = s.hook(ctx, "GotoDefinition", func(ctx context.Context) error {
		var hookErr error
		locs, hookErr = s.engine.GotoDefinition(ctx, pos)
		return hookErr
	})
	if err != nil {
		return jsonrpc.Null(), err
	}
	return protocol.Locations(locs), nil
}

func (s *Server) handleDocumentHighlight(ctx context.Context, _ jsonrpc.ID, params jsonrpc.Value) (jsonrpc.Value, error) {
	pos, err := protocol.DecodeDocumentPosition(params)
	if err != nil {
		return jsonrpc.Null(), invalidParams("textDocument/documentHighlight", err)
	}
	var highlights []protocol.DocumentHighlight
	err = s.hook(ctx, "SemanticHighlight", func(ctx context.Context) error {
		var hookErr error
		highlights, hookErr = s.engine.SemanticHighlight(ctx, pos)
		return hookErr
	})
	if err != nil {
		return jsonrpc.Null(), err
	}
	return protocol.Highlights(highlights), nil
}

func (s *Server) handleReferences(ctx context.Context, _ jsonrpc.ID, params jsonrpc.Value) (jsonrpc.Value, error) {
	pos, err := protocol.DecodeDocumentPosition(params)
	if err != nil {
		return jsonrpc.Null(), invalidParams("textDocument/references", err)
	}
	var locs []protocol.Location
	err = s.hook(ctx, "References", func(ctx context.Context) error {
		var hookErr error
		locs, hookErr = s.engine.References(ctx, pos)
		return hookErr
	})
	if err != nil {
		return jsonrpc.Null(), err
	}
	return protocol.Locations(locs), nil
}
