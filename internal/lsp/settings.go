package lsp

import (
	"context"

	"lspkit/internal/jsonrpc"
	"lspkit/internal/protocol"
)

func (s *Server) handleDidChangeConfiguration(ctx context.Context, _ jsonrpc.ID, params jsonrpc.Value) (jsonrpc.Value, error) {
	settings := protocol.DecodeSettings(params)
	return jsonrpc.Null(), s.hook(ctx, "ChangeConfiguration", func(ctx context.Context) error {
		return s.engine.ChangeConfiguration(ctx, settings)
	})
}

func (s *Server) handleSetTrace(_ context.Context, _ jsonrpc.ID, params jsonrpc.Value) (jsonrpc.Value, error) {
	level, err := protocol.DecodeSetTrace(params)
	if err != nil {
		return jsonrpc.Null(), invalidParams("$/setTrace", err)
	}
	s.setTrace(level)
	return jsonrpc.Null(), nil
}
