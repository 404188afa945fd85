package lsp

import (
	"context"

	"lspkit/internal/jsonrpc"
	"lspkit/internal/protocol"
	"lspkit/internal/trace"
)

// handlerFunc serves one method. The result is ignored for notifications.
type handlerFunc func(ctx context.Context, id jsonrpc.ID, params jsonrpc.Value) (jsonrpc.Value, error)

// dispatchTable maps method names to handlers. It is built once per server
// and never changes afterwards; a later registration replaces an earlier one.
func (s *Server) dispatchTable() map[string]handlerFunc {
	table := make(map[string]handlerFunc)
	register := func(method string, h handlerFunc) {
		table[method] = h
	}

	register("initialize", s.handleInitialize)
	register("initialized", s.handleInitialized)
	register("shutdown", s.handleShutdown)
	register("exit", s.handleExit)
	register("$/setTrace", s.handleSetTrace)
	register("workspace/didChangeConfiguration", s.handleDidChangeConfiguration)

	register("textDocument/didOpen", s.handleDidOpen)
	register("textDocument/didChange", s.handleDidChange)
	register("textDocument/didClose", s.handleDidClose)

	register("textDocument/definition", s.handleDefinition)
	register("textDocument/documentHighlight", s.handleDocumentHighlight)
	register("textDocument/references", s.handleReferences)
	return table
}

// hook runs one engine callback inside its own handler span.
func (s *Server) hook(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := trace.Start(ctx, trace.ScopeHandler, name)
	err := fn(ctx)
	if err != nil {
		span.End(err.Error())
		return err
	}
	span.End("")
	return nil
}

func (s *Server) handleInitialize(ctx context.Context, _ jsonrpc.ID, params jsonrpc.Value) (jsonrpc.Value, error) {
	if s.initializeAttempted {
		return jsonrpc.Null(), jsonrpc.NewError(jsonrpc.InvalidRequest, "initialize may only be sent once")
	}
	s.initializeAttempted = true

	p, err := protocol.DecodeInitializeParams(params)
	if err != nil {
		return jsonrpc.Null(), invalidParams("initialize", err)
	}
	if p.Trace != nil {
		s.setTrace(*p.Trace)
	}

	var id protocol.ServerID
	err = s.hook(ctx, "Initialize", func(ctx context.Context) error {
		var hookErr error
		id, hookErr = s.engine.Initialize(ctx, s, p.RootURI, p.WorkspaceFolders)
		return hookErr
	})
	if err != nil {
		return jsonrpc.Null(), err
	}
	s.setState(stateInitializing)
	return protocol.InitializeResult(id), nil
}

func (s *Server) handleInitialized(ctx context.Context, _ jsonrpc.ID, _ jsonrpc.Value) (jsonrpc.Value, error) {
	if s.state != stateInitializing {
		s.logf("ignoring initialized in state %s", s.state)
		return jsonrpc.Null(), nil
	}
	s.setState(stateInitialized)
	return jsonrpc.Null(), s.hook(ctx, "Initialized", s.engine.Initialized)
}

func (s *Server) handleShutdown(context.Context, jsonrpc.ID, jsonrpc.Value) (jsonrpc.Value, error) {
	s.setState(stateShutdownRequested)
	return jsonrpc.Null(), nil
}

func (s *Server) handleExit(context.Context, jsonrpc.ID, jsonrpc.Value) (jsonrpc.Value, error) {
	clean := s.state == stateShutdownRequested
	s.setState(stateExited)
	if clean {
		return jsonrpc.Null(), errExit
	}
	return jsonrpc.Null(), ErrExitWithoutShutdown
}
