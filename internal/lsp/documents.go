package lsp

import (
	"context"
	"fmt"

	"lspkit/internal/jsonrpc"
	"lspkit/internal/protocol"
	"lspkit/internal/trace"
)

func (s *Server) handleDidOpen(ctx context.Context, _ jsonrpc.ID, params jsonrpc.Value) (jsonrpc.Value, error) {
	p, err := protocol.DecodeDidOpenParams(params)
	if err != nil {
		return jsonrpc.Null(), invalidParams("textDocument/didOpen", err)
	}
	s.store.Open(p.URI, p.LanguageID, p.Version, p.Text)
	s.traceDocument("open", p.URI, &p.Version)
	return jsonrpc.Null(), s.hook(ctx, "DocumentOpened", func(ctx context.Context) error {
		return s.engine.DocumentOpened(ctx, p.URI, p.LanguageID, p.Version, p.Text)
	})
}

// handleDidChange validates the whole batch before touching the store, then
// applies the changes one by one so the engine sees each step.
func (s *Server) handleDidChange(ctx context.Context, _ jsonrpc.ID, params jsonrpc.Value) (jsonrpc.Value, error) {
	p, err := protocol.DecodeDidChangeParams(params)
	if err != nil {
		return jsonrpc.Null(), invalidParams("textDocument/didChange", err)
	}
	if err := s.store.CheckChanges(p.URI, p.Changes); err != nil {
		return jsonrpc.Null(), err
	}
	if len(p.Changes) == 0 {
		if err := s.store.ApplyChanges(p.URI, p.Version, nil); err != nil {
			return jsonrpc.Null(), err
		}
	}

	for _, change := range p.Changes {
		if change.Range == nil {
			if err := s.store.ApplyFull(p.URI, p.Version, change.Text); err != nil {
				return jsonrpc.Null(), err
			}
			s.traceDocument("replace", p.URI, p.Version)
			err = s.hook(ctx, "DocumentReplaced", func(ctx context.Context) error {
				return s.engine.DocumentReplaced(ctx, p.URI, p.Version, change.Text)
			})
		} else {
			r := *change.Range
			if err := s.store.ApplyRange(p.URI, p.Version, r, change.Text); err != nil {
				return jsonrpc.Null(), err
			}
			s.traceDocument("patch "+r.String(), p.URI, p.Version)
			err = s.hook(ctx, "DocumentPatched", func(ctx context.Context) error {
				return s.engine.DocumentPatched(ctx, p.URI, p.Version, r, change.Text)
			})
		}
		if err != nil {
			return jsonrpc.Null(), err
		}
	}

	return jsonrpc.Null(), s.hook(ctx, "DocumentChanged", func(ctx context.Context) error {
		return s.engine.DocumentChanged(ctx, p.URI)
	})
}

func (s *Server) handleDidClose(ctx context.Context, _ jsonrpc.ID, params jsonrpc.Value) (jsonrpc.Value, error) {
	uri, err := protocol.DecodeTextDocumentURI(params)
	if err != nil {
		return jsonrpc.Null(), invalidParams("textDocument/didClose", err)
	}
	if err := s.store.Close(uri); err != nil {
		return jsonrpc.Null(), err
	}
	s.traceDocument("close", uri, nil)
	return jsonrpc.Null(), s.hook(ctx, "DocumentClosed", func(ctx context.Context) error {
		return s.engine.DocumentClosed(ctx, uri)
	})
}

func (s *Server) traceDocument(op, uri string, version *int) {
	detail := uri
	if version != nil {
		detail = fmt.Sprintf("%s v%d", uri, *version)
	}
	s.tracePoint(trace.ScopeDocument, op, detail)
}
