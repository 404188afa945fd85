package lsp

import (
	"errors"
	"fmt"

	"lspkit/internal/jsonrpc"
	"lspkit/internal/vfs"
)

var (
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
	// ErrTooManyFailures signals that reads kept failing past the configured threshold.
	ErrTooManyFailures = errors.New("lsp too many consecutive read failures")
	// ErrConnectionClosed signals that the client went away without sending "exit".
	ErrConnectionClosed = errors.New("lsp connection closed")

	// errExit ends the loop after a shutdown/exit handshake.
	errExit = errors.New("lsp exit")
)

func invalidParams(method string, err error) error {
	return jsonrpc.NewError(jsonrpc.InvalidParams, "%s: %v", method, err)
}

// responseError maps a handler failure to the error object sent to the client.
func responseError(method string, err error) *jsonrpc.Error {
	var rpcErr *jsonrpc.Error
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.Is(err, vfs.ErrInvalidRange):
		return &jsonrpc.Error{Code: jsonrpc.InvalidRange, Message: err.Error()}
	case errors.Is(err, vfs.ErrUnknownDocument):
		return &jsonrpc.Error{Code: jsonrpc.RequestFailed, Message: err.Error()}
	default:
		return &jsonrpc.Error{Code: jsonrpc.InternalError, Message: fmt.Sprintf("%s: %v", method, err)}
	}
}
