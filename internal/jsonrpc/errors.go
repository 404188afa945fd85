package jsonrpc

import (
	"errors"
	"fmt"
)

// ErrorCode is a JSON-RPC / LSP error code.
type ErrorCode int

// JSON-RPC 2.0 and LSP error codes used by the server.
const (
	ParseError     ErrorCode = -32700
	InvalidRequest ErrorCode = -32600
	MethodNotFound ErrorCode = -32601
	InvalidParams  ErrorCode = -32602
	InternalError  ErrorCode = -32603

	ServerNotInitialized ErrorCode = -32002
	// InvalidRange reports an edit outside the bounds of a document. It sits
	// in the implementation-defined server error range.
	InvalidRange  ErrorCode = -32001
	RequestFailed ErrorCode = -32803
)

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	switch c {
	case ParseError:
		return "ParseError"
	case InvalidRequest:
		return "InvalidRequest"
	case MethodNotFound:
		return "MethodNotFound"
	case InvalidParams:
		return "InvalidParams"
	case InternalError:
		return "InternalError"
	case ServerNotInitialized:
		return "ServerNotInitialized"
	case InvalidRange:
		return "InvalidRange"
	case RequestFailed:
		return "RequestFailed"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// Error is a JSON-RPC error object. Handlers return it to pick the response code.
type Error struct {
	Code    ErrorCode
	Message string
}

// NewError builds an Error with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d (%s): %s", int(e.Code), e.Code, e.Message)
}

// Value encodes e as a JSON-RPC error object.
func (e *Error) Value() Value {
	return Object(
		Field("code", Int(int(e.Code))),
		Field("message", String(e.Message)),
	)
}

// CodeOf returns the code carried by err if it wraps an *Error.
func CodeOf(err error) (ErrorCode, bool) {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Code, true
	}
	return 0, false
}

// DecodeError reports a message that was read but is not a valid JSON-RPC
// envelope. ID is set when it could be recovered from the payload.
type DecodeError struct {
	ID     ID
	Code   ErrorCode
	Reason string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.ID.IsAbsent() {
		return fmt.Sprintf("malformed message: %s", e.Reason)
	}
	return fmt.Sprintf("malformed message (id %s): %s", e.ID, e.Reason)
}

// RPCError converts e into the error object sent back to the client.
func (e *DecodeError) RPCError() *Error {
	return &Error{Code: e.Code, Message: e.Reason}
}
