package jsonrpc

import "fmt"

// Version is the only protocol version accepted on the wire.
const Version = "2.0"

// Message is a decoded JSON-RPC 2.0 envelope.
type Message struct {
	ID     ID
	Method string
	Params Value
	Result Value
	Error  *Error
}

// IsRequest reports whether m expects a response.
func (m *Message) IsRequest() bool {
	return m.Method != "" && !m.ID.IsAbsent()
}

// IsNotification reports whether m is a method call without an id.
func (m *Message) IsNotification() bool {
	return m.Method != "" && m.ID.IsAbsent()
}

// IsResponse reports whether m answers an earlier request.
func (m *Message) IsResponse() bool {
	return m.Method == ""
}

// Decode validates the envelope shape of v and returns the message it carries.
// Failures are *DecodeError values; their ID is filled when recoverable.
func Decode(v Value) (*Message, error) {
	if v.Kind() != KindObject {
		return nil, &DecodeError{Code: InvalidRequest, Reason: fmt.Sprintf("expected object, got %s", v.Kind())}
	}

	msg := &Message{}
	if raw, ok := v.Get("id"); ok {
		id, err := IDFromValue(raw)
		if err != nil {
			return nil, &DecodeError{Code: InvalidRequest, Reason: err.Error()}
		}
		msg.ID = id
	}

	fail := func(format string, args ...any) (*Message, error) {
		return nil, &DecodeError{ID: msg.ID, Code: InvalidRequest, Reason: fmt.Sprintf(format, args...)}
	}

	version, ok := v.Get("jsonrpc")
	if !ok {
		return fail("missing jsonrpc version")
	}
	if s, isStr := version.AsString(); !isStr || s != Version {
		return fail("unsupported jsonrpc version %s", version)
	}

	if raw, ok := v.Get("method"); ok {
		method, isStr := raw.AsString()
		if !isStr || method == "" {
			return fail("method must be a non-empty string")
		}
		msg.Method = method
		if params, ok := v.Get("params"); ok {
			switch params.Kind() {
			case KindObject, KindArray:
				msg.Params = params
			case KindNull:
			default:
				return fail("params must be an object or array, got %s", params.Kind())
			}
		}
		return msg, nil
	}

	result, hasResult := v.Get("result")
	errVal, hasError := v.Get("error")
	switch {
	case hasResult && hasError:
		return fail("response carries both result and error")
	case hasResult:
		msg.Result = result
	case hasError:
		rpcErr, err := errorFromValue(errVal)
		if err != nil {
			return fail("%v", err)
		}
		msg.Error = rpcErr
	default:
		return fail("message has neither method nor result")
	}
	return msg, nil
}

func errorFromValue(v Value) (*Error, error) {
	codeVal, ok := v.Get("code")
	if !ok {
		return nil, fmt.Errorf("error object without code")
	}
	code, err := codeVal.AsInt()
	if err != nil {
		return nil, fmt.Errorf("error code: %w", err)
	}
	message := ""
	if m, ok := v.Get("message"); ok {
		message, _ = m.AsString()
	}
	return &Error{Code: ErrorCode(code), Message: message}, nil
}

// NewRequest builds a request envelope.
func NewRequest(id ID, method string, params Value) Value {
	msg := Object(
		Field("jsonrpc", String(Version)),
		Field("id", id.Value()),
		Field("method", String(method)),
	)
	if !params.IsNull() {
		msg = msg.With("params", params)
	}
	return msg
}

// NewNotification builds a notification envelope.
func NewNotification(method string, params Value) Value {
	msg := Object(
		Field("jsonrpc", String(Version)),
		Field("method", String(method)),
	)
	if !params.IsNull() {
		msg = msg.With("params", params)
	}
	return msg
}

// NewResponse builds a successful response envelope.
func NewResponse(id ID, result Value) Value {
	return Object(
		Field("jsonrpc", String(Version)),
		Field("id", id.Value()),
		Field("result", result),
	)
}

// NewErrorResponse builds an error response envelope. An absent id is sent as null.
func NewErrorResponse(id ID, rpcErr *Error) Value {
	return Object(
		Field("jsonrpc", String(Version)),
		Field("id", id.Value()),
		Field("error", rpcErr.Value()),
	)
}
