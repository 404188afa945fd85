package jsonrpc

import (
	"bufio"
	"io"
	"sync"
)

// Transport moves whole messages between the server and its client.
// Receive blocks until a message is available and returns io.EOF once the
// peer has gone away.
type Transport interface {
	Send(msg Value) error
	Receive() (Value, error)
}

// StreamTransport frames messages with Content-Length headers over a byte stream.
type StreamTransport struct {
	in       *bufio.Reader
	out      *bufio.Writer
	maxFrame int
	sendMu   sync.Mutex
}

// NewStreamTransport wraps r and w, typically stdin and stdout.
func NewStreamTransport(r io.Reader, w io.Writer) *StreamTransport {
	return &StreamTransport{
		in:       bufio.NewReader(r),
		out:      bufio.NewWriter(w),
		maxFrame: maxFrameSize,
	}
}

// Receive reads and parses the next frame. A body that is not valid JSON is
// reported as a *DecodeError with code ParseError; an oversized frame is
// skipped and reported as ErrFraming.
func (t *StreamTransport) Receive() (Value, error) {
	payload, err := readFrame(t.in, t.maxFrame)
	if err != nil {
		return Value{}, err
	}
	v, err := Parse(payload)
	if err != nil {
		return Value{}, &DecodeError{Code: ParseError, Reason: err.Error()}
	}
	return v, nil
}

// Send encodes and writes one frame, flushing it immediately.
func (t *StreamTransport) Send(msg Value) error {
	payload, err := msg.MarshalJSON()
	if err != nil {
		return err
	}
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	if err := writeFrame(t.out, payload); err != nil {
		return err
	}
	return t.out.Flush()
}

type queued struct {
	msg Value
	err error
}

// QueueTransport is an in-memory transport fed from a fixed script. Receive
// returns queued entries in order and io.EOF when the queue is drained; Send
// records outgoing messages.
type QueueTransport struct {
	mu      sync.Mutex
	pending []queued
	sent    []Value
	onSend  func(Value)
}

// NewQueueTransport returns a transport preloaded with msgs.
func NewQueueTransport(msgs ...Value) *QueueTransport {
	q := &QueueTransport{}
	for _, m := range msgs {
		q.Push(m)
	}
	return q
}

// Push appends an incoming message.
func (q *QueueTransport) Push(msg Value) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, queued{msg: msg})
}

// PushError appends a receive failure.
func (q *QueueTransport) PushError(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, queued{err: err})
}

// OnSend registers a callback invoked for every sent message.
func (q *QueueTransport) OnSend(fn func(Value)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onSend = fn
}

// Receive implements Transport.
func (q *QueueTransport) Receive() (Value, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return Value{}, io.EOF
	}
	next := q.pending[0]
	q.pending = q.pending[1:]
	return next.msg, next.err
}

// Send implements Transport.
func (q *QueueTransport) Send(msg Value) error {
	q.mu.Lock()
	q.sent = append(q.sent, msg)
	fn := q.onSend
	q.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
	return nil
}

// Sent returns a copy of every message sent so far.
func (q *QueueTransport) Sent() []Value {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Value, len(q.sent))
	copy(out, q.sent)
	return out
}

// Remaining reports how many incoming entries have not been received yet.
func (q *QueueTransport) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
