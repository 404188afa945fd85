package replay

import (
	"errors"
	"io"
	"sync"

	"lspkit/internal/jsonrpc"
)

// StepResult is the outcome of one scripted message.
type StepResult struct {
	Label         string
	Status        Status
	Detail        string
	Responses     int
	Notifications int
}

// recorder wraps a queue transport and attributes everything the server sends
// to the message it is currently handling. The server reads the next message
// only after finishing the previous one, so receiving closes the step before.
type recorder struct {
	q    *jsonrpc.QueueTransport
	sink Sink

	mu      sync.Mutex
	steps   []StepResult
	current int
}

func newRecorder(q *jsonrpc.QueueTransport, labels []string, sink Sink) *recorder {
	steps := make([]StepResult, len(labels))
	for i, l := range labels {
		steps[i] = StepResult{Label: l, Status: StatusQueued}
	}
	return &recorder{q: q, sink: sink, steps: steps, current: -1}
}

func (r *recorder) Receive() (jsonrpc.Value, error) {
	v, err := r.q.Receive()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.settle(StatusDone, "")
	if errors.Is(err, io.EOF) {
		return v, err
	}
	r.current++
	r.set(StatusWorking, "")
	return v, err
}

func (r *recorder) Send(msg jsonrpc.Value) error {
	err := r.q.Send(msg)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current < 0 || r.current >= len(r.steps) {
		return err
	}
	step := &r.steps[r.current]
	if method, ok := msg.Get("method"); ok {
		step.Notifications++
		if name, _ := method.AsString(); name == "window/logMessage" {
			params, _ := msg.Get("params")
			kind, _ := params.Get("type")
			if n, convErr := kind.AsInt(); convErr == nil && n == 1 {
				text, _ := params.Get("message")
				s, _ := text.AsString()
				r.settle(StatusError, s)
			}
		}
		return err
	}
	step.Responses++
	if rpcErr, ok := msg.Get("error"); ok && !rpcErr.IsNull() {
		text, _ := rpcErr.Get("message")
		s, _ := text.AsString()
		r.settle(StatusError, s)
	}
	return err
}

// settle moves the current step to a terminal status unless it has one.
func (r *recorder) settle(status Status, detail string) {
	if r.current < 0 || r.current >= len(r.steps) {
		return
	}
	if r.steps[r.current].Status.Terminal() {
		return
	}
	r.set(status, detail)
}

func (r *recorder) set(status Status, detail string) {
	if r.current >= len(r.steps) {
		return
	}
	step := &r.steps[r.current]
	step.Status = status
	step.Detail = detail
	r.sink.OnEvent(Event{Step: r.current, Label: step.Label, Status: status, Detail: detail})
}

// finish closes the step in flight and returns a copy of every step.
func (r *recorder) finish() []StepResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settle(StatusDone, "")
	out := make([]StepResult, len(r.steps))
	copy(out, r.steps)
	return out
}
