package replay

// Status captures the progress of one scripted client message.
type Status string

const (
	// StatusQueued indicates the message has not been delivered yet.
	StatusQueued Status = "queued"
	// StatusWorking indicates the server is handling the message.
	StatusWorking Status = "working"
	// StatusDone indicates the message was handled without a reported failure.
	StatusDone Status = "done"
	// StatusError indicates an error response or a logged handler failure.
	StatusError Status = "error"
)

// Terminal reports whether no further event follows s for the same step.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// Event reports progress for a step, or for the whole session when Step is
// negative.
type Event struct {
	Step   int
	Label  string
	Status Status
	Detail string
}

// Sink receives events in order.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) {
	if f != nil {
		f(evt)
	}
}

type nopSink struct{}

func (nopSink) OnEvent(Event) {}
