package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1 // span start
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd // span end
	// KindPoint represents an instant event.
	KindPoint     // instant event
	KindHeartbeat // periodic liveness signal
	KindFailure   // kept at every level above off
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// alwaysKept reports whether k bypasses scope filtering.
func (k Kind) alwaysKept() bool {
	return k == KindHeartbeat || k == KindFailure
}

// Scope indicates the granularity level of the event.
// Lower numeric values represent coarser events.
type Scope uint8

const (
	ScopeSession  Scope = iota + 1 // whole connection (coarsest)
	ScopeMessage                   // one inbound message
	ScopeHandler                   // capability hook invocation
	ScopeDocument                  // document store mutation (finest)
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeSession:
		return "session"
	case ScopeMessage:
		return "message"
	case ScopeHandler:
		return "handler"
	case ScopeDocument:
		return "document"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time         // wall-clock timestamp
	Seq      uint64            // global sequence number (monotonic)
	Kind     Kind              // event kind
	Scope    Scope             // granularity level
	SpanID   uint64            // unique span identifier
	ParentID uint64            // parent span (0 if root)
	GID      uint64            // goroutine ID
	Name     string            // e.g. "initialize", "textDocument/didChange"
	Detail   string            // optional detail message
	Extra    map[string]string // extensible key-value pairs
}
