package lsp

import "lspkit/internal/trace"

type lifecycle uint8

const (
	stateUninitialized lifecycle = iota
	stateInitializing
	stateInitialized
	stateShutdownRequested
	stateExited
)

func (l lifecycle) String() string {
	switch l {
	case stateUninitialized:
		return "uninitialized"
	case stateInitializing:
		return "initializing"
	case stateInitialized:
		return "initialized"
	case stateShutdownRequested:
		return "shutdown-requested"
	case stateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// routable reports whether method may reach the dispatch table in this state.
func (l lifecycle) routable(method string) bool {
	switch l {
	case stateUninitialized:
		return method == "initialize" || method == "exit"
	case stateInitializing, stateInitialized:
		return true
	case stateShutdownRequested:
		return method == "exit"
	default:
		return false
	}
}

func (s *Server) setState(next lifecycle) {
	if s.state == next {
		return
	}
	s.tracePoint(trace.ScopeSession, "lifecycle", s.state.String()+" -> "+next.String())
	s.state = next
}
