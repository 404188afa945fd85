package trace

// Nop discards every event. It is what FromContext returns when no tracer
// is bound and what New returns for LevelOff, so callers never nil-check.
var Nop Tracer = discard{}

type discard struct{}

func (discard) Emit(*Event) {}

func (discard) Flush() error { return nil }

func (discard) Close() error { return nil }

func (discard) Level() Level { return LevelOff }

func (discard) Enabled() bool { return false }
