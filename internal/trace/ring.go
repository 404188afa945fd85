package trace

import (
	"fmt"
	"io"
	"sync"
)

// defaultRingSize is used when a ring is created without a capacity.
const defaultRingSize = 4096

// RingTracer keeps the most recent events of a session in memory so they can
// be dumped after the session ends badly. Failures are kept at every level.
type RingTracer struct {
	mu      sync.Mutex
	buf     []Event
	next    int
	count   int
	evicted uint64
	level   Level
}

// NewRingTracer returns a ring holding up to capacity events at level.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = defaultRingSize
	}
	return &RingTracer{buf: make([]Event, capacity), level: level}
}

// Emit stores ev, evicting the oldest event once the ring is full.
func (t *RingTracer) Emit(ev *Event) {
	if t.level == LevelOff {
		return
	}
	if !ev.Kind.alwaysKept() && !t.level.ShouldEmit(ev.Scope) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stored := *ev
	stored.Seq = NextSeq()
	t.buf[t.next] = stored
	t.next = (t.next + 1) % len(t.buf)
	if t.count < len(t.buf) {
		t.count++
	} else {
		t.evicted++
	}
}

// Snapshot returns the kept events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	return t.Last(0)
}

// Last returns up to n of the newest events, oldest first. n <= 0 returns
// every kept event.
func (t *RingTracer) Last(n int) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n <= 0 || n > t.count {
		n = t.count
	}
	out := make([]Event, n)
	start := t.next - n
	if start < 0 {
		start += len(t.buf)
	}
	for i := range out {
		out[i] = t.buf[(start+i)%len(t.buf)]
	}
	return out
}

// Evicted reports how many events were pushed out by newer ones.
func (t *RingTracer) Evicted() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.evicted
}

// Dump writes the kept events to w in format, preceded by a note when older
// events were evicted.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	events := t.Snapshot()
	if evicted := t.Evicted(); evicted > 0 && format == FormatText {
		if _, err := fmt.Fprintf(w, "... %d earlier events evicted\n", evicted); err != nil {
			return err
		}
	}
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }

func (t *RingTracer) Close() error { return nil }

func (t *RingTracer) Level() Level { return t.level }

func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
