package eventlog

import (
	"maps"
	"strings"
	"sync"
)

// DefaultRingSize is the ring capacity used when none is given.
const DefaultRingSize = 1024

// RingBuffer keeps the most recent events. Safe for concurrent use.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []Event
	head  int // next write position
	count int
}

// NewRingBuffer returns a ring holding up to size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{buf: make([]Event, size)}
}

// Push stores e, evicting the oldest event when full. Extra is copied so
// later changes by the caller are not visible.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		e.Extra = maps.Clone(e.Extra)
	}
	r.mu.Lock()
	r.buf[r.head] = e
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
	r.mu.Unlock()
}

// Snapshot returns every held event, oldest first.
func (r *RingBuffer) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return nil
	}
	out := make([]Event, r.count)
	start := (r.head - r.count + len(r.buf)) % len(r.buf)
	for i := range out {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

// Filter returns held events, oldest first, whose kind starts with prefix
// and whose level is at least as severe as level.
func (r *RingBuffer) Filter(prefix string, level Level) []Event {
	var out []Event
	for _, e := range r.Snapshot() {
		if strings.HasPrefix(string(e.Kind), prefix) && e.Level.Rank() >= level.Rank() {
			out = append(out, e)
		}
	}
	return out
}

// Stats counts held events by kind.
func (r *RingBuffer) Stats() map[Kind]int {
	counts := make(map[Kind]int)
	for _, e := range r.Snapshot() {
		counts[e.Kind]++
	}
	return counts
}
