package eventlog

// The drain goroutine is the only reader of l.ch and the only writer to l.w.
// l.mu guards the ring pointer alone; drain releases it before Push.

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// queueSize bounds events waiting for the drain goroutine.
const queueSize = 4096

type entry struct {
	data  []byte
	ev    Event
	flush chan struct{} // set on Sync markers, which carry no event
}

// Logger writes events as JSONL without blocking the caller. Events that
// do not fit in the queue are dropped and counted. Safe for concurrent use.
type Logger struct {
	mu        sync.Mutex
	ring      *RingBuffer
	runID     string
	ch        chan entry
	w         io.Writer
	closer    io.Closer // set when the Logger owns its file
	dropped   atomic.Uint64
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// New returns a Logger writing to w under a fresh run ID.
func New(w io.Writer) *Logger {
	l := &Logger{
		runID: uuid.NewString(),
		ch:    make(chan entry, queueSize),
		w:     w,
		done:  make(chan struct{}),
	}
	go l.drain()
	return l
}

// Open appends to the file at path, creating parent directories.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create event log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	l := New(f)
	l.closer = f
	return l, nil
}

// Discard returns a Logger that only feeds its ring buffer, if any.
func Discard() *Logger {
	return New(io.Discard)
}

func (l *Logger) drain() {
	defer close(l.done)
	for e := range l.ch {
		if e.flush != nil {
			close(e.flush)
			continue
		}
		if _, err := l.w.Write(e.data); err != nil {
			l.dropped.Add(1)
		}

		l.mu.Lock()
		ring := l.ring
		l.mu.Unlock()

		if ring != nil {
			ring.Push(e.ev)
		}
	}
}

// RunID identifies every event of this Logger.
func (l *Logger) RunID() string {
	return l.runID
}

// Emit queues e, stamping Time and RunID. It never blocks; a full queue or
// a closed Logger drops the event.
func (l *Logger) Emit(e Event) {
	// Close may win the race between the closed check and the send.
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()

	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.Level == "" {
		e.Level = LevelInfo
	}
	e.RunID = l.runID

	data, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	data = append(data, '\n')

	select {
	case l.ch <- entry{data: data, ev: e}:
	default:
		l.dropped.Add(1)
	}
}

// Error emits an error event. err may be nil.
func (l *Logger) Error(kind Kind, comp string, err error) {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	l.Emit(Event{Level: LevelError, Kind: kind, Comp: comp, Err: msg})
}

// Timed emits kind with a measured duration.
func (l *Logger) Timed(kind Kind, comp string, d time.Duration, count int) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Dur: d, Count: count})
}

// Sync blocks until every event queued before the call has been written
// and mirrored. It returns at once on a closed Logger.
func (l *Logger) Sync() {
	if l.closed.Load() {
		return
	}
	done := make(chan struct{})
	sent := func() (ok bool) {
		// Close may win the race between the closed check and the send.
		defer func() {
			if recover() != nil {
				ok = false
			}
		}()
		l.ch <- entry{flush: done}
		return true
	}()
	if sent {
		<-done
	}
}

// SetRingBuffer mirrors every written event into r.
func (l *Logger) SetRingBuffer(r *RingBuffer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ring = r
}

// Dropped is the number of events lost so far.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close flushes queued events and stops the drain goroutine. Later Emit
// calls are dropped. Safe to call more than once.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.ch)
		<-l.done
		if l.closer != nil {
			err = l.closer.Close()
		}
	})
	return err
}
