// Package eventlog records what a run did as JSONL events.
//
// Events are typed structs written by a background goroutine so the
// pipeline never blocks on disk. An optional RingBuffer keeps recent
// events in memory for the run summary and the browse view.
package eventlog

import (
	"encoding/json"
	"time"
)

// Level is event severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Rank orders levels for filtering; unknown levels rank lowest.
func (l Level) Rank() int {
	switch l {
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 0
	}
}

// Kind is "<phase>.<action>".
type Kind string

const (
	KindRunStart    Kind = "run.start"
	KindRunComplete Kind = "run.complete"
	KindRunError    Kind = "run.error"

	KindIngestStart     Kind = "ingest.start"
	KindIngestComplete  Kind = "ingest.complete"
	KindIngestMalformed Kind = "ingest.malformed"
	KindIngestTimestamp Kind = "ingest.timestamp"

	KindAggregateMerge    Kind = "aggregate.merge"
	KindAggregateComplete Kind = "aggregate.complete"

	KindTextSegment Kind = "text.segment"

	KindChartRender Kind = "chart.render"
	KindChartSkip   Kind = "chart.skip"
	KindChartError  Kind = "chart.error"

	KindReportWrite Kind = "report.write"
)

// Event is one log line. Only Kind and Time are always set.
type Event struct {
	Time  time.Time      `json:"t"`
	Level Level          `json:"level,omitempty"`
	Kind  Kind           `json:"kind"`
	Comp  string         `json:"comp,omitempty"` // "source", "aggregate", "chart", ...
	RunID string         `json:"run_id,omitempty"`
	Dur   time.Duration  `json:"-"`
	DurMs float64        `json:"dur_ms,omitempty"` // filled from Dur when marshalling
	Count int            `json:"count,omitempty"`
	Row   int            `json:"row,omitempty"` // source row for per-record events
	Path  string         `json:"path,omitempty"`
	Err   string         `json:"err,omitempty"`
	Msg   string         `json:"msg,omitempty"`
	Extra map[string]any `json:"extra,omitempty"`
}

// MarshalJSON converts Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
