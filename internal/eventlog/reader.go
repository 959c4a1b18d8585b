package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Query selects events when reading a log back.
type Query struct {
	Kind     string // kind prefix, e.g. "ingest"
	MinLevel Level
	Comp     string
	RunID    string
	Tail     int // keep only the last Tail matches; 0 keeps all
}

// Match reports whether e satisfies q.
func (q Query) Match(e Event) bool {
	if q.Kind != "" && !strings.HasPrefix(string(e.Kind), q.Kind) {
		return false
	}
	if q.MinLevel != "" && e.Level.Rank() < q.MinLevel.Rank() {
		return false
	}
	if q.Comp != "" && e.Comp != q.Comp {
		return false
	}
	if q.RunID != "" && e.RunID != q.RunID {
		return false
	}
	return true
}

// Line is a decoded event with its original JSON.
type Line struct {
	Event Event
	Raw   []byte
}

// Read decodes matching lines from r. Undecodable lines are skipped so a
// log written by an older build still reads.
func Read(r io.Reader, q Query) ([]Line, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []Line
	for sc.Scan() {
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e Event
		if json.Unmarshal(raw, &e) != nil || !q.Match(e) {
			continue
		}
		out = append(out, Line{Event: e, Raw: append([]byte(nil), raw...)})
		if q.Tail > 0 && len(out) > 2*q.Tail {
			out = append(out[:0], out[len(out)-q.Tail:]...)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	if q.Tail > 0 && len(out) > q.Tail {
		out = out[len(out)-q.Tail:]
	}
	return out, nil
}

// Format renders e as one human-readable line.
func Format(e Event) string {
	lvl := strings.ToUpper(string(e.Level))
	if lvl == "" {
		lvl = "?"
	}
	parts := []string{fmt.Sprintf("%s %-5s [%-9s] %-20s", e.Time.Format("15:04:05.000"), lvl, e.Comp, e.Kind)}
	if e.Msg != "" {
		parts = append(parts, e.Msg)
	}
	ms := e.DurMs
	if ms == 0 && e.Dur > 0 {
		ms = float64(e.Dur) / float64(time.Millisecond)
	}
	if ms > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ms), ms))
	}
	if e.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", e.Count))
	}
	if e.Row > 0 {
		parts = append(parts, fmt.Sprintf("row=%d", e.Row))
	}
	if e.Path != "" {
		parts = append(parts, "path="+e.Path)
	}
	if e.Err != "" {
		parts = append(parts, "err="+e.Err)
	}
	return strings.Join(parts, " ")
}

func durPrecision(ms float64) int {
	switch {
	case ms >= 100:
		return 0
	case ms >= 1:
		return 1
	default:
		return 2
	}
}
