package ui

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/moyu/internal/eventlog"
)

// renderEvents prints per-kind counts, then lists problems newest last.
// Pure function.
func renderEvents(counts map[eventlog.Kind]int, problems []eventlog.Event, now time.Time, width int) string {
	var lines []string
	if len(counts) > 0 {
		kinds := slices.Sorted(maps.Keys(counts))
		tally := make([]string, len(kinds))
		for i, k := range kinds {
			tally[i] = fmt.Sprintf("%s %d", k, counts[k])
		}
		lines = append(lines, "  "+MutedStyle.Render(strings.Join(tally, " · ")), "")
	}
	if len(problems) == 0 {
		return strings.Join(append(lines, MutedStyle.Render("  No warnings or errors in this run.")), "\n")
	}
	lines = append(lines, fmt.Sprintf("  %d warnings or errors", len(problems)), "")

	msgW := max(20, width-40)
	for _, e := range problems {
		style, ok := levelStyles[string(e.Level)]
		if !ok {
			style = MutedStyle
		}
		line := fmt.Sprintf("  %6s  %-5s  %-20s", formatAge(now.Sub(e.Time)), style.Render(string(e.Level)), string(e.Kind))
		if e.Row > 0 {
			line += fmt.Sprintf("  row %d", e.Row)
		}
		if e.Count > 0 {
			line += fmt.Sprintf("  n=%d", e.Count)
		}
		if e.Path != "" {
			line += "  " + runewidth.Truncate(e.Path, 30, "…")
		}
		if e.Err != "" {
			line += "  ERR:" + runewidth.Truncate(e.Err, msgW, "…")
		} else if e.Msg != "" {
			line += "  " + runewidth.Truncate(e.Msg, msgW, "…")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}
