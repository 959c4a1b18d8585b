package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/moyu/internal/analysis"
	"github.com/abelbrown/moyu/internal/app"
	"github.com/abelbrown/moyu/internal/filter"
)

var (
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	watchedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const nameWidth = 20

// printSummary writes the run counters and the top leaderboard.
func printSummary(w io.Writer, res *app.Result, topK int) {
	s := res.State
	c := s.Counters

	var rejected []string
	for _, r := range filter.Rejections {
		if n := c.Rejected[r]; n > 0 {
			rejected = append(rejected, fmt.Sprintf("%s %d", r, n))
		}
	}
	line := func(label string, value any, note string) {
		if note != "" {
			note = mutedStyle.Render(" (" + note + ")")
		}
		fmt.Fprintf(w, "%-18s %v%s\n", label, value, note)
	}

	line("Rows read", res.Source.Rows, fmt.Sprintf("%d malformed", res.Source.Malformed))
	line("Rejected", c.RejectedTotal(), strings.Join(rejected, ", "))
	line("Bad timestamps", c.TimestampErrors, "")
	line("Valid messages", c.Valid, "")
	line("Active messages", c.Active, fmt.Sprintf("%d via watch list", c.Bypassed))
	line("Active days", s.NumActiveDays(), "")
	line("Identities", len(s.Identities()), "")
	if res.Dropped > 0 {
		line("Events dropped", warnStyle.Render(fmt.Sprint(res.Dropped)), "not written to the event log")
	}

	rows := analysis.Rows(s, res.Policy, topK)
	if len(rows) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-5s %s %8s %8s", "Rank", runewidth.FillRight("Nickname", nameWidth), "Messages", "Per day")))
	for _, r := range rows {
		note := ""
		if r.Watched {
			note = watchedStyle.Render("  " + r.Note())
		}
		name := runewidth.FillRight(runewidth.Truncate(r.Identity, nameWidth, "…"), nameWidth)
		fmt.Fprintf(w, "%-5d %s %8d %8.2f%s\n", r.Rank, name, r.Count, r.PerDay, note)
	}
}
