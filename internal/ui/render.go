package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/moyu/internal/analysis"
	"github.com/abelbrown/moyu/internal/ranking"
)

const (
	minBarWidth = 10
	barRune     = "█"
)

// formatValue prints whole numbers without decimals.
func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// renderBars draws a horizontal histogram. Labels are padded by display
// width so CJK nicknames line up.
func renderBars(bars []analysis.Bar, width int) string {
	if len(bars) == 0 {
		return MutedStyle.Render("  (no data)")
	}
	labelW, valueW := 0, 0
	top := 0.0
	for _, b := range bars {
		labelW = max(labelW, runewidth.StringWidth(b.Label))
		valueW = max(valueW, len(formatValue(b.Value)))
		top = max(top, b.Value)
	}
	labelW = min(labelW, 20)
	avail := max(minBarWidth, width-labelW-valueW-6)

	var b strings.Builder
	for _, bar := range bars {
		n := 0
		if top > 0 {
			n = int(math.Round(bar.Value / top * float64(avail)))
		}
		label := runewidth.FillRight(runewidth.Truncate(bar.Label, labelW, "…"), labelW)
		fmt.Fprintf(&b, "  %s %s %s\n", label,
			BarStyle.Render(strings.Repeat(barRune, n)),
			MutedStyle.Render(formatValue(bar.Value)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func rateBars(rates []ranking.Rate) []analysis.Bar {
	out := make([]analysis.Bar, len(rates))
	for i, r := range rates {
		out[i] = analysis.Bar{Label: r.Identity, Value: math.Round(r.Rate*100) / 100}
	}
	return out
}

// renderComparison lists each identity's series against shared labels.
func renderComparison(c analysis.Comparison, width int) string {
	if len(c.Groups) == 0 {
		return MutedStyle.Render("  (no data)")
	}
	var parts []string
	for _, g := range c.Groups {
		bars := make([]analysis.Bar, len(g.Values))
		for i, v := range g.Values {
			bars[i] = analysis.Bar{Label: c.Labels[i], Value: float64(v)}
		}
		parts = append(parts, "  "+g.Identity, renderBars(bars, width))
	}
	return strings.Join(parts, "\n")
}

// renderHeatmap prints the weekday by hour grid as counts.
func renderHeatmap(h analysis.Heatmap) string {
	if len(h.Rows) == 0 || len(h.Cols) == 0 {
		return MutedStyle.Render("  (no data)")
	}
	cell := 3
	for _, c := range h.Cols {
		cell = max(cell, runewidth.StringWidth(c)+1)
	}
	rowW := 0
	for _, r := range h.Rows {
		rowW = max(rowW, runewidth.StringWidth(r))
	}

	var b strings.Builder
	b.WriteString("  " + strings.Repeat(" ", rowW))
	for _, c := range h.Cols {
		b.WriteString(runewidth.FillLeft(c, cell))
	}
	b.WriteByte('\n')
	for i, r := range h.Rows {
		b.WriteString("  " + runewidth.FillRight(r, rowW))
		for _, v := range h.Cells[i] {
			s := runewidth.FillLeft(fmt.Sprint(v), cell)
			if v == 0 {
				s = MutedStyle.Render(s)
			} else if v == h.Max {
				s = WatchedStyle.Render(s)
			}
			b.WriteString(s)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderWords(w analysis.Words, width int) string {
	bars := make([]analysis.Bar, len(w.Top))
	for i, word := range w.Top {
		bars[i] = analysis.Bar{Label: word.Text, Value: float64(word.Count)}
	}
	return renderBars(bars, width)
}

// renderTrend prints one line per active day.
func renderTrend(t analysis.Trend, width int) string {
	bars := make([]analysis.Bar, len(t.Points))
	for i, p := range t.Points {
		bars[i] = analysis.Bar{Label: p.Date, Value: float64(p.Count)}
	}
	return renderBars(bars, width)
}
