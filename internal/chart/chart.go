// Package chart renders report series as PNG images.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/abelbrown/moyu/internal/analysis"
	"github.com/abelbrown/moyu/internal/ranking"
)

// ErrNoData is returned for a series with nothing to draw. Callers skip
// the chart rather than fail the report.
var ErrNoData = errors.New("no data to chart")

const (
	defaultWidth  = 1024
	defaultHeight = 512
	barWidth      = 40
	barSpacing    = 20
)

// Renderer draws charts with one font. The zero font is go-chart's
// built-in Roboto, which has no CJK glyphs; load a TTF for Chinese names.
type Renderer struct {
	font   *truetype.Font
	width  int
	height int
}

// NewRenderer parses fontPath when it is not empty.
func NewRenderer(fontPath string) (*Renderer, error) {
	r := &Renderer{width: defaultWidth, height: defaultHeight}
	if fontPath == "" {
		return r, nil
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", fontPath, err)
	}
	r.font = f
	return r, nil
}

// Bars draws a vertical bar chart.
func (r *Renderer) Bars(title string, bars []analysis.Bar) ([]byte, error) {
	top := 0.0
	values := make([]gochart.Value, len(bars))
	for i, b := range bars {
		values[i] = gochart.Value{Label: b.Label, Value: b.Value}
		top = max(top, b.Value)
	}
	if top == 0 {
		return nil, ErrNoData
	}

	graph := gochart.BarChart{
		Title:      title,
		Font:       r.font,
		Width:      max(r.width, 2*barSpacing+len(bars)*(barWidth+barSpacing)),
		Height:     r.height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: values,
	}
	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %q: %w", title, err)
	}
	return buf.Bytes(), nil
}

// Lines draws one line per group over a shared label axis, with a legend.
// Empty labels get no tick. go-chart needs two x values, so a single
// label is ErrNoData.
func (r *Renderer) Lines(title string, c analysis.Comparison) ([]byte, error) {
	if len(c.Labels) < 2 || len(c.Groups) == 0 {
		return nil, ErrNoData
	}
	xs := make([]float64, len(c.Labels))
	var ticks []gochart.Tick
	for i, l := range c.Labels {
		xs[i] = float64(i)
		if l != "" {
			ticks = append(ticks, gochart.Tick{Value: float64(i), Label: l})
		}
	}

	top := 0
	series := make([]gochart.Series, 0, len(c.Groups))
	for _, g := range c.Groups {
		ys := make([]float64, len(g.Values))
		for i, v := range g.Values {
			ys[i] = float64(v)
			top = max(top, v)
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    g.Identity,
			Style:   gochart.Style{DotWidth: 3, StrokeWidth: 2},
			XValues: xs,
			YValues: ys,
		})
	}
	if top == 0 {
		return nil, ErrNoData
	}

	graph := gochart.Chart{
		Title:      title,
		Font:       r.font,
		Width:      r.width,
		Height:     r.height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 20}},
		XAxis:      gochart.XAxis{Ticks: ticks},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: float64(top) * 1.1},
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %q: %w", title, err)
	}
	return buf.Bytes(), nil
}

// Trend draws the daily series, labelling only t.Ticks. A single day is
// drawn as one bar.
func (r *Renderer) Trend(title string, t analysis.Trend) ([]byte, error) {
	if len(t.Points) == 1 {
		p := t.Points[0]
		return r.Bars(title, []analysis.Bar{{Label: p.Date, Value: float64(p.Count)}})
	}
	labels := make([]string, len(t.Points))
	values := make([]int, len(t.Points))
	for i, p := range t.Points {
		values[i] = p.Count
	}
	for _, i := range t.Ticks {
		labels[i] = t.Points[i].Date
	}
	return r.Lines(title, analysis.Comparison{
		Labels: labels,
		Groups: []analysis.Group{{Identity: "active messages", Values: values}},
	})
}

// Rates converts a rate ranking into bars.
func Rates(rates []ranking.Rate) []analysis.Bar {
	bars := make([]analysis.Bar, len(rates))
	for i, r := range rates {
		bars[i] = analysis.Bar{Label: r.Identity, Value: r.Rate}
	}
	return bars
}

// Entries converts a count ranking into bars.
func Entries(entries []ranking.Entry) []analysis.Bar {
	bars := make([]analysis.Bar, len(entries))
	for i, e := range entries {
		bars[i] = analysis.Bar{Label: e.Identity, Value: float64(e.Count)}
	}
	return bars
}
