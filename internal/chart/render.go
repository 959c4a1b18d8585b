package chart

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/moyu/internal/analysis"
)

// Image is one rendered chart.
type Image struct {
	Name  string // file stem, e.g. "moyu_ranking"
	Title string
	PNG   []byte
}

// Result reports the outcome of one chart. Err is ErrNoData for skipped
// charts.
type Result struct {
	Name     string
	Duration time.Duration
	Err      error
}

type job struct {
	name, title string
	draw        func(title string) ([]byte, error)
}

func (r *Renderer) jobs(d *analysis.Dataset) []job {
	return []job{
		{"moyu_ranking", "Active messages, top ranking", func(title string) ([]byte, error) {
			return r.Bars(title, Entries(d.Top))
		}},
		{"moyu_time_distribution", "Messages by hour of day", func(title string) ([]byte, error) {
			return r.Bars(title, d.Hourly)
		}},
		{"top_users_time_distribution", "Focus identities by business hour", func(title string) ([]byte, error) {
			return r.Lines(title, d.FocusHours)
		}},
		{"moyu_efficiency", "Average active messages per day", func(title string) ([]byte, error) {
			return r.Bars(title, Rates(d.DailyAverage))
		}},
		{"weekday_trend", "Messages by business day", func(title string) ([]byte, error) {
			return r.Bars(title, d.WeekdayTrend)
		}},
		{"top_users_weekday_distribution", "Focus identities by business day", func(title string) ([]byte, error) {
			return r.Lines(title, d.FocusWeekdays)
		}},
		{"word_frequency", "Most frequent words", func(title string) ([]byte, error) {
			bars := make([]analysis.Bar, len(d.Words.Top))
			for i, w := range d.Words.Top {
				bars[i] = analysis.Bar{Label: w.Text, Value: float64(w.Count)}
			}
			return r.Bars(title, bars)
		}},
		{"moyu_trend", "Active messages per day", func(title string) ([]byte, error) {
			return r.Trend(title, d.Trend)
		}},
		{"moyu_efficiency_per_hour", "Active messages per business hour", func(title string) ([]byte, error) {
			return r.Bars(title, Rates(d.Efficiency))
		}},
	}
}

// RenderAll draws every chart of d with at most limit renders in flight.
// Charts that fail or have no data are left out of the result and
// reported through onResult, which must be safe for concurrent use.
// Images come back in a fixed order regardless of completion order.
func (r *Renderer) RenderAll(ctx context.Context, d *analysis.Dataset, limit int, onResult func(Result)) ([]Image, error) {
	jobs := r.jobs(d)
	slots := make([]*Image, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			png, err := j.draw(j.title)
			if onResult != nil {
				onResult(Result{Name: j.name, Duration: time.Since(start), Err: err})
			}
			if err == nil {
				slots[i] = &Image{Name: j.name, Title: j.title, PNG: png}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var images []Image
	for _, img := range slots {
		if img != nil {
			images = append(images, *img)
		}
	}
	return images, nil
}

// Skipped reports whether a result is an empty series rather than a failure.
func (res Result) Skipped() bool {
	return errors.Is(res.Err, ErrNoData)
}
