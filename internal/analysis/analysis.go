// Package analysis derives every table and chart series of a report from
// a finished aggregate. Build is deterministic: the same State, Policy and
// Config always produce the same Dataset.
package analysis

import (
	"fmt"

	"github.com/abelbrown/moyu/internal/aggregate"
	"github.com/abelbrown/moyu/internal/ranking"
	"github.com/abelbrown/moyu/internal/textstat"
	"github.com/abelbrown/moyu/internal/window"
)

// Config selects how much of each series to keep.
type Config struct {
	TopK           int      // leaderboard size
	EfficiencyK    int      // per-hour efficiency leaderboard size
	Focus          []string // normalized identities for per-identity charts
	FocusCount     int      // used when Focus is empty: take the top N
	WordLimit      int      // global word table size
	FocusWordLimit int      // per-identity word table size
	Stopwords      []string
	MinRunes       int
	MaxTicks       int // trend axis labels
	CloudMin       float64
	CloudMax       float64
}

// DefaultConfig mirrors the classic report layout.
func DefaultConfig() Config {
	return Config{
		TopK:           10,
		EfficiencyK:    10,
		FocusCount:     3,
		WordLimit:      20,
		FocusWordLimit: 10,
		Stopwords:      textstat.DefaultStopwords,
		MinRunes:       2,
		MaxTicks:       20,
		CloudMin:       10,
		CloudMax:       64,
	}
}

// Row is one line of the ranking table.
type Row struct {
	Rank     int     `json:"rank"`
	Identity string  `json:"identity"`
	Count    int     `json:"count"`
	PerDay   float64 `json:"per_day"`
	Watched  bool    `json:"watched"`  // privileged identity
	Appended bool    `json:"appended"` // outside the top K, listed because watched
}

// Note is the membership column of the ranking table.
func (r Row) Note() string {
	switch {
	case r.Appended:
		return "watch list (outside top)"
	case r.Watched:
		return "watch list"
	default:
		return ""
	}
}

// Bar is a labelled value.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Group is one identity's values aligned to a shared label axis.
type Group struct {
	Identity string `json:"identity"`
	Values   []int  `json:"values"`
}

// Comparison is a grouped bar chart.
type Comparison struct {
	Labels []string `json:"labels"`
	Groups []Group  `json:"groups"`
}

// Words is a word table with its cloud.
type Words struct {
	Identity string               `json:"identity,omitempty"`
	Top      []textstat.Word      `json:"top"`
	Cloud    []textstat.CloudWord `json:"cloud"`
}

// Heatmap is the business weekday × business hour grid.
type Heatmap struct {
	Rows  []string `json:"rows"`
	Cols  []string `json:"cols"`
	Cells [][]int  `json:"cells"`
	Max   int      `json:"max"`
}

// Point is one date on the trend line.
type Point struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Trend is the daily active-message series. Ticks are the indices of
// Points that carry an axis label.
type Trend struct {
	Points []Point `json:"points"`
	Ticks  []int   `json:"ticks"`
}

// Dataset holds every series a report renders.
type Dataset struct {
	ActiveDays int                `json:"active_days"`
	Counters   aggregate.Counters `json:"counters"`
	Identities int                `json:"identities"`

	Ranking []Row           `json:"ranking"` // top K plus watched identities
	Top     []ranking.Entry `json:"top"`     // (a)
	Hourly  []Bar           `json:"hourly"`  // (b) all valid messages by hour
	Window  []Bar           `json:"window"`  // business-hour slice of Hourly
	Focus   []string        `json:"focus"`

	FocusHours    Comparison     `json:"focus_hours"`    // (c)
	DailyAverage  []ranking.Rate `json:"daily_average"`  // (d)
	WeekdayTrend  []Bar          `json:"weekday_trend"`  // (e)
	FocusWeekdays Comparison     `json:"focus_weekdays"` // (f)
	Words         Words          `json:"words"`          // (g)
	FocusWords    []Words        `json:"focus_words"`    // (h)
	Heatmap       Heatmap        `json:"heatmap"`        // (i)
	Trend         Trend          `json:"trend"`          // (j)
	Efficiency    []ranking.Rate `json:"efficiency"`     // (k)
}

// HourLabel formats an hour bucket.
func HourLabel(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

// Build derives the Dataset. seg may be nil, in which case word tables
// are empty.
func Build(s *aggregate.State, p *window.Policy, cfg Config, seg textstat.Segmenter) *Dataset {
	days := s.NumActiveDays()
	top := ranking.TopK(s, cfg.TopK)

	d := &Dataset{
		ActiveDays: days,
		Counters:   s.Counters,
		Identities: len(s.Identities()),
		Ranking:    rows(s, p, top, days),
		Top:        top,
		Focus:      focus(s, cfg, top),
	}

	for h, n := range s.GlobalHour {
		d.Hourly = append(d.Hourly, Bar{Label: HourLabel(h), Value: float64(n)})
	}
	hours := p.Hours()
	for _, h := range hours {
		d.Window = append(d.Window, d.Hourly[h])
	}

	hourLabels := make([]string, len(hours))
	for i, h := range hours {
		hourLabels[i] = HourLabel(h)
	}
	weekdays := p.Weekdays()
	dayLabels := make([]string, len(weekdays))
	for i, wd := range weekdays {
		dayLabels[i] = window.WeekdayNames[wd]
		d.WeekdayTrend = append(d.WeekdayTrend, Bar{Label: dayLabels[i], Value: float64(s.GlobalWeekday[wd])})
	}

	d.FocusHours.Labels = hourLabels
	d.FocusWeekdays.Labels = dayLabels
	for _, id := range d.Focus {
		hist := s.Hours(id)
		hv := make([]int, len(hours))
		for i, h := range hours {
			hv[i] = hist[h]
		}
		d.FocusHours.Groups = append(d.FocusHours.Groups, Group{Identity: id, Values: hv})

		wh := s.Weekdays(id)
		wv := make([]int, len(weekdays))
		for i, wd := range weekdays {
			wv[i] = wh[wd]
		}
		d.FocusWeekdays.Groups = append(d.FocusWeekdays.Groups, Group{Identity: id, Values: wv})
	}

	d.DailyAverage = ranking.DailyAverages(top, days)
	d.Efficiency = ranking.EfficiencyRanking(s, days, p.HoursPerDay(), cfg.EfficiencyK)

	d.Heatmap = Heatmap{Rows: dayLabels, Cols: hourLabels, Cells: make([][]int, len(weekdays))}
	for i, wd := range weekdays {
		d.Heatmap.Cells[i] = make([]int, len(hours))
		for j, h := range hours {
			n := s.Heatmap[wd][h]
			d.Heatmap.Cells[i][j] = n
			d.Heatmap.Max = max(d.Heatmap.Max, n)
		}
	}

	dates := s.SortedDates()
	d.Trend.Points = make([]Point, len(dates))
	for i, date := range dates {
		d.Trend.Points[i] = Point{Date: date, Count: s.DateActive[date]}
	}
	d.Trend.Ticks = Ticks(len(dates), cfg.MaxTicks)

	if seg != nil {
		d.Words = words(seg, "", s.AllMessages(), cfg, cfg.WordLimit)
		for _, id := range d.Focus {
			d.FocusWords = append(d.FocusWords, words(seg, id, s.Messages(id), cfg, cfg.FocusWordLimit))
		}
	}
	return d
}

// Ticks picks at most limit evenly spaced indices out of n, starting at 0.
func Ticks(n, limit int) []int {
	if n == 0 {
		return nil
	}
	step := 1
	if limit > 0 {
		step = max(1, n/limit)
	}
	var out []int
	for i := 0; i < n; i += step {
		out = append(out, i)
	}
	return out
}

// Rows is the ranking table: the top K identities followed by privileged
// identities outside the top, which keep their overall rank.
func Rows(s *aggregate.State, p *window.Policy, topK int) []Row {
	return rows(s, p, ranking.TopK(s, topK), s.NumActiveDays())
}

func rows(s *aggregate.State, p *window.Policy, top []ranking.Entry, days int) []Row {
	ext := ranking.Extended(s, top, p.Privileged())
	out := make([]Row, len(ext))
	for i, e := range ext {
		r := Row{
			Rank:     i + 1,
			Identity: e.Identity,
			Count:    e.Count,
			PerDay:   ranking.PerDayAverage(e.Count, days),
			Watched:  p.IsPrivileged(e.Identity),
		}
		if i >= len(top) {
			r.Appended = true
			r.Rank = ranking.Position(s, e.Identity)
		}
		out[i] = r
	}
	return out
}

// focus returns the configured identities that have activity, or the top
// FocusCount identities when none are configured.
func focus(s *aggregate.State, cfg Config, top []ranking.Entry) []string {
	var out []string
	if len(cfg.Focus) > 0 {
		seen := make(map[string]bool)
		for _, id := range cfg.Focus {
			if seen[id] || s.ActiveCount(id) == 0 {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
		return out
	}
	for i := 0; i < len(top) && i < cfg.FocusCount; i++ {
		out = append(out, top[i].Identity)
	}
	return out
}

func words(seg textstat.Segmenter, id string, texts []string, cfg Config, limit int) Words {
	top := textstat.Frequencies(seg, texts, textstat.Options{
		Stopwords: cfg.Stopwords,
		MinRunes:  cfg.MinRunes,
		Limit:     limit,
	})
	return Words{
		Identity: id,
		Top:      top,
		Cloud:    textstat.Cloud(top, cfg.CloudMin, cfg.CloudMax),
	}
}
