// Package aggregate builds every counting structure the report reads from
// in a single pass over the filtered, classified records.
//
// State is mutable only while an Engine is ingesting. After Build returns
// it is treated as read-only by ranking, text analysis and rendering.
package aggregate

import (
	"encoding/json"
	"sort"

	"github.com/abelbrown/moyu/internal/filter"
)

// HourHistogram counts messages per hour of day.
type HourHistogram [24]int

// WeekdayHistogram counts messages per weekday, Monday=0.
type WeekdayHistogram [7]int

// Counters tracks what happened to every row of the run.
type Counters struct {
	Rows            int                      `json:"rows"`
	Rejected        map[filter.Rejection]int `json:"rejected"`
	TimestampErrors int                      `json:"timestamp_errors"`
	Valid           int                      `json:"valid"`
	Active          int                      `json:"active"`
	Bypassed        int                      `json:"bypassed"` // active only because of privilege
}

// RejectedTotal sums rejections across reasons.
func (c Counters) RejectedTotal() int {
	n := 0
	for _, v := range c.Rejected {
		n += v
	}
	return n
}

// State is the aggregate of one run.
type State struct {
	ActiveByIdentity   map[string]int               `json:"active_by_identity"`
	HourByIdentity     map[string]*HourHistogram    `json:"hour_by_identity"`
	WeekdayByIdentity  map[string]*WeekdayHistogram `json:"weekday_by_identity"`
	MessagesByIdentity map[string][]string          `json:"messages_by_identity"`

	// Global histograms count every valid, parsed message regardless of
	// the active window. GlobalWeekday only sees business days.
	GlobalHour    HourHistogram    `json:"global_hour"`
	GlobalWeekday WeekdayHistogram `json:"global_weekday"`

	// ActiveDays holds every business-day date with at least one valid
	// message. It is the denominator of all per-day rates.
	ActiveDays map[string]struct{} `json:"active_days"`
	DateActive map[string]int      `json:"date_active"`

	// Heatmap[weekday][hour] counts active messages on business days in
	// business hours. Only the business rows and columns are ever set.
	Heatmap [7][24]int `json:"heatmap"`

	Counters Counters `json:"counters"`

	order []string // identities in first-active order
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		ActiveByIdentity:   make(map[string]int),
		HourByIdentity:     make(map[string]*HourHistogram),
		WeekdayByIdentity:  make(map[string]*WeekdayHistogram),
		MessagesByIdentity: make(map[string][]string),
		ActiveDays:         make(map[string]struct{}),
		DateActive:         make(map[string]int),
		Counters:           Counters{Rejected: make(map[filter.Rejection]int)},
	}
}

// Identities returns identities with at least one active message, in the
// order they were first counted. Rankings use this order to break ties.
func (s *State) Identities() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// ActiveCount returns the active message count for identity.
func (s *State) ActiveCount(identity string) int {
	return s.ActiveByIdentity[identity]
}

// NumActiveDays is len(ActiveDays).
func (s *State) NumActiveDays() int {
	return len(s.ActiveDays)
}

// Hours returns the identity's hour histogram; zero if unknown.
func (s *State) Hours(identity string) HourHistogram {
	if h := s.HourByIdentity[identity]; h != nil {
		return *h
	}
	return HourHistogram{}
}

// Weekdays returns the identity's weekday histogram; zero if unknown.
func (s *State) Weekdays(identity string) WeekdayHistogram {
	if h := s.WeekdayByIdentity[identity]; h != nil {
		return *h
	}
	return WeekdayHistogram{}
}

// Messages returns the identity's active message bodies in ingest order.
func (s *State) Messages(identity string) []string {
	return s.MessagesByIdentity[identity]
}

// AllMessages returns every active message, grouped by identity in
// first-active order.
func (s *State) AllMessages() []string {
	var out []string
	for _, id := range s.order {
		out = append(out, s.MessagesByIdentity[id]...)
	}
	return out
}

// SortedDates returns the keys of DateActive in ascending order.
func (s *State) SortedDates() []string {
	dates := make([]string, 0, len(s.DateActive))
	for d := range s.DateActive {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Snapshot serializes the state deterministically. Map keys are sorted by
// encoding/json, so equal states produce identical bytes.
func (s *State) Snapshot() ([]byte, error) {
	type snapshot struct {
		*State
		ActiveDays []string `json:"active_days"`
		Order      []string `json:"order"`
	}
	days := make([]string, 0, len(s.ActiveDays))
	for d := range s.ActiveDays {
		days = append(days, d)
	}
	sort.Strings(days)
	return json.Marshal(snapshot{State: s, ActiveDays: days, Order: s.order})
}

func (s *State) touch(identity string) {
	if _, ok := s.ActiveByIdentity[identity]; !ok {
		s.order = append(s.order, identity)
		s.HourByIdentity[identity] = &HourHistogram{}
		s.WeekdayByIdentity[identity] = &WeekdayHistogram{}
	}
}

// Merge adds b into a and returns a. Counts are summed elementwise,
// message lists concatenated, and b's new identities appended to a's
// order. Merging shards in input order reproduces the sequential result.
func Merge(a, b *State) *State {
	for _, id := range b.order {
		a.touch(id)
		a.ActiveByIdentity[id] += b.ActiveByIdentity[id]
		ah, bh := a.HourByIdentity[id], b.HourByIdentity[id]
		for h := range bh {
			ah[h] += bh[h]
		}
		aw, bw := a.WeekdayByIdentity[id], b.WeekdayByIdentity[id]
		for d := range bw {
			aw[d] += bw[d]
		}
		a.MessagesByIdentity[id] = append(a.MessagesByIdentity[id], b.MessagesByIdentity[id]...)
	}

	for h := range b.GlobalHour {
		a.GlobalHour[h] += b.GlobalHour[h]
	}
	for d := range b.GlobalWeekday {
		a.GlobalWeekday[d] += b.GlobalWeekday[d]
	}
	for d := range b.ActiveDays {
		a.ActiveDays[d] = struct{}{}
	}
	for d, n := range b.DateActive {
		a.DateActive[d] += n
	}
	for d := range b.Heatmap {
		for h := range b.Heatmap[d] {
			a.Heatmap[d][h] += b.Heatmap[d][h]
		}
	}

	a.Counters.Rows += b.Counters.Rows
	a.Counters.TimestampErrors += b.Counters.TimestampErrors
	a.Counters.Valid += b.Counters.Valid
	a.Counters.Active += b.Counters.Active
	a.Counters.Bypassed += b.Counters.Bypassed
	for r, n := range b.Counters.Rejected {
		a.Counters.Rejected[r] += n
	}
	return a
}
