// Package window classifies message timestamps against the active window:
// business days and business hours, with a bypass for privileged identities.
package window

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnparseable is returned when a timestamp is not a base-10 integer
	// that fits in 64 bits.
	ErrUnparseable = errors.New("timestamp is not an integer")
	// ErrOutOfRange is returned when a timestamp converts to a year
	// outside 1..9999.
	ErrOutOfRange = errors.New("timestamp out of range")
)

// DateLayout formats calendar dates.
const DateLayout = "2006-01-02"

// WeekdayNames are short labels indexed Monday=0.
var WeekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Stamp is a parsed timestamp in the policy's location.
type Stamp struct {
	Weekday int    // 0=Monday .. 6=Sunday
	Hour    int    // 0..23
	Date    string // YYYY-MM-DD
}

// Options configures a Policy. Zero values fall back to Monday–Friday,
// [9, 18) and the process local time zone.
type Options struct {
	Privileged []string // already normalized identities
	Weekdays   []int    // Monday=0 indices counted as business days
	StartHour  int      // inclusive
	EndHour    int      // exclusive
	Location   *time.Location
	// OnParseError is called when IsActiveWindow cannot parse its input.
	OnParseError func(text string, err error)
}

// Policy is the active-window rule. Read-only after construction; safe
// for concurrent use.
type Policy struct {
	privileged   map[string]bool
	order        []string
	businessDays [7]bool
	start, end   int
	loc          *time.Location
	onParseError func(string, error)
}

// DefaultWeekdays is Monday through Friday.
var DefaultWeekdays = []int{0, 1, 2, 3, 4}

// New validates opts and builds a Policy.
func New(opts Options) (*Policy, error) {
	if opts.StartHour == 0 && opts.EndHour == 0 {
		opts.StartHour, opts.EndHour = 9, 18
	}
	if opts.StartHour < 0 || opts.EndHour > 24 || opts.StartHour >= opts.EndHour {
		return nil, fmt.Errorf("invalid business hours [%d, %d)", opts.StartHour, opts.EndHour)
	}
	if len(opts.Weekdays) == 0 {
		opts.Weekdays = DefaultWeekdays
	}

	p := &Policy{
		privileged:   make(map[string]bool, len(opts.Privileged)),
		start:        opts.StartHour,
		end:          opts.EndHour,
		loc:          opts.Location,
		onParseError: opts.OnParseError,
	}
	if p.loc == nil {
		p.loc = time.Local
	}
	for _, d := range opts.Weekdays {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid weekday %d (want 0=Monday..6=Sunday)", d)
		}
		p.businessDays[d] = true
	}
	for _, id := range opts.Privileged {
		if p.privileged[id] {
			continue
		}
		p.privileged[id] = true
		p.order = append(p.order, id)
	}
	return p, nil
}

// Default returns the Monday–Friday 9:00–18:00 policy in local time with
// no privileged identities.
func Default() *Policy {
	p, _ := New(Options{})
	return p
}

// Parse converts seconds-since-epoch text into a Stamp.
func (p *Policy) Parse(text string) (Stamp, error) {
	secs, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return Stamp{}, fmt.Errorf("%w: %q", ErrUnparseable, text)
	}
	t := time.Unix(secs, 0).In(p.loc)
	if y := t.Year(); y < 1 || y > 9999 {
		return Stamp{}, fmt.Errorf("%w: %d", ErrOutOfRange, secs)
	}
	return Stamp{
		Weekday: MondayIndex(t.Weekday()),
		Hour:    t.Hour(),
		Date:    t.Format(DateLayout),
	}, nil
}

// MondayIndex converts a time.Weekday (Sunday=0) to Monday=0.
func MondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// IsActiveWindow reports whether the event counts as active. A privileged
// identity is always active and its timestamp is not inspected. Otherwise
// an unparseable timestamp is reported through OnParseError and treated as
// inactive.
func (p *Policy) IsActiveWindow(text string, identity *string) bool {
	if identity != nil && p.privileged[*identity] {
		return true
	}
	st, err := p.Parse(text)
	if err != nil {
		if p.onParseError != nil {
			p.onParseError(text, err)
		}
		return false
	}
	return p.inWindow(st)
}

// Classify applies the same rule to an already parsed stamp.
func (p *Policy) Classify(st Stamp, identity string) bool {
	if p.privileged[identity] {
		return true
	}
	return p.inWindow(st)
}

func (p *Policy) inWindow(st Stamp) bool {
	return p.IsBusinessDay(st.Weekday) && p.InBusinessHours(st.Hour)
}

// IsBusinessDay reports whether the Monday=0 weekday is a business day.
func (p *Policy) IsBusinessDay(weekday int) bool {
	return weekday >= 0 && weekday < 7 && p.businessDays[weekday]
}

// InBusinessHours reports whether hour falls in [start, end).
func (p *Policy) InBusinessHours(hour int) bool {
	return hour >= p.start && hour < p.end
}

// IsPrivileged reports whether identity bypasses the time rule.
func (p *Policy) IsPrivileged(identity string) bool {
	return p.privileged[identity]
}

// Privileged returns privileged identities in configured order.
func (p *Policy) Privileged() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Hours returns the business hours in order, e.g. 9..17.
func (p *Policy) Hours() []int {
	hours := make([]int, 0, p.end-p.start)
	for h := p.start; h < p.end; h++ {
		hours = append(hours, h)
	}
	return hours
}

// HoursPerDay is the width of the business-hour range.
func (p *Policy) HoursPerDay() int {
	return p.end - p.start
}

// Weekdays returns the business days (Monday=0) in ascending order.
func (p *Policy) Weekdays() []int {
	var days []int
	for d, ok := range p.businessDays {
		if ok {
			days = append(days, d)
		}
	}
	sort.Ints(days)
	return days
}

// Location returns the time zone stamps are computed in.
func (p *Policy) Location() *time.Location {
	return p.loc
}
