package aggregate

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/moyu/internal/filter"
	"github.com/abelbrown/moyu/internal/record"
	"github.com/abelbrown/moyu/internal/window"
)

// Outcome reports what Ingest did with a record.
type Outcome int

const (
	Rejected Outcome = iota
	BadTimestamp
	Counted // valid, outside the active window
	Active
)

func (o Outcome) String() string {
	switch o {
	case Rejected:
		return "rejected"
	case BadTimestamp:
		return "bad_timestamp"
	case Counted:
		return "counted"
	case Active:
		return "active"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// SkipFunc is told about records dropped for a bad timestamp.
// It must be safe for concurrent use when Build runs with Workers > 1.
type SkipFunc func(rec record.Raw, err error)

// Engine ingests records into a State. Not safe for concurrent use; run
// one Engine per shard and Merge the results.
type Engine struct {
	filter *filter.Filter
	policy *window.Policy
	norm   *record.Normalizer
	onSkip SkipFunc
	state  *State
}

// NewEngine creates an Engine with a fresh State. norm may be nil.
func NewEngine(f *filter.Filter, p *window.Policy, norm *record.Normalizer, onSkip SkipFunc) *Engine {
	return &Engine{
		filter: f,
		policy: p,
		norm:   norm,
		onSkip: onSkip,
		state:  NewState(),
	}
}

// State returns the accumulated state.
func (e *Engine) State() *State {
	return e.state
}

// Ingest accounts for one record.
func (e *Engine) Ingest(rec record.Raw) Outcome {
	s := e.state
	s.Counters.Rows++

	if reason := e.filter.Reason(rec.Body); reason != filter.Accepted {
		s.Counters.Rejected[reason]++
		return Rejected
	}

	st, err := e.policy.Parse(rec.Timestamp)
	if err != nil {
		s.Counters.TimestampErrors++
		if e.onSkip != nil {
			e.onSkip(rec, err)
		}
		return BadTimestamp
	}
	s.Counters.Valid++

	businessDay := e.policy.IsBusinessDay(st.Weekday)
	if businessDay {
		s.ActiveDays[st.Date] = struct{}{}
		s.GlobalWeekday[st.Weekday]++
	}
	s.GlobalHour[st.Hour]++

	identity := e.norm.Normalize(rec.Identity)
	if !e.policy.Classify(st, identity) {
		return Counted
	}

	s.Counters.Active++
	s.touch(identity)
	s.ActiveByIdentity[identity]++
	s.MessagesByIdentity[identity] = append(s.MessagesByIdentity[identity], rec.Body)
	s.HourByIdentity[identity][st.Hour]++
	s.WeekdayByIdentity[identity][st.Weekday]++

	if businessDay && e.policy.InBusinessHours(st.Hour) {
		s.Heatmap[st.Weekday][st.Hour]++
		s.DateActive[st.Date]++
	} else {
		s.Counters.Bypassed++
	}
	return Active
}

// Options configures Build.
type Options struct {
	Filter     *filter.Filter
	Policy     *window.Policy
	Normalizer *record.Normalizer
	OnSkip     SkipFunc
	// Workers > 1 shards the records and merges the partial states.
	// 0 uses runtime.NumCPU; 1 is the sequential reference pass.
	Workers int
	// OnMerge, if set, is called after each shard is merged.
	OnMerge func(shard int, records int)
}

// minShardSize keeps small exports on the sequential path.
const minShardSize = 4096

// cancelCheckInterval is how many records a shard ingests between
// context checks.
const cancelCheckInterval = 4096

// Build ingests records and returns the final State.
func Build(ctx context.Context, records []record.Raw, opts Options) (*State, error) {
	if opts.Filter == nil {
		opts.Filter = filter.Default()
	}
	if opts.Policy == nil {
		opts.Policy = window.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if limit := len(records) / minShardSize; workers > limit {
		workers = limit
	}
	if workers < 1 {
		workers = 1
	}

	engines := make([]*Engine, workers)
	size := (len(records) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for i := range engines {
		eng := NewEngine(opts.Filter, opts.Policy, opts.Normalizer, opts.OnSkip)
		engines[i] = eng
		lo := min(i*size, len(records))
		hi := min(lo+size, len(records))
		shard := records[lo:hi]
		g.Go(func() error {
			for j, rec := range shard {
				if j%cancelCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				eng.Ingest(rec)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	state := engines[0].State()
	if opts.OnMerge != nil {
		opts.OnMerge(0, state.Counters.Rows)
	}
	for i := 1; i < len(engines); i++ {
		Merge(state, engines[i].State())
		if opts.OnMerge != nil {
			opts.OnMerge(i, engines[i].State().Counters.Rows)
		}
	}
	return state, nil
}
