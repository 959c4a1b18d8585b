package aggregate

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/moyu/internal/filter"
	"github.com/abelbrown/moyu/internal/record"
	"github.com/abelbrown/moyu/internal/window"
)

// 2024-01-01 is a Monday.
func at(day, hour int) string {
	return strconv.FormatInt(time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC).Unix(), 10)
}

func policy(t *testing.T, privileged ...string) *window.Policy {
	t.Helper()
	p, err := window.New(window.Options{Privileged: privileged, Location: time.UTC})
	require.NoError(t, err)
	return p
}

func ingestAll(t *testing.T, p *window.Policy, recs []record.Raw) *State {
	t.Helper()
	eng := NewEngine(filter.Default(), p, record.NewNormalizer(0), nil)
	for _, r := range recs {
		eng.Ingest(r)
	}
	return eng.State()
}

func exampleRecords() []record.Raw {
	return []record.Raw{
		{Row: 1, Timestamp: at(1, 10), Identity: "alice", Body: "hello"},
		{Row: 2, Timestamp: at(1, 20), Identity: "alice", Body: "late"},
		{Row: 3, Timestamp: at(6, 11), Identity: "bob", Body: "weekend"},
	}
}

func TestIngestExample(t *testing.T) {
	s := ingestAll(t, policy(t), exampleRecords())

	assert.Equal(t, map[string]int{"alice": 1}, s.ActiveByIdentity)
	assert.Equal(t, map[string]struct{}{"2024-01-01": {}}, s.ActiveDays)
	assert.Equal(t, 2, s.GlobalWeekday[0])
	assert.Equal(t, 0, s.GlobalWeekday[5], "saturday is not a business day")
	assert.Equal(t, 1, s.GlobalHour[11], "weekend messages still count by hour")
	assert.Equal(t, 1, s.GlobalHour[10])
	assert.Equal(t, 1, s.GlobalHour[20])
	assert.Equal(t, []string{"hello"}, s.Messages("alice"))
	assert.Equal(t, 1, s.Heatmap[0][10])
	assert.Equal(t, map[string]int{"2024-01-01": 1}, s.DateActive)
	assert.Equal(t, []string{"alice"}, s.Identities())
	assert.Equal(t, 3, s.Counters.Valid)
	assert.Equal(t, 1, s.Counters.Active)
}

func TestIngestPrivileged(t *testing.T) {
	s := ingestAll(t, policy(t, "alice"), exampleRecords())

	assert.Equal(t, map[string]int{"alice": 2}, s.ActiveByIdentity)
	hours := s.Hours("alice")
	assert.Equal(t, 1, hours[10])
	assert.Equal(t, 1, hours[20], "off-hours message is bucketed by its real hour")
	assert.Equal(t, []string{"hello", "late"}, s.Messages("alice"))

	// The 20:00 message is active but outside business hours: no heatmap
	// cell and no trend date.
	assert.Equal(t, 1, s.Heatmap[0][10])
	assert.Equal(t, 0, s.Heatmap[0][17])
	assert.Equal(t, map[string]int{"2024-01-01": 1}, s.DateActive)
	assert.Equal(t, 1, s.Counters.Bypassed)
}

func TestPrivilegedWeekendBucket(t *testing.T) {
	s := ingestAll(t, policy(t, "bob"), exampleRecords())

	assert.Equal(t, 1, s.ActiveCount("bob"))
	wd := s.Weekdays("bob")
	assert.Equal(t, 1, wd[5], "saturday message lands in the saturday bucket")
	assert.NotContains(t, s.ActiveDays, "2024-01-06")
}

func TestIngestOutcomes(t *testing.T) {
	eng := NewEngine(filter.Default(), policy(t), nil, nil)

	assert.Equal(t, Rejected, eng.Ingest(record.Raw{Timestamp: at(1, 10), Body: ""}))
	assert.Equal(t, Rejected, eng.Ingest(record.Raw{Timestamp: at(1, 10), Body: "<msg>撤回了一条消息</msg>"}))
	assert.Equal(t, BadTimestamp, eng.Ingest(record.Raw{Timestamp: "nope", Body: "hi"}))
	assert.Equal(t, Counted, eng.Ingest(record.Raw{Timestamp: at(1, 8), Body: "hi"}))
	assert.Equal(t, Active, eng.Ingest(record.Raw{Timestamp: at(1, 9), Body: "hi"}))

	c := eng.State().Counters
	assert.Equal(t, 5, c.Rows)
	assert.Equal(t, 1, c.Rejected[filter.Empty])
	assert.Equal(t, 1, c.Rejected[filter.Markup])
	assert.Equal(t, 0, c.Rejected[filter.Retraction])
	assert.Equal(t, 2, c.RejectedTotal())
	assert.Equal(t, 1, c.TimestampErrors)
	assert.Equal(t, 2, c.Valid)
	assert.Equal(t, 1, c.Active)
	assert.Equal(t, "bad_timestamp", BadTimestamp.String())
}

func TestRejectedRecordsDoNotCountGlobally(t *testing.T) {
	s := ingestAll(t, policy(t), []record.Raw{
		{Timestamp: at(1, 10), Identity: "a", Body: "<xml/>"},
		{Timestamp: "bad", Identity: "a", Body: "hi"},
	})
	assert.Equal(t, HourHistogram{}, s.GlobalHour)
	assert.Equal(t, WeekdayHistogram{}, s.GlobalWeekday)
	assert.Empty(t, s.ActiveDays)
}

func TestSkipHook(t *testing.T) {
	var skipped []int
	eng := NewEngine(filter.Default(), policy(t), nil, func(rec record.Raw, err error) {
		assert.ErrorIs(t, err, window.ErrUnparseable)
		skipped = append(skipped, rec.Row)
	})
	eng.Ingest(record.Raw{Row: 7, Timestamp: "x", Body: "hi"})
	eng.Ingest(record.Raw{Row: 8, Timestamp: at(1, 10), Body: "hi"})
	assert.Equal(t, []int{7}, skipped)
}

func TestEmptyIdentityIsAKey(t *testing.T) {
	s := ingestAll(t, policy(t), []record.Raw{
		{Timestamp: at(1, 10), Identity: "🐟", Body: "a"},
		{Timestamp: at(1, 11), Identity: "", Body: "b"},
		{Timestamp: at(1, 12), Identity: "🐟🐟", Body: "c"},
	})
	assert.Equal(t, map[string]int{"": 3}, s.ActiveByIdentity)
}

func TestNormalizationCollisionMerges(t *testing.T) {
	s := ingestAll(t, policy(t), []record.Raw{
		{Timestamp: at(1, 10), Identity: "alice🐟", Body: "a"},
		{Timestamp: at(1, 11), Identity: "alice🎣", Body: "b"},
	})
	assert.Equal(t, map[string]int{"alice": 2}, s.ActiveByIdentity)
}

// generate builds a deterministic mixed workload large enough to shard.
func generate(n int) []record.Raw {
	rng := rand.New(rand.NewSource(42))
	names := []string{"alice", "bob", "carol", "dave", "摸鱼王", "erin🐟"}
	bodies := []string{"hello", "lunch?", "", "<img/>", "撤回了一条消息", "meeting", "ok"}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	recs := make([]record.Raw, n)
	for i := range recs {
		ts := strconv.FormatInt(base+rng.Int63n(60*24*3600), 10)
		if rng.Intn(50) == 0 {
			ts = "garbage"
		}
		recs[i] = record.Raw{
			Row:       i + 2,
			Timestamp: ts,
			Identity:  names[rng.Intn(len(names))],
			Body:      bodies[rng.Intn(len(bodies))],
		}
	}
	return recs
}

func build(t *testing.T, recs []record.Raw, workers int, privileged ...string) *State {
	t.Helper()
	s, err := Build(context.Background(), recs, Options{
		Filter:     filter.Default(),
		Policy:     policy(t, privileged...),
		Normalizer: record.NewNormalizer(0),
		Workers:    workers,
	})
	require.NoError(t, err)
	return s
}

func TestActiveSumMatchesClassifier(t *testing.T) {
	recs := generate(5000)
	p := policy(t, "carol")
	f := filter.Default()
	norm := record.NewNormalizer(0)

	want := 0
	for _, r := range recs {
		if !f.IsValid(r.Body) {
			continue
		}
		if _, err := p.Parse(r.Timestamp); err != nil {
			continue
		}
		id := norm.Normalize(r.Identity)
		if p.IsActiveWindow(r.Timestamp, &id) {
			want++
		}
	}

	s := build(t, recs, 1, "carol")
	got := 0
	for _, n := range s.ActiveByIdentity {
		got += n
	}
	assert.Equal(t, want, got)
	assert.Equal(t, want, s.Counters.Active)
}

func TestActiveDaysCoverTrendDates(t *testing.T) {
	s := build(t, generate(5000), 1, "alice")
	for d, n := range s.DateActive {
		if n > 0 {
			assert.Contains(t, s.ActiveDays, d)
		}
	}
	assert.GreaterOrEqual(t, len(s.ActiveDays), len(s.DateActive))
}

func TestIdempotent(t *testing.T) {
	recs := generate(3000)
	a, err := build(t, recs, 1).Snapshot()
	require.NoError(t, err)
	b, err := build(t, recs, 1).Snapshot()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func countsOf(s *State) map[string]any {
	hours := map[string]HourHistogram{}
	for id := range s.ActiveByIdentity {
		hours[id] = s.Hours(id)
	}
	weekdays := map[string]WeekdayHistogram{}
	for id := range s.ActiveByIdentity {
		weekdays[id] = s.Weekdays(id)
	}
	msgs := map[string]int{}
	for id, m := range s.MessagesByIdentity {
		msgs[id] = len(m)
	}
	return map[string]any{
		"active":   s.ActiveByIdentity,
		"hours":    hours,
		"weekdays": weekdays,
		"messages": msgs,
		"ghour":    s.GlobalHour,
		"gweekday": s.GlobalWeekday,
		"days":     s.ActiveDays,
		"dates":    s.DateActive,
		"heatmap":  s.Heatmap,
		"valid":    s.Counters.Valid,
		"rejected": s.Counters.Rejected,
	}
}

func TestOrderIndependent(t *testing.T) {
	recs := generate(3000)
	want := countsOf(build(t, recs, 1, "dave"))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 3; i++ {
		shuffled := make([]record.Raw, len(recs))
		copy(shuffled, recs)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, countsOf(build(t, shuffled, 1, "dave")), "permutation %d", i)
	}
}

func TestParallelBuildMatchesSequential(t *testing.T) {
	recs := generate(4 * minShardSize)
	seq, err := build(t, recs, 1, "alice").Snapshot()
	require.NoError(t, err)

	var mu sync.Mutex
	var merged []int
	s, err := Build(context.Background(), recs, Options{
		Filter:     filter.Default(),
		Policy:     policy(t, "alice"),
		Normalizer: record.NewNormalizer(0),
		Workers:    4,
		OnMerge: func(shard, n int) {
			mu.Lock()
			merged = append(merged, shard)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	par, err := s.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, string(seq), string(par), "sharded build must reproduce the sequential pass")
	assert.Equal(t, []int{0, 1, 2, 3}, merged)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, generate(10), Options{Policy: policy(t), Workers: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildEmpty(t *testing.T) {
	s, err := Build(context.Background(), nil, Options{Policy: policy(t)})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Counters.Rows)
	assert.Empty(t, s.Identities())
	assert.Equal(t, 0, s.NumActiveDays())
}

func TestMergeOrder(t *testing.T) {
	p := policy(t)
	a := ingestAll(t, p, []record.Raw{{Timestamp: at(2, 10), Identity: "bob", Body: "x"}})
	b := ingestAll(t, p, []record.Raw{
		{Timestamp: at(2, 11), Identity: "alice", Body: "y"},
		{Timestamp: at(3, 11), Identity: "bob", Body: "z"},
	})

	m := Merge(a, b)
	assert.Equal(t, []string{"bob", "alice"}, m.Identities())
	assert.Equal(t, 2, m.ActiveCount("bob"))
	assert.Equal(t, []string{"x", "z"}, m.Messages("bob"))
	assert.Equal(t, []string{"2024-01-02", "2024-01-03"}, m.SortedDates())
	assert.Equal(t, []string{"x", "z", "y"}, m.AllMessages())
}

func TestSnapshotIsJSON(t *testing.T) {
	s := ingestAll(t, policy(t), exampleRecords())
	data, err := s.Snapshot()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"active_days":["2024-01-01"]`)
	assert.Contains(t, string(data), `"order":["alice"]`)
	assert.Contains(t, string(data), fmt.Sprintf(`"rows":%d`, 3))
}
