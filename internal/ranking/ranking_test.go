package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeCounts is an ordered map standing in for an aggregate.
type fakeCounts struct {
	order  []string
	counts map[string]int
}

func newCounts(pairs ...any) *fakeCounts {
	f := &fakeCounts{counts: map[string]int{}}
	for i := 0; i < len(pairs); i += 2 {
		id := pairs[i].(string)
		f.order = append(f.order, id)
		f.counts[id] = pairs[i+1].(int)
	}
	return f
}

func (f *fakeCounts) Identities() []string        { return f.order }
func (f *fakeCounts) ActiveCount(id string) int { return f.counts[id] }

func TestTopK(t *testing.T) {
	c := newCounts("alice", 3, "bob", 5, "carol", 3, "dave", 1)

	got := TopK(c, 3)
	assert.Equal(t, []Entry{
		{"bob", 5},
		{"alice", 3}, // tie with carol: alice was seen first
		{"carol", 3},
	}, got)
}

func TestTopKBounds(t *testing.T) {
	c := newCounts("alice", 1)
	assert.Len(t, TopK(c, 10), 1)
	assert.Empty(t, TopK(c, 0))
	assert.NotNil(t, TopK(c, -1))
	assert.Empty(t, TopK(newCounts(), 3))
}

func TestExtended(t *testing.T) {
	c := newCounts("alice", 9, "bob", 7, "carol", 2, "dave", 1, "erin", 0)
	top := TopK(c, 2)

	got := Extended(c, top, []string{"dave", "bob", "zed", "erin", "carol", "dave"})
	assert.Equal(t, []Entry{
		{"alice", 9},
		{"bob", 7},
		{"dave", 1}, // privileged order, not count order
		{"carol", 2},
	}, got)

	// top is a prefix
	assert.Equal(t, top, got[:len(top)])
}

func TestExtendedEachPrivilegedOnce(t *testing.T) {
	c := newCounts("alice", 4, "bob", 2)
	got := Extended(c, TopK(c, 1), []string{"bob", "bob", "alice"})

	seen := map[string]int{}
	for _, e := range got {
		seen[e.Identity]++
	}
	assert.Equal(t, map[string]int{"alice": 1, "bob": 1}, seen)
}

func TestPosition(t *testing.T) {
	c := newCounts("alice", 1, "bob", 5, "carol", 3)
	assert.Equal(t, 1, Position(c, "bob"))
	assert.Equal(t, 3, Position(c, "alice"))
	assert.Equal(t, 0, Position(c, "nobody"))
}

func TestRatesZeroDays(t *testing.T) {
	for _, n := range []int{0, 1, 100} {
		assert.Equal(t, 0.0, PerDayAverage(n, 0))
		assert.Equal(t, 0.0, PerHourEfficiency(n, 0, 9))
	}
	assert.Equal(t, 0.0, PerHourEfficiency(5, 3, 0))

	c := newCounts("alice", 4, "bob", 2)
	for _, r := range EfficiencyRanking(c, 0, 9, 10) {
		assert.Equal(t, 0.0, r.Rate)
	}
	for _, r := range DailyAverages(TopK(c, 2), 0) {
		assert.Equal(t, 0.0, r.Rate)
	}
}

func TestRates(t *testing.T) {
	assert.InDelta(t, 2.5, PerDayAverage(10, 4), 1e-9)
	assert.InDelta(t, 10.0/36.0, PerHourEfficiency(10, 4, 9), 1e-9)
}

func TestDailyAverages(t *testing.T) {
	got := DailyAverages([]Entry{{"bob", 6}, {"alice", 3}}, 3)
	assert.Equal(t, []Rate{{"bob", 6, 2}, {"alice", 3, 1}}, got)
}

func TestEfficiencyRanking(t *testing.T) {
	c := newCounts("alice", 9, "bob", 18, "carol", 9)
	got := EfficiencyRanking(c, 2, 9, 2)
	assert.Equal(t, []Rate{{"bob", 18, 1}, {"alice", 9, 0.5}}, got)

	all := EfficiencyRanking(c, 2, 9, -1)
	assert.Len(t, all, 3)
}
