// Package ranking derives leaderboards and rates from aggregated counts.
// All functions are pure and read-only over their inputs.
package ranking

import "sort"

// Counts is the read side of an aggregate the rankings need.
// Identities must be in first-seen order; it breaks ties.
type Counts interface {
	Identities() []string
	ActiveCount(identity string) int
}

// Entry is one leaderboard row.
type Entry struct {
	Identity string
	Count    int
}

// Rate is an identity with a derived rate.
type Rate struct {
	Identity string
	Count    int
	Rate     float64
}

// All returns every identity sorted by count descending. Ties keep
// first-seen order.
func All(c Counts) []Entry {
	ids := c.Identities()
	entries := make([]Entry, len(ids))
	for i, id := range ids {
		entries[i] = Entry{Identity: id, Count: c.ActiveCount(id)}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}

// TopK returns the k highest counts. k <= 0 returns an empty slice.
func TopK(c Counts, k int) []Entry {
	if k <= 0 {
		return []Entry{}
	}
	all := All(c)
	if k > len(all) {
		k = len(all)
	}
	return all[:k]
}

// Extended returns top followed by each privileged identity that has a
// nonzero count and is not already in top, in privileged order.
func Extended(c Counts, top []Entry, privileged []string) []Entry {
	seen := make(map[string]bool, len(top)+len(privileged))
	out := make([]Entry, 0, len(top)+len(privileged))
	for _, e := range top {
		seen[e.Identity] = true
		out = append(out, e)
	}
	for _, id := range privileged {
		if seen[id] {
			continue
		}
		n := c.ActiveCount(id)
		if n == 0 {
			continue
		}
		seen[id] = true
		out = append(out, Entry{Identity: id, Count: n})
	}
	return out
}

// Position returns identity's 1-based position in All, or 0 if it has
// no active messages.
func Position(c Counts, identity string) int {
	for i, e := range All(c) {
		if e.Identity == identity {
			return i + 1
		}
	}
	return 0
}

// PerDayAverage is count/days, or 0 when there are no days.
func PerDayAverage(count, days int) float64 {
	if days <= 0 {
		return 0
	}
	return float64(count) / float64(days)
}

// PerHourEfficiency is count/(hoursPerDay*days), or 0 when the denominator
// is empty.
func PerHourEfficiency(count, days, hoursPerDay int) float64 {
	if days <= 0 || hoursPerDay <= 0 {
		return 0
	}
	return float64(count) / float64(hoursPerDay*days)
}

// DailyAverages attaches PerDayAverage to entries, keeping their order.
func DailyAverages(entries []Entry, days int) []Rate {
	out := make([]Rate, len(entries))
	for i, e := range entries {
		out[i] = Rate{Identity: e.Identity, Count: e.Count, Rate: PerDayAverage(e.Count, days)}
	}
	return out
}

// EfficiencyRanking ranks every identity by PerHourEfficiency descending
// and returns the top k. This ordering is computed independently of TopK.
func EfficiencyRanking(c Counts, days, hoursPerDay, k int) []Rate {
	ids := c.Identities()
	rates := make([]Rate, len(ids))
	for i, id := range ids {
		n := c.ActiveCount(id)
		rates[i] = Rate{Identity: id, Count: n, Rate: PerHourEfficiency(n, days, hoursPerDay)}
	}
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].Rate > rates[j].Rate
	})
	if k >= 0 && k < len(rates) {
		rates = rates[:k]
	}
	return rates
}
