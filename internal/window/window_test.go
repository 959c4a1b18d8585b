package window

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-01 is a Monday.
func ts(day, hour, min int) string {
	return strconv.FormatInt(time.Date(2024, 1, day, hour, min, 0, 0, time.UTC).Unix(), 10)
}

func utcPolicy(t *testing.T, opts Options) *Policy {
	t.Helper()
	opts.Location = time.UTC
	p, err := New(opts)
	require.NoError(t, err)
	return p
}

func TestParse(t *testing.T) {
	p := utcPolicy(t, Options{})

	st, err := p.Parse(ts(1, 10, 30))
	require.NoError(t, err)
	assert.Equal(t, Stamp{Weekday: 0, Hour: 10, Date: "2024-01-01"}, st)

	st, err = p.Parse(" " + ts(7, 23, 59) + "\n")
	require.NoError(t, err)
	assert.Equal(t, Stamp{Weekday: 6, Hour: 23, Date: "2024-01-07"}, st)
}

func TestParseErrors(t *testing.T) {
	p := utcPolicy(t, Options{})

	tests := []struct {
		name string
		text string
		want error
	}{
		{"empty", "", ErrUnparseable},
		{"not a number", "yesterday", ErrUnparseable},
		{"float", "1704103200.5", ErrUnparseable},
		{"overflow", "99999999999999999999999", ErrUnparseable},
		{"year too large", "999999999999", ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestIsActiveWindow(t *testing.T) {
	p := utcPolicy(t, Options{})

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"monday 10:00", ts(1, 10, 0), true},
		{"monday 09:00 inclusive start", ts(1, 9, 0), true},
		{"monday 08:59", ts(1, 8, 59), false},
		{"friday 17:59", ts(5, 17, 59), true},
		{"friday 18:00 exclusive end", ts(5, 18, 0), false},
		{"monday 20:00", ts(1, 20, 0), false},
		{"saturday 11:00", ts(6, 11, 0), false},
		{"sunday 11:00", ts(7, 11, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsActiveWindow(tt.text, nil))
		})
	}
}

func TestPrivilegedBypass(t *testing.T) {
	var parseErrors int
	p := utcPolicy(t, Options{
		Privileged:   []string{"alice"},
		OnParseError: func(string, error) { parseErrors++ },
	})

	alice, bob := "alice", "bob"
	assert.True(t, p.IsActiveWindow(ts(6, 3, 0), &alice))
	assert.True(t, p.IsActiveWindow("garbage", &alice), "bypass does not inspect the timestamp")
	assert.Equal(t, 0, parseErrors)

	assert.False(t, p.IsActiveWindow(ts(6, 3, 0), &bob))
	assert.False(t, p.IsActiveWindow("garbage", &bob))
	assert.Equal(t, 1, parseErrors)

	assert.True(t, p.Classify(Stamp{Weekday: 6, Hour: 3}, "alice"))
	assert.False(t, p.Classify(Stamp{Weekday: 6, Hour: 3}, "bob"))
}

func TestCustomWindow(t *testing.T) {
	p := utcPolicy(t, Options{
		Weekdays:  []int{5, 6},
		StartHour: 20,
		EndHour:   24,
	})

	assert.True(t, p.IsActiveWindow(ts(6, 21, 0), nil))
	assert.True(t, p.IsActiveWindow(ts(7, 23, 59), nil))
	assert.False(t, p.IsActiveWindow(ts(1, 21, 0), nil))
	assert.False(t, p.IsActiveWindow(ts(6, 10, 0), nil))
	assert.Equal(t, 4, p.HoursPerDay())
	assert.Equal(t, []int{20, 21, 22, 23}, p.Hours())
	assert.Equal(t, []int{5, 6}, p.Weekdays())
}

func TestLocation(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	p, err := New(Options{Location: shanghai})
	require.NoError(t, err)

	// 02:00 UTC Monday is 10:00 in UTC+8.
	text := strconv.FormatInt(time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC).Unix(), 10)
	st, err := p.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, 10, st.Hour)
	assert.True(t, p.IsActiveWindow(text, nil))
}

func TestNewValidation(t *testing.T) {
	_, err := New(Options{StartHour: 18, EndHour: 9})
	assert.Error(t, err)

	_, err = New(Options{StartHour: 9, EndHour: 25})
	assert.Error(t, err)

	_, err = New(Options{Weekdays: []int{7}})
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	p := Default()
	assert.Equal(t, 9, p.HoursPerDay())
	assert.Equal(t, DefaultWeekdays, p.Weekdays())
	assert.Equal(t, time.Local, p.Location())
	assert.Empty(t, p.Privileged())
}

func TestPrivilegedOrderDeduped(t *testing.T) {
	p := utcPolicy(t, Options{Privileged: []string{"carol", "alice", "carol"}})
	assert.Equal(t, []string{"carol", "alice"}, p.Privileged())
	assert.True(t, p.IsPrivileged("alice"))
	assert.False(t, p.IsPrivileged("bob"))
}

func TestMondayIndex(t *testing.T) {
	assert.Equal(t, 0, MondayIndex(time.Monday))
	assert.Equal(t, 5, MondayIndex(time.Saturday))
	assert.Equal(t, 6, MondayIndex(time.Sunday))
}
