package shared

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func TestSession(t *testing.T) {
	loc, err := time.LoadLocation(NewYorkLocation)
	assert.NoError(t, err)

	// Ensure a regular session can be created.
	day := time.Date(2025, time.March, 12, 11, 0, 0, 0, loc)
	session, err := NewSession(RegularOpen, RegularClose, day)
	assert.NoError(t, err)
	assert.Equal(t, session.Open.Hour(), 9)
	assert.Equal(t, session.Open.Minute(), 30)
	assert.Equal(t, session.Close.Hour(), 16)
	assert.GreaterThan(t, session.Close.Unix(), session.Open.Unix())

	// Ensure times in another zone are anchored to the new york day.
	utc := time.Date(2025, time.March, 13, 2, 0, 0, 0, time.UTC)
	session, err = NewSession(RegularOpen, RegularClose, utc)
	assert.NoError(t, err)
	assert.Equal(t, session.Open.Day(), 12)

	// Ensure invalid session times are rejected.
	_, err = NewSession("9am", RegularClose, day)
	assert.Error(t, err)
	_, err = NewSession(RegularOpen, "4pm", day)
	assert.Error(t, err)
	_, err = NewSession(RegularClose, RegularOpen, day)
	assert.Error(t, err)
}

func TestIsMarketOpen(t *testing.T) {
	loc, err := time.LoadLocation(NewYorkLocation)
	assert.NoError(t, err)

	tests := []struct {
		name string
		time time.Time
		want bool
	}{
		{
			name: "wednesday at open",
			time: time.Date(2025, time.March, 12, 9, 30, 0, 0, loc),
			want: true,
		},
		{
			name: "wednesday a second before open",
			time: time.Date(2025, time.March, 12, 9, 29, 59, 0, loc),
			want: false,
		},
		{
			name: "wednesday midday",
			time: time.Date(2025, time.March, 12, 12, 15, 0, 0, loc),
			want: true,
		},
		{
			name: "wednesday at close",
			time: time.Date(2025, time.March, 12, 16, 0, 0, 0, loc),
			want: true,
		},
		{
			name: "wednesday a second after close",
			time: time.Date(2025, time.March, 12, 16, 0, 1, 0, loc),
			want: false,
		},
		{
			name: "saturday midday",
			time: time.Date(2025, time.March, 15, 12, 0, 0, 0, loc),
			want: false,
		},
		{
			name: "sunday at open",
			time: time.Date(2025, time.March, 16, 9, 30, 0, 0, loc),
			want: false,
		},
		{
			name: "wednesday midday provided in utc",
			time: time.Date(2025, time.March, 12, 16, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "friday evening utc is saturday in utc but friday in new york",
			time: time.Date(2025, time.March, 15, 0, 30, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "holiday is treated as open",
			time: time.Date(2025, time.December, 25, 10, 0, 0, 0, loc),
			want: true,
		},
	}

	for _, test := range tests {
		open, err := IsMarketOpen(test.time)
		assert.NoError(t, err)
		if open != test.want {
			t.Errorf("%s: expected open state %v, got %v", test.name, test.want, open)
		}
	}
}
