package shared

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func TestNewYorkTime(t *testing.T) {
	// Ensure new york locale times can be created.
	now, loc, err := NewYorkTime()
	assert.NoError(t, err)
	assert.Equal(t, now.Location().String(), NewYorkLocation)
	assert.Equal(t, now.Location().String(), loc.String())
}

func TestTimeframeString(t *testing.T) {
	tests := []struct {
		name      string
		timeframe Timeframe
		want      string
	}{
		{
			"one minute",
			OneMinute,
			"1m",
		},
		{
			"five minute",
			FiveMinute,
			"5m",
		},
		{
			"one hour",
			OneHour,
			"1h",
		},
		{
			"unknown",
			Timeframe(999),
			"unknown",
		},
	}

	for _, test := range tests {
		str := test.timeframe.String()
		if str != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, str)
		}
	}
}

func TestTimeframeDuration(t *testing.T) {
	dur, err := FiveMinute.Duration()
	assert.NoError(t, err)
	assert.Equal(t, dur, time.Minute*5)

	dur, err = OneHour.Duration()
	assert.NoError(t, err)
	assert.Equal(t, dur, time.Hour)

	// Ensure an error is returned if the timeframe is unknown.
	_, err = Timeframe(999).Duration()
	assert.Error(t, err)
}
