package fetch

import (
	"testing"
	"time"

	"github.com/dnldd/spike/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/polygon-io/client-go/rest/models"
)

func TestPolygonClient(t *testing.T) {
	// Ensure the polygon client requires an api key.
	_, err := NewPolygonClient(&PolygonConfig{})
	assert.Error(t, err)

	pc, err := NewPolygonClient(&PolygonConfig{APIKey: "key"})
	assert.NoError(t, err)
	assert.NotNil(t, pc)
}

func TestAggregateParams(t *testing.T) {
	tests := []struct {
		name       string
		timeframe  shared.Timeframe
		multiplier int
		timespan   models.Timespan
		wantErr    bool
	}{
		{"one minute", shared.OneMinute, 1, models.Minute, false},
		{"five minute", shared.FiveMinute, 5, models.Minute, false},
		{"one hour", shared.OneHour, 1, models.Hour, false},
		{"unknown", shared.Timeframe(999), 0, "", true},
	}

	for _, test := range tests {
		multiplier, timespan, err := aggregateParams(test.timeframe)
		if (err != nil) != test.wantErr {
			t.Errorf("%s: unexpected error state: %v", test.name, err)
			continue
		}
		if multiplier != test.multiplier || timespan != test.timespan {
			t.Errorf("%s: expected %d %s, got %d %s", test.name, test.multiplier, test.timespan,
				multiplier, timespan)
		}
	}
}

func TestAggToCandlestick(t *testing.T) {
	ts := time.Date(2025, time.March, 12, 14, 30, 0, 0, time.UTC)
	agg := models.Agg{
		Open:      10,
		High:      12,
		Low:       9,
		Close:     11,
		Volume:    1500,
		Timestamp: models.Millis(ts),
	}

	candle := aggToCandlestick(agg, "RGC", shared.FiveMinute)
	assert.Equal(t, candle.Open, float64(10))
	assert.Equal(t, candle.High, float64(12))
	assert.Equal(t, candle.Low, float64(9))
	assert.Equal(t, candle.Close, float64(11))
	assert.Equal(t, candle.Volume, float64(1500))
	assert.Equal(t, candle.Date.Unix(), ts.Unix())
	assert.Equal(t, candle.Market, "RGC")
}
