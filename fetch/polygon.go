package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dnldd/spike/shared"
	polygonrest "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
)

const (
	// maxPolygonAggregates is the maximum number of aggregates requested per fetch.
	maxPolygonAggregates = 5000
)

// PolygonConfig represents the configuration for the polygon client.
type PolygonConfig struct {
	// APIKey is the polygon API key.
	APIKey string
}

// PolygonClient represents the polygon.io aggregates client.
type PolygonClient struct {
	cfg  *PolygonConfig
	rest *polygonrest.Client
}

// Ensure the PolygonClient implements the CandleFetcher interface.
var _ shared.CandleFetcher = (*PolygonClient)(nil)

// NewPolygonClient instantiates a new polygon client.
func NewPolygonClient(cfg *PolygonConfig) (*PolygonClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("polygon api key cannot be an empty string")
	}

	return &PolygonClient{
		cfg:  cfg,
		rest: polygonrest.NewWithClient(cfg.APIKey, &http.Client{Timeout: time.Second * 10}),
	}, nil
}

// aggregateParams returns the aggregate multiplier and timespan for the provided timeframe.
func aggregateParams(timeframe shared.Timeframe) (int, models.Timespan, error) {
	switch timeframe {
	case shared.OneMinute:
		return 1, models.Minute, nil
	case shared.FiveMinute:
		return 5, models.Minute, nil
	case shared.OneHour:
		return 1, models.Hour, nil
	default:
		return 0, "", fmt.Errorf("unknown timeframe provided: %s", timeframe.String())
	}
}

// aggToCandlestick converts the provided aggregate to a candlestick.
func aggToCandlestick(agg models.Agg, market string, timeframe shared.Timeframe) shared.Candlestick {
	return shared.Candlestick{
		Open:      agg.Open,
		High:      agg.High,
		Low:       agg.Low,
		Close:     agg.Close,
		Volume:    agg.Volume,
		Date:      time.Time(agg.Timestamp),
		Market:    market,
		Timeframe: timeframe,
	}
}

// FetchIntradayHistorical fetches intraday historical market data.
func (c *PolygonClient) FetchIntradayHistorical(ctx context.Context, market string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]shared.Candlestick, error) {
	multiplier, timespan, err := aggregateParams(timeframe)
	if err != nil {
		return nil, err
	}

	if end.IsZero() {
		end = time.Now()
	}

	params := &models.ListAggsParams{
		Ticker:     market,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}
	limit := maxPolygonAggregates
	order := models.Asc
	adjusted := true
	params.Limit = &limit
	params.Order = &order
	params.Adjusted = &adjusted

	candles := make([]shared.Candlestick, 0, 128)
	iter := c.rest.ListAggs(ctx, params)
	for iter.Next() {
		candles = append(candles, aggToCandlestick(iter.Item(), market, timeframe))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("fetching intraday aggregates (%s) for %s: %w", timeframe.String(), market, err)
	}

	return candles, nil
}
