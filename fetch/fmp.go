package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/dnldd/spike/shared"
	"github.com/tidwall/gjson"
)

const (
	// FMPBaseURL is the base url of the FMP api.
	FMPBaseURL = "https://financialmodelingprep.com/stable"
)

// FMPConfig represents the configuration for the FMP client.
type FMPConfig struct {
	// APIkey is the FMP API Key.
	APIKey string
	// BaseURL is the base url of the api.
	BaseURL string
}

// FMPClient represents the Financial Modeling Preparation (FMP) API client.
type FMPClient struct {
	cfg   *FMPConfig
	httpc *http.Client
	buf   *bytes.Buffer
	loc   *time.Location
}

// Ensure the FMPClient implements the CandleFetcher interface.
var _ shared.CandleFetcher = (*FMPClient)(nil)

// NewFMPClient instantiates a new FMP client.
func NewFMPClient(cfg *FMPConfig) (*FMPClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("fmp api key cannot be an empty string")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = FMPBaseURL
	}

	loc, err := time.LoadLocation(shared.NewYorkLocation)
	if err != nil {
		return nil, fmt.Errorf("loading new york timezone: %w", err)
	}

	return &FMPClient{
		cfg:   cfg,
		httpc: &http.Client{Timeout: time.Second * 5},
		buf:   bytes.NewBuffer(make([]byte, 0, 512)),
		loc:   loc,
	}, nil
}

// formURL creates full urls including paramters for the api.
func (c *FMPClient) formURL(path string, params string) string {
	c.buf.WriteString(c.cfg.BaseURL)
	c.buf.WriteString(path)
	c.buf.WriteString("?")
	c.buf.WriteString(params)
	url := c.buf.String()
	c.buf.Reset()

	return url
}

// ParseCandlesticks parses candlesticks from the provided json data. FMP reports dates in new
// york time.
func (c *FMPClient) ParseCandlesticks(data []gjson.Result, market string, timeframe shared.Timeframe) ([]shared.Candlestick, error) {
	candles := make([]shared.Candlestick, 0, len(data))

	for idx := range data {
		var candle shared.Candlestick

		candle.Open = data[idx].Get("open").Float()
		candle.Low = data[idx].Get("low").Float()
		candle.High = data[idx].Get("high").Float()
		candle.Close = data[idx].Get("close").Float()
		candle.Volume = data[idx].Get("volume").Float()

		candle.Market = market
		candle.Timeframe = timeframe

		dt, err := time.ParseInLocation(shared.DateLayout, data[idx].Get("date").String(), c.loc)
		if err != nil {
			return nil, fmt.Errorf("parsing candlestick date: %w", err)
		}

		candle.Date = dt
		candles = append(candles, candle)
	}

	// The api lists the most recent candles first.
	slices.SortFunc(candles, func(a, b shared.Candlestick) int {
		return a.Date.Compare(b.Date)
	})

	return candles, nil
}

// FetchIntradayHistorical fetches intraday historical market data.
func (c *FMPClient) FetchIntradayHistorical(ctx context.Context, market string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]shared.Candlestick, error) {
	const oneMinuteHistoricalPath = "/historical-chart/1min"
	const fiveMinuteHistoricalPath = "/historical-chart/5min"
	const oneHourHistoricalPath = "/historical-chart/1hour"

	params := url.Values{}
	params.Add("symbol", market)
	params.Add("apikey", c.cfg.APIKey)
	params.Add("from", start.In(c.loc).Format(time.DateOnly))
	if !end.IsZero() {
		params.Add("to", end.In(c.loc).Format(time.DateOnly))
	}

	var formedURL string

	switch timeframe {
	case shared.OneMinute:
		formedURL = c.formURL(oneMinuteHistoricalPath, params.Encode())
	case shared.FiveMinute:
		formedURL = c.formURL(fiveMinuteHistoricalPath, params.Encode())
	case shared.OneHour:
		formedURL = c.formURL(oneHourHistoricalPath, params.Encode())
	default:
		return nil, fmt.Errorf("unknown timeframe provided: %s", timeframe.String())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching intraday historical data (%s) for %s: %w", timeframe.String(), market, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching %s data: %d (%s)", market, resp.StatusCode,
			gjson.GetBytes(body, "Error Message").String())
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("unexpected response for %s: %s", market, truncate(body))
	}

	candles, err := c.ParseCandlesticks(parsed.Array(), market, timeframe)
	if err != nil {
		return nil, err
	}

	// The api filters by date only, narrow down to the requested range.
	candles = slices.DeleteFunc(candles, func(candle shared.Candlestick) bool {
		return candle.Date.Before(start) || (!end.IsZero() && candle.Date.After(end))
	})

	return candles, nil
}
