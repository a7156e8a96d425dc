package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dnldd/spike/shared"
	"github.com/tidwall/gjson"
)

const (
	// YahooBaseURL is the base url of the yahoo finance chart api.
	YahooBaseURL = "https://query1.finance.yahoo.com"
	// yahooUserAgent is sent with chart requests, the api rejects requests without one.
	yahooUserAgent = "Mozilla/5.0 (X11; Linux x86_64) spike/1.0"
)

// YahooConfig represents the configuration for the yahoo finance client.
type YahooConfig struct {
	// BaseURL is the base url of the api.
	BaseURL string
}

// YahooClient represents the yahoo finance chart api client. It requires no api key.
type YahooClient struct {
	cfg   *YahooConfig
	httpc *http.Client
}

// Ensure the YahooClient implements the CandleFetcher interface.
var _ shared.CandleFetcher = (*YahooClient)(nil)

// NewYahooClient instantiates a new yahoo finance client.
func NewYahooClient(cfg *YahooConfig) *YahooClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = YahooBaseURL
	}

	return &YahooClient{
		cfg:   cfg,
		httpc: &http.Client{Timeout: time.Second * 10},
	}
}

// yahooInterval returns the chart api interval for the provided timeframe.
func yahooInterval(timeframe shared.Timeframe) (string, error) {
	switch timeframe {
	case shared.OneMinute:
		return "1m", nil
	case shared.FiveMinute:
		return "5m", nil
	case shared.OneHour:
		return "60m", nil
	default:
		return "", fmt.Errorf("unknown timeframe provided: %s", timeframe.String())
	}
}

// ParseChart parses candlesticks from the provided chart api response. Bars with missing
// prices are skipped.
func (c *YahooClient) ParseChart(body []byte, market string, timeframe shared.Timeframe) ([]shared.Candlestick, error) {
	chart := gjson.GetBytes(body, "chart")
	if !chart.Exists() {
		return nil, fmt.Errorf("unexpected response for %s: %s", market, truncate(body))
	}

	if desc := chart.Get("error.description"); desc.Exists() && desc.String() != "" {
		return nil, fmt.Errorf("chart error for %s: %s", market, desc.String())
	}

	result := chart.Get("result.0")
	if !result.Exists() {
		return nil, nil
	}

	timestamps := result.Get("timestamp").Array()
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	n := len(timestamps)
	if len(opens) != n || len(highs) != n || len(lows) != n || len(closes) != n || len(volumes) != n {
		return nil, fmt.Errorf("mismatched chart series lengths for %s", market)
	}

	candles := make([]shared.Candlestick, 0, n)
	for idx := range timestamps {
		if opens[idx].Type == gjson.Null || highs[idx].Type == gjson.Null ||
			lows[idx].Type == gjson.Null || closes[idx].Type == gjson.Null {
			continue
		}

		candles = append(candles, shared.Candlestick{
			Open:      opens[idx].Float(),
			High:      highs[idx].Float(),
			Low:       lows[idx].Float(),
			Close:     closes[idx].Float(),
			Volume:    volumes[idx].Float(),
			Date:      time.Unix(timestamps[idx].Int(), 0),
			Market:    market,
			Timeframe: timeframe,
		})
	}

	return candles, nil
}

// FetchIntradayHistorical fetches intraday historical market data.
func (c *YahooClient) FetchIntradayHistorical(ctx context.Context, market string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]shared.Candlestick, error) {
	interval, err := yahooInterval(timeframe)
	if err != nil {
		return nil, err
	}

	if end.IsZero() {
		end = time.Now()
	}

	params := url.Values{}
	params.Add("interval", interval)
	params.Add("period1", strconv.FormatInt(start.Unix(), 10))
	params.Add("period2", strconv.FormatInt(end.Unix(), 10))
	params.Add("includePrePost", "false")

	formedURL := c.cfg.BaseURL + "/v8/finance/chart/" + url.PathEscape(market) + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching intraday historical data (%s) for %s: %w", timeframe.String(), market, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// do nothing.
	case http.StatusNotFound:
		// Unknown or delisted symbols have no data.
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected status fetching %s data: %d (%s)", market, resp.StatusCode, truncate(body))
	}

	return c.ParseChart(body, market, timeframe)
}
