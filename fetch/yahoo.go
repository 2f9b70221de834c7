package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dnldd/radar/shared"
	"github.com/tidwall/gjson"
)

const (
	baseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
)

// YahooConfig represents the configuration for the yahoo finance client.
type YahooConfig struct {
	// UserAgent is the user agent header sent with chart requests.
	UserAgent string
}

// YahooClient represents the yahoo finance chart API client.
type YahooClient struct {
	cfg   *YahooConfig
	httpc http.Client
	buf   *bytes.Buffer
}

// Ensure the YahooClient implements the MarketFetcher interface.
var _ shared.MarketFetcher = (*YahooClient)(nil)

// NewYahooClient instantiates a new yahoo finance client.
func NewYahooClient(cfg *YahooConfig) *YahooClient {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (X11; Linux x86_64)"
	}

	return &YahooClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: time.Second * 5},
		buf:   bytes.NewBuffer(make([]byte, 0, 512)),
	}
}

// formURL creates full urls including parameters for the api.
func (c *YahooClient) formURL(market string, params string) string {
	c.buf.WriteString(baseURL)
	c.buf.WriteString("/")
	c.buf.WriteString(url.PathEscape(market))
	c.buf.WriteString("?")
	c.buf.WriteString(params)
	url := c.buf.String()
	c.buf.Reset()

	return url
}

// ParseCandlesticks parses candlesticks from the provided chart result data.
// Bars with missing quote values are skipped.
func (c *YahooClient) ParseCandlesticks(data []gjson.Result, market string, timeframe shared.Timeframe) ([]shared.Candlestick, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no chart result for %s", market)
	}

	loc, err := time.LoadLocation(shared.TokyoLocation)
	if err != nil {
		return nil, fmt.Errorf("loading tokyo timezone: %w", err)
	}

	result := data[0]
	timestamps := result.Get("timestamp").Array()
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	lows := quote.Get("low").Array()
	highs := quote.Get("high").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	if len(closes) != len(timestamps) {
		return nil, fmt.Errorf("mismatched chart arrays for %s: %d timestamps, %d closes",
			market, len(timestamps), len(closes))
	}

	candles := make([]shared.Candlestick, 0, len(timestamps))
	for idx := range timestamps {
		if closes[idx].Type == gjson.Null {
			continue
		}

		var candle shared.Candlestick

		candle.Open = opens[idx].Float()
		candle.Low = lows[idx].Float()
		candle.High = highs[idx].Float()
		candle.Close = closes[idx].Float()
		candle.Volume = volumes[idx].Float()

		candle.Market = market
		candle.Timeframe = timeframe
		candle.Date = time.Unix(timestamps[idx].Int(), 0).In(loc)

		candles = append(candles, candle)
	}

	return candles, nil
}

// FetchHistorical fetches historical market data for the provided timeframe.
func (c *YahooClient) FetchHistorical(ctx context.Context, market string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]gjson.Result, error) {
	switch timeframe {
	case shared.FifteenMinute, shared.OneDay:
	default:
		return nil, fmt.Errorf("unknown timeframe provided: %s", timeframe.String())
	}

	params := url.Values{}
	params.Add("interval", timeframe.String())
	params.Add("includePrePost", "false")
	params.Add("period1", strconv.FormatInt(start.Unix(), 10))
	if end.IsZero() {
		end = time.Now()
	}
	params.Add("period2", strconv.FormatInt(end.Unix(), 10))

	formedURL := c.formURL(market, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating chart request for %s: %w", market, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching historical data (%s) for %s: %w", timeframe.String(), market, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		chartErr := gjson.GetBytes(body, "chart.error.description").String()
		return nil, fmt.Errorf("chart request for %s failed (%d): %s", market, resp.StatusCode, chartErr)
	}

	data := gjson.GetBytes(body, "chart.result").Array()

	return data, nil
}
