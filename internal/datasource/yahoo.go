package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/marketdeck/marketdeck/pkg/models"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo is the gateway to the Yahoo Finance v8 chart API. It serves two
// roles: intraday chart metadata for proxied foreign indices (SENSEX) and
// short daily histories for commodity futures and currency tickers.
type Yahoo struct {
	baseURL string
	client  *http.Client
}

// NewYahoo creates a Yahoo Finance gateway. An empty baseURL selects the
// production endpoint.
func NewYahoo(baseURL string, timeout time.Duration) *Yahoo {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Yahoo{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the gateway name.
func (y *Yahoo) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance v8 API types ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       ChartMeta    `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

// ChartMeta is the metadata block of a chart response. Price fields are
// pointers: Yahoo omits them outside trading hours for some symbols.
type ChartMeta struct {
	Symbol               string   `json:"symbol"`
	Currency             string   `json:"currency"`
	ExchangeName         string   `json:"exchangeName"`
	MarketState          string   `json:"marketState"`
	RegularMarketPrice   *float64 `json:"regularMarketPrice"`
	PreviousClose        *float64 `json:"previousClose"`
	RegularMarketOpen    *float64 `json:"regularMarketOpen"`
	RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
	RegularMarketTime    int64    `json:"regularMarketTime"`
}

type yfIndicators struct {
	Quote []yfOHLC `json:"quote"`
}

type yfOHLC struct {
	Open  []*float64 `json:"open"`
	Close []*float64 `json:"close"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// GetChartSnapshot returns the intraday chart metadata for a symbol
// (range=1d, interval=1m), which carries the live quote for index proxies.
func (y *Yahoo) GetChartSnapshot(ctx context.Context, symbol string) (*ChartMeta, error) {
	result, err := y.fetchChart(ctx, symbol, "1d", "1m")
	if err != nil {
		return nil, err
	}
	return &result.Meta, nil
}

// GetDailyHistory returns the daily candles for a symbol over the given
// range (e.g. "2d", "5d"), oldest first. Entries Yahoo reports as null are
// skipped, so the result can be shorter than the requested range.
func (y *Yahoo) GetDailyHistory(ctx context.Context, symbol, rng string) ([]models.Candle, error) {
	result, err := y.fetchChart(ctx, symbol, rng, "1d")
	if err != nil {
		return nil, err
	}

	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: no quote data for %s", ErrUnavailable, symbol)
	}
	q := result.Indicators.Quote[0]

	candles := make([]models.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		c := models.Candle{
			Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close: *q.Close[i],
		}
		if i < len(q.Open) && q.Open[i] != nil {
			c.Open = *q.Open[i]
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// fetchChart performs a chart API call and unwraps the single result.
func (y *Yahoo) fetchChart(ctx context.Context, symbol, rng, interval string) (*yfChartResult, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s", y.baseURL, symbol, rng, interval)
	data, err := doGet(ctx, y.client, url, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}

	var resp yfChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse yahoo chart %s: %v", ErrUnavailable, symbol, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: empty chart result for %s", ErrUnavailable, symbol)
	}
	return &resp.Chart.Result[0], nil
}
