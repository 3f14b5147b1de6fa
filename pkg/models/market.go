// Package models defines the value records served by the MarketDeck API.
// Every record is immutable after construction and lives for a single
// request/response cycle; nothing here is persisted.
package models

// IndexSnapshot is the aggregate row of an equity index (e.g. NIFTY 50).
// Numeric fields are pointers so that values missing upstream surface as
// JSON null rather than a misleading zero.
type IndexSnapshot struct {
	Name          string   `json:"name"`
	Last          *float64 `json:"last"`
	Open          *float64 `json:"open"`
	High          *float64 `json:"high"`
	Low           *float64 `json:"low"`
	PreviousClose *float64 `json:"previousClose"`
	PercentChange *float64 `json:"percentChange"`
}

// StockRow is a single index constituent. All seven fields are required at
// normalization time; a row that cannot fill them is rejected.
type StockRow struct {
	Stock         string  `json:"stock"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	LTP           float64 `json:"ltp"`
	PercentChange float64 `json:"percentChange"`
	Volume        int64   `json:"volume"`
}

// Record is a loosely-typed table row (bulk deals, all-indices market watch).
// Keys are sanitized column names; missing cells hold "" for JSON safety.
type Record map[string]any

// CommodityQuote is a commodity spot price derived from a futures quote,
// converted to INR per kilogram.
type CommodityQuote struct {
	Name          string  `json:"name"`
	Last          float64 `json:"last"`
	PointsChange  float64 `json:"pointsChange"`
	PercentChange float64 `json:"percentChange"`
}

// CurrencyQuote is the USD/INR conversion rate with day-over-day change.
type CurrencyQuote struct {
	Name          string  `json:"name"`
	Last          float64 `json:"last"`
	PointsChange  float64 `json:"pointsChange"`
	PercentChange float64 `json:"percentChange"`
}

// VixQuote is the India VIX volatility index snapshot. High/Low are nullable
// because the upstream row does not always carry them.
type VixQuote struct {
	Symbol        string   `json:"symbol"`
	Value         float64  `json:"value"`
	Change        float64  `json:"change"`
	PercentChange float64  `json:"percent_change"`
	Open          float64  `json:"open"`
	High          *float64 `json:"high"`
	Low           *float64 `json:"low"`
	PreviousClose float64  `json:"previous_close"`
}

// ForeignIndexSnapshot is an index quote proxied through the Yahoo Finance
// chart API (used for SENSEX). Change and PercentChange are only computable
// when both the last price and previous close are present.
type ForeignIndexSnapshot struct {
	Index         string   `json:"index"`
	Last          *float64 `json:"last"`
	Change        *float64 `json:"change"`
	PercentChange *float64 `json:"percentChange"`
	Open          *float64 `json:"open"`
	High          *float64 `json:"high"`
	Low           *float64 `json:"low"`
	PreviousClose *float64 `json:"previousClose"`
	Currency      string   `json:"currency"`
	Exchange      string   `json:"exchange"`
	MarketState   string   `json:"marketState"`
	Time          int64    `json:"time"`
}

// Market status labels.
const (
	StatusOpen    = "OPEN"
	StatusClosed  = "CLOSED"
	StatusHoliday = "HOLIDAY"
)

// MarketStatus is the outcome of one trading-calendar evaluation.
type MarketStatus struct {
	Date   string `json:"date"`   // e.g. "02 January 2026"
	Time   string `json:"time"`   // e.g. "10:42:05 AM"
	Status string `json:"status"` // OPEN | CLOSED | HOLIDAY
	Reason string `json:"reason"` // e.g. "Weekend", holiday description
}

// HolidayCalendar maps trading dates ("2006-01-02") to holiday descriptions.
// It is fetched fresh for every status check and discarded afterwards.
type HolidayCalendar map[string]string

// Candle is a single daily price observation from a ticker history.
type Candle struct {
	Date  string  `json:"date"` // "2006-01-02"
	Open  float64 `json:"open"`
	Close float64 `json:"close"`
}

// NewsArticle is one market-news item from an RSS feed.
type NewsArticle struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	Published string `json:"published,omitempty"`
}
