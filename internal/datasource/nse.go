package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/marketdeck/marketdeck/internal/market"
	"github.com/marketdeck/marketdeck/pkg/models"
	"github.com/marketdeck/marketdeck/pkg/utils"
)

const (
	defaultNSEBaseURL = "https://www.nseindia.com"
	nseCookieTTL      = 5 * time.Minute
)

// NSE is the gateway to the NSE India API. The API refuses requests that do
// not carry the session cookies handed out by the homepage, so every data
// request is preceded by a homepage warm-up (at most once per cookie TTL).
type NSE struct {
	baseURL string
	client  *http.Client

	mu           sync.Mutex
	cookieExpiry time.Time
}

// NewNSE creates an NSE gateway. An empty baseURL selects the production
// endpoint; tests inject an httptest server URL instead.
func NewNSE(baseURL string, timeout time.Duration) *NSE {
	if baseURL == "" {
		baseURL = defaultNSEBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	jar, _ := cookiejar.New(nil)
	return &NSE{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
	}
}

// Name returns the gateway name.
func (n *NSE) Name() string { return "NSE India" }

// --- NSE JSON response types ---

type nseIndexBoardResponse struct {
	Data []market.RawIndexRow `json:"data"`
}

type nseTableResponse struct {
	Data []map[string]any `json:"data"`
}

// IndexQuote is one typed row of the allIndices market watch.
type IndexQuote struct {
	Index         string   `json:"index"`
	IndexSymbol   string   `json:"indexSymbol"`
	Last          float64  `json:"last"`
	Variation     float64  `json:"variation"`
	PercentChange float64  `json:"percentChange"`
	Open          float64  `json:"open"`
	High          *float64 `json:"high"`
	Low           *float64 `json:"low"`
	PreviousClose float64  `json:"previousClose"`
}

type nseHolidayResponse struct {
	CM []nseHolidayEntry `json:"CM"` // capital market segment
}

type nseHolidayEntry struct {
	TradingDate string `json:"tradingDate"` // "26-Jan-2026"
	Description string `json:"description"`
}

// --- Public methods ---

// GetStockIndices returns the raw rows of the equity-stockIndices snapshot
// for the given index (row 0 is the index aggregate, the rest are
// constituents). Rows are returned unnormalized; splitting and validation
// happen in the market package.
func (n *NSE) GetStockIndices(ctx context.Context, index string) ([]market.RawIndexRow, error) {
	data, err := n.get(ctx, "/api/equity-stockIndices?index="+url.QueryEscape(index))
	if err != nil {
		return nil, fmt.Errorf("NSE stock indices %s: %w", index, err)
	}

	var resp nseIndexBoardResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse NSE stock indices: %v", ErrUnavailable, err)
	}
	return resp.Data, nil
}

// GetBulkDeals returns raw bulk-deal rows for the given period
// (1D, 1W, or 1M, counted back from today).
func (n *NSE) GetBulkDeals(ctx context.Context, period string) ([]map[string]any, error) {
	from, to, err := periodRange(period, utils.NowIST())
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/api/historical/bulk-deals?from=%s&to=%s",
		from.Format("02-01-2006"), to.Format("02-01-2006"))
	data, err := n.get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("NSE bulk deals %s: %w", period, err)
	}

	var resp nseTableResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse NSE bulk deals: %v", ErrUnavailable, err)
	}
	return resp.Data, nil
}

// GetAllIndices returns the raw rows of the market-watch all-indices table.
func (n *NSE) GetAllIndices(ctx context.Context) ([]map[string]any, error) {
	data, err := n.get(ctx, "/api/allIndices")
	if err != nil {
		return nil, fmt.Errorf("NSE all indices: %w", err)
	}

	var resp nseTableResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse NSE all indices: %v", ErrUnavailable, err)
	}
	return resp.Data, nil
}

// GetIndexQuote scans the allIndices table for the named index (matched
// case-insensitively against both index name fields) and returns its typed
// quote.
func (n *NSE) GetIndexQuote(ctx context.Context, name string) (*IndexQuote, error) {
	data, err := n.get(ctx, "/api/allIndices")
	if err != nil {
		return nil, fmt.Errorf("NSE index quote %s: %w", name, err)
	}

	var resp struct {
		Data []IndexQuote `json:"data"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse NSE index quote: %v", ErrUnavailable, err)
	}

	for _, q := range resp.Data {
		if strings.EqualFold(q.IndexSymbol, name) || strings.EqualFold(q.Index, name) {
			return &q, nil
		}
	}
	return nil, fmt.Errorf("%w: index %q not in market watch", ErrUnavailable, name)
}

// GetTradingHolidays fetches the capital-market trading-holiday calendar,
// keyed by "2006-01-02" date. The calendar is fetched fresh on every call;
// callers discard it after one evaluation.
func (n *NSE) GetTradingHolidays(ctx context.Context) (models.HolidayCalendar, error) {
	data, err := n.get(ctx, "/api/holiday-master?type=trading")
	if err != nil {
		return nil, fmt.Errorf("NSE trading holidays: %w", err)
	}

	var resp nseHolidayResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse NSE trading holidays: %v", ErrUnavailable, err)
	}

	cal := make(models.HolidayCalendar, len(resp.CM))
	for _, h := range resp.CM {
		d, err := time.ParseInLocation("02-Jan-2006", h.TradingDate, utils.IST)
		if err != nil {
			// Some listings use the ISO form instead.
			d, err = utils.ParseDateIST(h.TradingDate)
			if err != nil {
				continue
			}
		}
		cal[utils.FormatDateIST(d)] = h.Description
	}
	return cal, nil
}

// --- Internal helpers ---

// ensureCookies visits the NSE homepage to pick up session cookies.
func (n *NSE) ensureCookies(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if time.Now().Before(n.cookieExpiry) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch NSE homepage for cookies: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain body

	n.cookieExpiry = time.Now().Add(nseCookieTTL)
	return nil
}

// get warms up cookies and performs a GET against the NSE API with the
// headers the API insists on.
func (n *NSE) get(ctx context.Context, path string) ([]byte, error) {
	if err := n.ensureCookies(ctx); err != nil {
		return nil, fmt.Errorf("NSE cookie refresh: %w", err)
	}

	return doGet(ctx, n.client, n.baseURL+path, map[string]string{
		"Accept":           "application/json",
		"Referer":          n.baseURL + "/",
		"X-Requested-With": "XMLHttpRequest",
	})
}

// periodRange resolves a bulk-deal period code to a date window ending today.
func periodRange(period string, today time.Time) (from, to time.Time, err error) {
	to = today
	switch period {
	case "1D":
		from = to.AddDate(0, 0, -1)
	case "1W":
		from = to.AddDate(0, 0, -7)
	case "1M":
		from = to.AddDate(0, -1, 0)
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q: want 1D, 1W or 1M", period)
	}
	return from, to, nil
}
