package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marketdeck/marketdeck/pkg/utils"
)

// newNSEServer serves the homepage (for cookie warm-up) and the given API
// routes, counting homepage visits.
func newNSEServer(t *testing.T, routes map[string]string) (*NSE, *atomic.Int32) {
	t.Helper()
	var homepageHits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		homepageHits.Add(1)
		http.SetCookie(w, &http.Cookie{Name: "nsit", Value: "session"})
		w.Write([]byte("<html></html>"))
	})
	for path, body := range routes {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		})
	}

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return NewNSE(ts.URL, 5*time.Second), &homepageHits
}

func TestGetStockIndices(t *testing.T) {
	payload := `{"data":[
		{"indexSymbol":"NIFTY 50","open":24200,"dayHigh":24350,"dayLow":24150,"lastPrice":24315.95,"previousClose":24180.8,"pChange":0.56},
		{"symbol":"RELIANCE","open":1280,"dayHigh":1295,"dayLow":1270,"lastPrice":1290.5,"previousClose":1278,"pChange":0.98,"totalTradedVolume":5400000}
	]}`
	nse, hits := newNSEServer(t, map[string]string{
		"/api/equity-stockIndices": payload,
	})

	rows, err := nse.GetStockIndices(context.Background(), "NIFTY 50")
	if err != nil {
		t.Fatalf("GetStockIndices error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
	if rows[0].IndexSymbol != "NIFTY 50" {
		t.Errorf("rows[0].IndexSymbol: got %q", rows[0].IndexSymbol)
	}
	if rows[1].Symbol != "RELIANCE" {
		t.Errorf("rows[1].Symbol: got %q", rows[1].Symbol)
	}
	if rows[1].LastPrice == nil || *rows[1].LastPrice != 1290.5 {
		t.Errorf("rows[1].LastPrice: got %v", rows[1].LastPrice)
	}
	if rows[1].TotalTradedVolume == nil || *rows[1].TotalTradedVolume != 5400000 {
		t.Errorf("rows[1].TotalTradedVolume: got %v", rows[1].TotalTradedVolume)
	}
	if hits.Load() != 1 {
		t.Errorf("homepage hits: got %d, want 1", hits.Load())
	}
}

func TestCookieWarmupOncePerTTL(t *testing.T) {
	nse, hits := newNSEServer(t, map[string]string{
		"/api/allIndices": `{"data":[]}`,
	})

	for i := 0; i < 3; i++ {
		if _, err := nse.GetAllIndices(context.Background()); err != nil {
			t.Fatalf("GetAllIndices error: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("homepage hits: got %d, want 1 (cookies cached for TTL)", hits.Load())
	}
}

func TestGetBulkDealsDateWindow(t *testing.T) {
	var gotFrom, gotTo string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	})
	mux.HandleFunc("/api/historical/bulk-deals", func(w http.ResponseWriter, r *http.Request) {
		gotFrom = r.URL.Query().Get("from")
		gotTo = r.URL.Query().Get("to")
		w.Write([]byte(`{"data":[{"Symbol":"ABC","Deal Date/Time.":"10-03-2025"}]}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	nse := NewNSE(ts.URL, 5*time.Second)
	rows, err := nse.GetBulkDeals(context.Background(), "1W")
	if err != nil {
		t.Fatalf("GetBulkDeals error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(rows))
	}
	if rows[0]["Symbol"] != "ABC" {
		t.Errorf("Symbol: got %v", rows[0]["Symbol"])
	}

	today := utils.NowIST()
	wantTo := today.Format("02-01-2006")
	wantFrom := today.AddDate(0, 0, -7).Format("02-01-2006")
	if gotTo != wantTo {
		t.Errorf("to: got %q, want %q", gotTo, wantTo)
	}
	if gotFrom != wantFrom {
		t.Errorf("from: got %q, want %q", gotFrom, wantFrom)
	}
}

func TestGetBulkDealsInvalidPeriod(t *testing.T) {
	nse := NewNSE("http://unused.test", time.Second)
	if _, err := nse.GetBulkDeals(context.Background(), "3Y"); err == nil {
		t.Error("invalid period should error before any fetch")
	}
}

func TestPeriodRange(t *testing.T) {
	today := time.Date(2025, 3, 10, 12, 0, 0, 0, utils.IST)
	tests := []struct {
		period   string
		wantFrom string
	}{
		{"1D", "2025-03-09"},
		{"1W", "2025-03-03"},
		{"1M", "2025-02-10"},
	}
	for _, tc := range tests {
		from, to, err := periodRange(tc.period, today)
		if err != nil {
			t.Fatalf("%s: error %v", tc.period, err)
		}
		if got := from.Format("2006-01-02"); got != tc.wantFrom {
			t.Errorf("%s: from = %s, want %s", tc.period, got, tc.wantFrom)
		}
		if got := to.Format("2006-01-02"); got != "2025-03-10" {
			t.Errorf("%s: to = %s, want 2025-03-10", tc.period, got)
		}
	}
}

func TestGetIndexQuote(t *testing.T) {
	payload := `{"data":[
		{"index":"NIFTY 50","indexSymbol":"NIFTY 50","last":24315.95,"previousClose":24180.8,"open":24200},
		{"index":"INDIA VIX","indexSymbol":"INDIA VIX","last":13.42,"previousClose":13.01,"open":13.1,"high":13.6,"low":12.9}
	]}`
	nse, _ := newNSEServer(t, map[string]string{
		"/api/allIndices": payload,
	})

	q, err := nse.GetIndexQuote(context.Background(), "India VIX")
	if err != nil {
		t.Fatalf("GetIndexQuote error: %v", err)
	}
	if q.Last != 13.42 {
		t.Errorf("Last: got %v, want 13.42", q.Last)
	}
	if q.PreviousClose != 13.01 {
		t.Errorf("PreviousClose: got %v", q.PreviousClose)
	}
	if q.High == nil || *q.High != 13.6 {
		t.Errorf("High: got %v", q.High)
	}
}

func TestGetIndexQuoteMissing(t *testing.T) {
	nse, _ := newNSEServer(t, map[string]string{
		"/api/allIndices": `{"data":[{"index":"NIFTY 50","indexSymbol":"NIFTY 50"}]}`,
	})

	_, err := nse.GetIndexQuote(context.Background(), "INDIA VIX")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("want ErrUnavailable, got %v", err)
	}
}

func TestGetTradingHolidays(t *testing.T) {
	payload := `{"CM":[
		{"tradingDate":"26-Jan-2026","description":"Republic Day"},
		{"tradingDate":"2026-03-04","description":"Holi"},
		{"tradingDate":"garbage","description":"ignored"}
	]}`
	nse, _ := newNSEServer(t, map[string]string{
		"/api/holiday-master": payload,
	})

	cal, err := nse.GetTradingHolidays(context.Background())
	if err != nil {
		t.Fatalf("GetTradingHolidays error: %v", err)
	}
	if len(cal) != 2 {
		t.Fatalf("calendar size: got %d, want 2", len(cal))
	}
	if cal["2026-01-26"] != "Republic Day" {
		t.Errorf("2026-01-26: got %q", cal["2026-01-26"])
	}
	if cal["2026-03-04"] != "Holi" {
		t.Errorf("2026-03-04: got %q", cal["2026-03-04"])
	}
}

func TestNSEUpstreamError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	})
	mux.HandleFunc("/api/allIndices", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	nse := NewNSE(ts.URL, 5*time.Second)
	_, err := nse.GetAllIndices(context.Background())
	if err == nil {
		t.Fatal("want error for 403 upstream")
	}
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("want *ErrHTTP, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode: got %d, want 403", httpErr.StatusCode)
	}
}

func TestNSESendsAPIHeaders(t *testing.T) {
	var gotReferer, gotRequestedWith string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	})
	mux.HandleFunc("/api/allIndices", func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		gotRequestedWith = r.Header.Get("X-Requested-With")
		w.Write([]byte(`{"data":[]}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	nse := NewNSE(ts.URL, 5*time.Second)
	if _, err := nse.GetAllIndices(context.Background()); err != nil {
		t.Fatalf("GetAllIndices error: %v", err)
	}
	if gotReferer != fmt.Sprintf("%s/", ts.URL) {
		t.Errorf("Referer: got %q", gotReferer)
	}
	if gotRequestedWith != "XMLHttpRequest" {
		t.Errorf("X-Requested-With: got %q", gotRequestedWith)
	}
}
