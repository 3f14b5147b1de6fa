// Package dashboard is the aggregation layer: one operation per dashboard
// capability, each a single pass of gateway fetch -> normalization or
// derivation -> response record. The service holds no cross-request state.
package dashboard

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marketdeck/marketdeck/internal/datasource"
	"github.com/marketdeck/marketdeck/internal/market"
	"github.com/marketdeck/marketdeck/pkg/models"
	"github.com/marketdeck/marketdeck/pkg/utils"
)

// Upstream tickers and index names.
const (
	niftyIndexName = "NIFTY 50"
	vixIndexName   = "INDIA VIX"
	sensexSymbol   = "^BSESN"
	goldSymbol     = "GC=F"
	silverSymbol   = "SI=F"
	usdinrSymbol   = "USDINR=X"
)

// Service aggregates the upstream gateways behind the dashboard operations.
type Service struct {
	nse   *datasource.NSE
	yahoo *datasource.Yahoo
	news  *datasource.News

	now func() time.Time
}

// New creates a dashboard service over the given gateways.
func New(nse *datasource.NSE, yahoo *datasource.Yahoo, news *datasource.News) *Service {
	return &Service{
		nse:   nse,
		yahoo: yahoo,
		news:  news,
		now:   utils.NowIST,
	}
}

// NiftyBoard is the NIFTY 50 snapshot: the index aggregate plus every
// constituent stock.
type NiftyBoard struct {
	Nifty  models.IndexSnapshot `json:"nifty"`
	Stocks []models.StockRow    `json:"stocks"`
	Count  int                  `json:"count"`
}

// BulkDeals is a period's worth of bulk-deal records.
type BulkDeals struct {
	Period string          `json:"period"`
	Count  int             `json:"count"`
	Data   []models.Record `json:"data"`
}

// IndexTable is the market-watch all-indices table.
type IndexTable struct {
	Count int             `json:"count"`
	Data  []models.Record `json:"data"`
}

// Overview is a best-effort snapshot of the overall market state; fields
// whose fetch failed are simply absent.
type Overview struct {
	Nifty     *models.IndexSnapshot `json:"nifty,omitempty"`
	Vix       *models.VixQuote      `json:"vix,omitempty"`
	USDINR    *models.CurrencyQuote `json:"usd_inr,omitempty"`
	Status    *models.MarketStatus  `json:"status,omitempty"`
	FetchedAt string                `json:"fetched_at"`
}

// Nifty50 returns the NIFTY 50 board. Upstream or normalization failures
// fail the whole request; a partial constituent list is never served.
func (s *Service) Nifty50(ctx context.Context) (*NiftyBoard, error) {
	rows, err := s.nse.GetStockIndices(ctx, niftyIndexName)
	if err != nil {
		return nil, err
	}

	nifty, stocks, err := market.SplitIndexBoard(rows)
	if err != nil {
		return nil, fmt.Errorf("normalize %s board: %w", niftyIndexName, err)
	}

	return &NiftyBoard{
		Nifty:  nifty,
		Stocks: stocks,
		Count:  len(stocks),
	}, nil
}

// BulkDeals returns bulk-deal records for the given period (1D, 1W or 1M;
// empty selects 1W as the original surface did).
func (s *Service) BulkDeals(ctx context.Context, period string) (*BulkDeals, error) {
	if period == "" {
		period = "1W"
	}

	rows, err := s.nse.GetBulkDeals(ctx, period)
	if err != nil {
		return nil, err
	}

	data := market.SanitizeRows(rows)
	return &BulkDeals{
		Period: period,
		Count:  len(data),
		Data:   data,
	}, nil
}

// AllIndices returns the sanitized market-watch all-indices table.
func (s *Service) AllIndices(ctx context.Context) (*IndexTable, error) {
	rows, err := s.nse.GetAllIndices(ctx)
	if err != nil {
		return nil, err
	}

	data := market.SanitizeRows(rows)
	return &IndexTable{
		Count: len(data),
		Data:  data,
	}, nil
}

// Sensex returns the SENSEX snapshot proxied through the Yahoo chart API.
// Change and percent change are derived only when both the last price and
// the previous close are present and non-zero.
func (s *Service) Sensex(ctx context.Context) (*models.ForeignIndexSnapshot, error) {
	meta, err := s.yahoo.GetChartSnapshot(ctx, sensexSymbol)
	if err != nil {
		return nil, err
	}

	snap := &models.ForeignIndexSnapshot{
		Index:         "SENSEX",
		Last:          meta.RegularMarketPrice,
		Open:          meta.RegularMarketOpen,
		High:          meta.RegularMarketDayHigh,
		Low:           meta.RegularMarketDayLow,
		PreviousClose: meta.PreviousClose,
		Currency:      meta.Currency,
		Exchange:      meta.ExchangeName,
		MarketState:   meta.MarketState,
		Time:          meta.RegularMarketTime,
	}

	if last, prev := meta.RegularMarketPrice, meta.PreviousClose; last != nil && prev != nil && *last != 0 && *prev != 0 {
		change := *last - *prev
		pct := (change / *prev) * 100
		snap.Change = &change
		snap.PercentChange = &pct
	}
	return snap, nil
}

// Gold returns the COMEX gold price converted to INR per kilogram.
func (s *Service) Gold(ctx context.Context) (*models.CommodityQuote, error) {
	return s.commodity(ctx, goldSymbol, "GOLD (INR/kg)")
}

// Silver returns the COMEX silver price converted to INR per kilogram.
func (s *Service) Silver(ctx context.Context) (*models.CommodityQuote, error) {
	return s.commodity(ctx, silverSymbol, "SILVER (INR/kg)")
}

// commodity derives an INR/kg quote from a futures ticker: the last candle
// of a 5-day history converted at the current USD/INR rate, with the
// day-over-day change computed on the converted pair. The futures history
// and the FX rate are fetched concurrently.
func (s *Service) commodity(ctx context.Context, symbol, name string) (*models.CommodityQuote, error) {
	var (
		mu   sync.Mutex
		hist []models.Candle
		fx   float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := s.yahoo.GetDailyHistory(gctx, symbol, "5d")
		if err != nil {
			return err
		}
		mu.Lock()
		hist = h
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		rate, err := s.usdinrRate(gctx)
		if err != nil {
			return err
		}
		mu.Lock()
		fx = rate
		mu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(hist) == 0 {
		return nil, fmt.Errorf("%w: no price history for %s", datasource.ErrUnavailable, symbol)
	}

	last := hist[len(hist)-1]
	lastINR := market.OzUSDToKgINR(last.Close, fx)
	openINR := market.OzUSDToKgINR(last.Open, fx)
	d := market.Change(lastINR, openINR)

	return &models.CommodityQuote{
		Name:          name,
		Last:          market.Round2(lastINR),
		PointsChange:  d.PointsChange,
		PercentChange: d.PercentChange,
	}, nil
}

// usdinrRate returns the latest USD/INR close.
func (s *Service) usdinrRate(ctx context.Context) (float64, error) {
	hist, err := s.yahoo.GetDailyHistory(ctx, usdinrSymbol, "1d")
	if err != nil {
		return 0, err
	}
	if len(hist) == 0 {
		return 0, fmt.Errorf("%w: no USD/INR rate", datasource.ErrUnavailable)
	}
	return hist[len(hist)-1].Close, nil
}

// Vix returns the India VIX quote from the NSE market watch.
func (s *Service) Vix(ctx context.Context) (*models.VixQuote, error) {
	q, err := s.nse.GetIndexQuote(ctx, vixIndexName)
	if err != nil {
		return nil, err
	}

	d := market.Change(q.Last, q.PreviousClose)
	return &models.VixQuote{
		Symbol:        vixIndexName,
		Value:         q.Last,
		Change:        d.PointsChange,
		PercentChange: d.PercentChange,
		Open:          q.Open,
		High:          q.High,
		Low:           q.Low,
		PreviousClose: q.PreviousClose,
	}, nil
}

// USDINR returns the USD/INR rate with its day-over-day change. Fewer than
// two observations means the change cannot be derived; that is reported as
// unavailable, not as a fault.
func (s *Service) USDINR(ctx context.Context) (*models.CurrencyQuote, error) {
	hist, err := s.yahoo.GetDailyHistory(ctx, usdinrSymbol, "2d")
	if err != nil {
		return nil, err
	}
	if len(hist) < 2 {
		return nil, fmt.Errorf("%w: USD/INR needs 2 observations, got %d", datasource.ErrUnavailable, len(hist))
	}

	last := hist[len(hist)-1].Close
	prev := hist[len(hist)-2].Close
	d := market.ChangeFine(last, prev)

	return &models.CurrencyQuote{
		Name:          "USD/INR",
		Last:          market.Round4(last),
		PointsChange:  d.PointsChange,
		PercentChange: d.PercentChange,
	}, nil
}

// MarketStatus evaluates the trading calendar for the current instant. The
// holiday calendar is fetched fresh on every call; if the fetch fails the
// evaluation degrades to an empty calendar so the weekday and session rules
// still answer — this endpoint never hard-fails on the calendar alone.
func (s *Service) MarketStatus(ctx context.Context) (*models.MarketStatus, error) {
	cal, err := s.nse.GetTradingHolidays(ctx)
	if err != nil {
		log.Printf("holiday calendar fetch failed, using empty set: %v", err)
		cal = models.HolidayCalendar{}
	}

	st := market.EvaluateStatus(s.now(), cal)
	return &st, nil
}

// Overview assembles the market overview concurrently. Each field is
// best-effort; a failed fetch leaves its field absent.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	overview := &Overview{
		FetchedAt: utils.FormatDateTimeIST(s.now()),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		board, err := s.Nifty50(gctx)
		if err != nil {
			return nil // non-fatal
		}
		mu.Lock()
		overview.Nifty = &board.Nifty
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		vix, err := s.Vix(gctx)
		if err != nil {
			return nil
		}
		mu.Lock()
		overview.Vix = vix
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		cur, err := s.USDINR(gctx)
		if err != nil {
			return nil
		}
		mu.Lock()
		overview.USDINR = cur
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		st, err := s.MarketStatus(gctx)
		if err != nil {
			return nil
		}
		mu.Lock()
		overview.Status = st
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return overview, err
	}
	return overview, nil
}

// MarketNews returns recent market headlines.
func (s *Service) MarketNews(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	return s.news.GetMarketNews(ctx, limit)
}
