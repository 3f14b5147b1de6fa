package market

import (
	"fmt"
	"strings"

	"github.com/marketdeck/marketdeck/pkg/models"
)

// RawIndexRow mirrors one row of the NSE equity-stockIndices payload.
// Numeric fields are pointers so a field absent upstream is distinguishable
// from a genuine zero.
type RawIndexRow struct {
	IndexSymbol       string   `json:"indexSymbol"`
	Symbol            string   `json:"symbol"`
	Open              *float64 `json:"open"`
	DayHigh           *float64 `json:"dayHigh"`
	DayLow            *float64 `json:"dayLow"`
	LastPrice         *float64 `json:"lastPrice"`
	PreviousClose     *float64 `json:"previousClose"`
	PChange           *float64 `json:"pChange"`
	TotalTradedVolume *int64   `json:"totalTradedVolume"`
}

// SplitIndexBoard splits an equity-stockIndices payload into the index
// aggregate (row 0) and its constituent stocks (rows 1..N).
//
// The index snapshot passes missing numerics through as null. Stock rows are
// stricter: each must carry all seven required fields, and one bad row
// rejects the whole board — a partial constituent list is not useful to
// dashboard consumers.
func SplitIndexBoard(rows []RawIndexRow) (models.IndexSnapshot, []models.StockRow, error) {
	if len(rows) == 0 {
		return models.IndexSnapshot{}, nil, fmt.Errorf("empty index payload")
	}

	head := rows[0]
	name := head.IndexSymbol
	if name == "" {
		name = "NIFTY 50"
	}
	snapshot := models.IndexSnapshot{
		Name:          name,
		Last:          head.LastPrice,
		Open:          head.Open,
		High:          head.DayHigh,
		Low:           head.DayLow,
		PreviousClose: head.PreviousClose,
		PercentChange: head.PChange,
	}

	stocks := make([]models.StockRow, 0, len(rows)-1)
	for i, r := range rows[1:] {
		row, err := stockRow(r)
		if err != nil {
			return models.IndexSnapshot{}, nil, fmt.Errorf("stock row %d (%s): %w", i+1, r.Symbol, err)
		}
		stocks = append(stocks, row)
	}

	return snapshot, stocks, nil
}

// stockRow converts one constituent row, failing on any missing field.
func stockRow(r RawIndexRow) (models.StockRow, error) {
	if r.Symbol == "" {
		return models.StockRow{}, fmt.Errorf("missing symbol")
	}
	switch {
	case r.Open == nil:
		return models.StockRow{}, fmt.Errorf("missing open")
	case r.DayHigh == nil:
		return models.StockRow{}, fmt.Errorf("missing dayHigh")
	case r.DayLow == nil:
		return models.StockRow{}, fmt.Errorf("missing dayLow")
	case r.LastPrice == nil:
		return models.StockRow{}, fmt.Errorf("missing lastPrice")
	case r.PChange == nil:
		return models.StockRow{}, fmt.Errorf("missing pChange")
	case r.TotalTradedVolume == nil:
		return models.StockRow{}, fmt.Errorf("missing totalTradedVolume")
	case *r.TotalTradedVolume < 0:
		return models.StockRow{}, fmt.Errorf("negative volume %d", *r.TotalTradedVolume)
	}

	return models.StockRow{
		Stock:         r.Symbol,
		Open:          *r.Open,
		High:          *r.DayHigh,
		Low:           *r.DayLow,
		LTP:           *r.LastPrice,
		PercentChange: *r.PChange,
		Volume:        *r.TotalTradedVolume,
	}, nil
}

// columnReplacer rewrites upstream column names into frontend-friendly keys:
// spaces and slashes become underscores, dots are dropped.
var columnReplacer = strings.NewReplacer(" ", "_", "/", "_", ".", "")

// SanitizeColumn normalizes a single column name, e.g.
// "Deal Date/Time." -> "Deal_Date_Time".
func SanitizeColumn(name string) string {
	return columnReplacer.Replace(name)
}

// SanitizeRows normalizes a loose upstream table: column names are
// sanitized and nil cells are replaced with "" so the rows are JSON-safe.
// Cell values are otherwise passed through unchanged.
func SanitizeRows(rows []map[string]any) []models.Record {
	out := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		rec := make(models.Record, len(row))
		for col, val := range row {
			if val == nil {
				val = ""
			}
			rec[SanitizeColumn(col)] = val
		}
		out = append(out, rec)
	}
	return out
}
