package market

import (
	"math"
	"testing"
)

func TestChange(t *testing.T) {
	tests := []struct {
		name       string
		last, open float64
		wantPts    float64
		wantPct    float64
	}{
		{"gain", 105, 100, 5, 5},
		{"loss", 95, 100, -5, -5},
		{"flat", 100, 100, 0, 0},
		{"zero open degrades pct", 100, 0, 100, 0},
		{"rounding", 100.016, 100, 0.02, 0.02},
		{"fractional", 24315.95, 24180.80, 135.15, 0.56},
	}
	for _, tc := range tests {
		got := Change(tc.last, tc.open)
		if got.PointsChange != tc.wantPts {
			t.Errorf("%s: PointsChange = %v, want %v", tc.name, got.PointsChange, tc.wantPts)
		}
		if got.PercentChange != tc.wantPct {
			t.Errorf("%s: PercentChange = %v, want %v", tc.name, got.PercentChange, tc.wantPct)
		}
	}
}

func TestChangeFine(t *testing.T) {
	got := ChangeFine(83.5432, 83.1298)
	if got.PointsChange != 0.4134 {
		t.Errorf("PointsChange = %v, want 0.4134", got.PointsChange)
	}
	if got.PercentChange != 0.5 {
		t.Errorf("PercentChange = %v, want 0.5", got.PercentChange)
	}
}

func TestChangeFineZeroPrev(t *testing.T) {
	got := ChangeFine(83.5, 0)
	if got.PointsChange != 83.5 || got.PercentChange != 0 {
		t.Errorf("got %+v, want {83.5 0}", got)
	}
}

func TestOzUSDToKgINR(t *testing.T) {
	// One ounce worth of USD at rate 1 is exactly 1000 INR per kg.
	if got := OzUSDToKgINR(GramsPerTroyOunce, 1); math.Abs(got-1000) > 1e-9 {
		t.Errorf("OzUSDToKgINR(%v, 1) = %v, want 1000", GramsPerTroyOunce, got)
	}

	// Representative gold quote: $2700/oz at 84 INR/USD.
	got := OzUSDToKgINR(2700, 84)
	want := 2700.0 * 84 * 1000 / 31.1035
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("OzUSDToKgINR(2700, 84) = %v, want %v", got, want)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.006, 1.01},
		{1.004, 1.0},
		{-1.006, -1.01},
		{0, 0},
	}
	for _, tc := range tests {
		if got := Round2(tc.in); got != tc.want {
			t.Errorf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRound4(t *testing.T) {
	if got := Round4(0.41339); got != 0.4134 {
		t.Errorf("Round4(0.41339) = %v, want 0.4134", got)
	}
}
