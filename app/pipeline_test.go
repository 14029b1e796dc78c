package app

import (
	"testing"
	"time"

	"stockgravity/database"
)

func makeBars(n int, startClose float64) []database.DailyPrice {
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]database.DailyPrice, n)
	for i := range bars {
		c := startClose + float64(i)
		bars[i] = database.DailyPrice{
			Ticker: "005930",
			Date:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000 + int64(i)*10,
		}
	}
	return bars
}

func TestBuildMonitoringRowsWindow(t *testing.T) {
	bars := makeBars(80, 100)
	rows := buildMonitoringRows(bars, 60)

	if len(rows) != 60 {
		t.Fatalf("expected 60 rows, got %d", len(rows))
	}
	if !rows[0].Date.Equal(bars[20].Date) {
		t.Errorf("first row date = %v, want %v", rows[0].Date, bars[20].Date)
	}
	if !rows[len(rows)-1].Date.Equal(bars[79].Date) {
		t.Errorf("last row date = %v, want %v", rows[len(rows)-1].Date, bars[79].Date)
	}
}

func TestBuildMonitoringRowsIndicators(t *testing.T) {
	bars := makeBars(80, 100)
	rows := buildMonitoringRows(bars, 60)
	last := rows[len(rows)-1]

	if last.MA5 == nil || last.MA20 == nil || last.RSI == nil {
		t.Fatal("expected indicators on the last row")
	}
	// Closes 175..179 average to 177.
	if *last.MA5 != 177 {
		t.Errorf("MA5 = %v, want 177", *last.MA5)
	}
	// Monotonic rise keeps RSI pinned at 100.
	if *last.RSI != 100 {
		t.Errorf("RSI = %v, want 100", *last.RSI)
	}
	if last.PriceChange == nil {
		t.Fatal("expected price change on the last row")
	}
	// 178 -> 179 is roughly +0.56%.
	if *last.PriceChange < 0.5 || *last.PriceChange > 0.6 {
		t.Errorf("PriceChange = %v, want about 0.56", *last.PriceChange)
	}
}

func TestBuildMonitoringRowsShortSeries(t *testing.T) {
	bars := makeBars(3, 100)
	rows := buildMonitoringRows(bars, 60)

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].PriceChange != nil {
		t.Error("first row has no previous close, expected nil price change")
	}
	if rows[0].MA20 != nil {
		t.Error("expected nil MA20 on short series")
	}
	if rows[2].RSI != nil {
		t.Error("expected nil RSI on short series")
	}
}

func TestBuildMonitoringRowsEmpty(t *testing.T) {
	if rows := buildMonitoringRows(nil, 60); rows != nil {
		t.Errorf("expected nil rows, got %v", rows)
	}
}
