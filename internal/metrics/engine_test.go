package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/seenimoa/valuemetrics/pkg/models"
)

func fy(year int, revenue, netIncome, ebit, marketCap float64) models.PeriodRecord {
	return models.PeriodRecord{
		CompanyID:       "NL0010273215",
		Ticker:          "ASML.AS",
		StockIndex:      "AEX",
		CompanyName:     "ASML Holding",
		Date:            date(fmt.Sprintf("%d-12-31", year)),
		Period:          models.PeriodFY,
		Revenue:         models.Float(revenue),
		NetIncome:       models.Float(netIncome),
		OperatingIncome: models.Float(ebit),
		EBITDA:          models.Float(ebit * 1.2),
		TotalAssets:     models.Float(revenue * 2),
		TotalEquity:     models.Float(revenue),
		NetDebt:         models.Float(100),
		MarketCap:       models.Float(marketCap),
	}
}

func quarter(d string, p models.Period, netIncome, ebit float64) models.PeriodRecord {
	r := period(d, p, models.Float(netIncome), models.Float(ebit))
	r.CompanyID = "NL0010273215"
	r.Ticker = "ASML.AS"
	r.MarketCap = models.Float(44000)
	return r
}

// sampleCompany has FY 2014-2023 with revenue doubling between 2018 and 2023,
// plus four 2023 quarters. Net income is 1/8 and EBIT 1/4 of revenue, market
// cap 15x net income, so every ratio is exact.
func sampleCompany() []models.PeriodRecord {
	revenue := map[int]float64{2019: 1200, 2020: 1400, 2021: 1600, 2022: 1800, 2023: 2000}
	var recs []models.PeriodRecord
	for y := 2014; y <= 2023; y++ {
		rev, ok := revenue[y]
		if !ok {
			rev = 1000
		}
		recs = append(recs, fy(y, rev, rev/8, rev/4, rev/8*15))
	}
	recs = append(recs,
		quarter("2023-03-31", models.PeriodQ1, 100, 150),
		quarter("2023-06-30", models.PeriodQ2, 120, 160),
		quarter("2023-09-30", models.PeriodQ3, 90, 140),
		quarter("2023-12-31", models.PeriodQ4, 130, 170),
	)
	return recs
}

func findRow(t *testing.T, rows []models.DerivedMetrics, d string, p models.Period) models.DerivedMetrics {
	t.Helper()
	for _, r := range rows {
		if r.Date.Equal(date(d)) && r.Period == p {
			return r
		}
	}
	t.Fatalf("row %s %s not found", d, p)
	return models.DerivedMetrics{}
}

func TestDeriveOneOutputPerInput(t *testing.T) {
	recs := sampleCompany()
	out := NewEngine(DefaultOptions()).Derive(recs)
	if len(out) != len(recs) {
		t.Fatalf("expected %d rows, got %d", len(recs), len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].Date.Before(out[i-1].Date) {
			t.Fatalf("output not in date order at %d", i)
		}
	}
}

func TestDeriveSubAnnualRowHasNoHistory(t *testing.T) {
	out := NewEngine(DefaultOptions()).Derive(sampleCompany())
	q := findRow(t, out, "2023-12-31", models.PeriodQ4)

	if q.TTMNetIncome == nil || *q.TTMNetIncome != 440 {
		t.Errorf("expected TTM net income 440, got %v", q.TTMNetIncome)
	}
	if q.TTMPE == nil || *q.TTMPE != 100 {
		t.Errorf("expected TTM P/E 44000/440 = 100, got %v", q.TTMPE)
	}
	if q.Cadence != "quarterly" {
		t.Errorf("expected quarterly cadence, got %q", q.Cadence)
	}
	if q.PEAvg5Y.Value != nil || q.PEAvg5Y.Count != nil || q.RevenueCAGR3Y != nil || q.ProfitMarginAvg3Y.Count != nil {
		t.Error("FY-only fields must stay nil on sub-annual rows")
	}
	if q.EV == nil || *q.EV != 44000 {
		t.Errorf("EV should be computed for every period, got %v", q.EV)
	}
}

func TestDeriveFiscalYearRow(t *testing.T) {
	out := NewEngine(DefaultOptions()).Derive(sampleCompany())
	row := findRow(t, out, "2023-12-31", models.PeriodFY)

	// FY and Q4 share a date, so the FY row sees the same TTM.
	if row.TTMEBIT == nil || *row.TTMEBIT != 620 {
		t.Errorf("expected TTM EBIT 620, got %v", row.TTMEBIT)
	}

	if row.RevenueCAGR5Y == nil || math.Abs(*row.RevenueCAGR5Y-14.87) > 0.01 {
		t.Errorf("expected 5y revenue CAGR ~14.87, got %v", row.RevenueCAGR5Y)
	}
	if row.RevenueCAGR10Y != nil {
		t.Error("10y CAGR needs FY2013, which is absent")
	}

	assertAverage(t, row.PEAvg5Y, 15, 5)
	assertAverage(t, row.PEAvg10Y, 15, 10)
	assertAverage(t, row.PEAvg15Y, 15, 10)
	// Ten valid years exactly meet the 20y floor of max(3, 10).
	assertAverage(t, row.PEAvg20Y, 15, 10)

	assertAverage(t, row.ProfitMarginAvg3Y, 12.5, 3)
	assertAverage(t, row.OperatingMarginAvg10Y, 25, 10)
	assertAverage(t, row.ProfitMarginAvgFixed, 12.5, 5)
	assertAverage(t, row.OperatingMarginAvgFixed, 25, 5)

	early := findRow(t, out, "2016-12-31", models.PeriodFY)
	if early.PEAvg10Y.Count != nil {
		t.Errorf("FY2016 has only 3 years of history, 10y P/E must be (nil, nil): %+v", early.PEAvg10Y)
	}
	assertAverage(t, early.PEAvg5Y, 15, 3)
}

func TestDeriveInsufficientHistory(t *testing.T) {
	var recs []models.PeriodRecord
	for y := 2020; y <= 2023; y++ {
		recs = append(recs, fy(y, 1000, 100, 150, 1500))
	}
	out := NewEngine(DefaultOptions()).Derive(recs)
	row := findRow(t, out, "2023-12-31", models.PeriodFY)

	if row.PEAvg10Y.Value != nil || row.PEAvg10Y.Count != nil {
		t.Errorf("expected (nil, nil) for 10y P/E with 4 years, got %+v", row.PEAvg10Y)
	}
	assertAverage(t, row.PEAvg5Y, 15, 4)
	// Margins have no floor.
	assertAverage(t, row.ProfitMarginAvg10Y, 10, 4)
	// No data at all in the fixed window.
	if row.ProfitMarginAvgFixed.Value != nil || row.ProfitMarginAvgFixed.Count == nil || *row.ProfitMarginAvgFixed.Count != 0 {
		t.Errorf("expected (nil, 0) fixed-window margin, got %+v", row.ProfitMarginAvgFixed)
	}
	if row.TTMNetIncome != nil || row.Cadence != "" {
		t.Error("no sub-annual data means no TTM")
	}
}

func TestDeriveLossYearsExcludedFromAverages(t *testing.T) {
	var recs []models.PeriodRecord
	for y := 2019; y <= 2023; y++ {
		ni := 100.0
		if y == 2021 {
			ni = -50
		}
		recs = append(recs, fy(y, 1000, ni, 150, 1500))
	}
	row := findRow(t, NewEngine(DefaultOptions()).Derive(recs), "2023-12-31", models.PeriodFY)

	assertAverage(t, row.PEAvg5Y, 15, 4)
	assertAverage(t, row.ProfitMarginAvg5Y, 10, 4)
}

func TestDeriveIdempotent(t *testing.T) {
	e := NewEngine(DefaultOptions())
	recs := sampleCompany()

	shuffled := make([]models.PeriodRecord, len(recs))
	for i := range recs {
		shuffled[len(recs)-1-i] = recs[i]
	}

	a, err := json.Marshal(e.Derive(recs))
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(e.Derive(shuffled))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("derive output depends on input order")
	}
	c, _ := json.Marshal(e.Derive(recs))
	if !bytes.Equal(a, c) {
		t.Error("derive is not idempotent")
	}
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	recs := sampleCompany()
	first := recs[0].Date
	last := recs[len(recs)-1].Date
	NewEngine(DefaultOptions()).Derive(recs)
	if !recs[0].Date.Equal(first) || !recs[len(recs)-1].Date.Equal(last) {
		t.Error("input slice was reordered")
	}
}

func TestNewEngineDefaultsWindow(t *testing.T) {
	e := NewEngine(Options{})
	if e.Options().TTMWindowMonths != DefaultTTMWindowMonths {
		t.Errorf("expected default TTM window, got %d", e.Options().TTMWindowMonths)
	}
}

func TestStats(t *testing.T) {
	out := NewEngine(DefaultOptions()).Derive(sampleCompany())
	var s Stats
	s.AddAll(out)

	if s.Total != len(out) {
		t.Errorf("total: got %d, want %d", s.Total, len(out))
	}
	if s.TTMPE == 0 {
		t.Error("expected some TTM P/E rows")
	}
	// FY2018 through FY2023 each have at least five years of history.
	if s.PEAvg10Y != 6 {
		t.Errorf("expected 6 rows with a 10y P/E average, got %d", s.PEAvg10Y)
	}
	if rows := s.Rows(); len(rows) != 15 || rows[0].Count != s.Total {
		t.Errorf("unexpected stat rows: %+v", rows)
	}
}
