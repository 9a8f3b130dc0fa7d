package metrics

import "github.com/seenimoa/valuemetrics/pkg/models"

// Stats counts how many output rows carry each headline metric. It is the
// run summary printed after a full recompute.
type Stats struct {
	Total                   int `json:"total"`
	PE                      int `json:"pe"`
	TTMPE                   int `json:"ttm_pe"`
	EVEBIT                  int `json:"ev_ebit"`
	TTMEVEBIT               int `json:"ttm_ev_ebit"`
	EV                      int `json:"ev"`
	PEAvg10Y                int `json:"pe_avg_10y"`
	RevenueCAGR5Y           int `json:"revenue_cagr_5y"`
	EquityRatio             int `json:"equity_ratio"`
	ProfitMargin            int `json:"profit_margin"`
	OperatingMargin         int `json:"operating_margin"`
	ProfitMarginAvg5Y       int `json:"profit_margin_avg_5y"`
	OperatingMarginAvg5Y    int `json:"operating_margin_avg_5y"`
	ProfitMarginAvgFixed    int `json:"profit_margin_avg_fixed"`
	OperatingMarginAvgFixed int `json:"operating_margin_avg_fixed"`
}

// Add counts the defined metrics of m.
func (s *Stats) Add(m *models.DerivedMetrics) {
	s.Total++
	s.PE += defined(m.PE)
	s.TTMPE += defined(m.TTMPE)
	s.EVEBIT += defined(m.EVEBIT)
	s.TTMEVEBIT += defined(m.TTMEVEBIT)
	s.EV += defined(m.EV)
	s.PEAvg10Y += defined(m.PEAvg10Y.Value)
	s.RevenueCAGR5Y += defined(m.RevenueCAGR5Y)
	s.EquityRatio += defined(m.EquityRatio)
	s.ProfitMargin += defined(m.ProfitMargin)
	s.OperatingMargin += defined(m.OperatingMargin)
	s.ProfitMarginAvg5Y += defined(m.ProfitMarginAvg5Y.Value)
	s.OperatingMarginAvg5Y += defined(m.OperatingMarginAvg5Y.Value)
	s.ProfitMarginAvgFixed += defined(m.ProfitMarginAvgFixed.Value)
	s.OperatingMarginAvgFixed += defined(m.OperatingMarginAvgFixed.Value)
}

// AddAll counts every row of ms.
func (s *Stats) AddAll(ms []models.DerivedMetrics) {
	for i := range ms {
		s.Add(&ms[i])
	}
}

// Rows returns the counts as label/value pairs in display order.
func (s *Stats) Rows() []StatRow {
	return []StatRow{
		{"Total", s.Total},
		{"P/E", s.PE},
		{"TTM P/E", s.TTMPE},
		{"EV/EBIT", s.EVEBIT},
		{"TTM EV/EBIT", s.TTMEVEBIT},
		{"EV", s.EV},
		{"P/E 10y average", s.PEAvg10Y},
		{"Revenue CAGR 5y", s.RevenueCAGR5Y},
		{"Equity ratio", s.EquityRatio},
		{"Profit margin", s.ProfitMargin},
		{"Operating margin", s.OperatingMargin},
		{"Profit margin 5y average", s.ProfitMarginAvg5Y},
		{"Operating margin 5y average", s.OperatingMarginAvg5Y},
		{"Profit margin fixed-window average", s.ProfitMarginAvgFixed},
		{"Operating margin fixed-window average", s.OperatingMarginAvgFixed},
	}
}

// StatRow is one labelled count.
type StatRow struct {
	Label string
	Count int
}

func defined(v *float64) int {
	if v == nil {
		return 0
	}
	return 1
}
