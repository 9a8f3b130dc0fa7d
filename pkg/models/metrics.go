package models

import "time"

// Average is an outlier-filtered rolling average together with the number of
// samples that survived filtering. Count is nil when the minimum-sample floor
// was not reached, and 0 when no sample survived.
type Average struct {
	Value *float64 `json:"value"`
	Count *int     `json:"count"`
}

// DerivedMetrics holds every metric computed for a single PeriodRecord.
// Fields that only make sense for fiscal years stay nil on sub-annual rows.
type DerivedMetrics struct {
	CompanyID   string    `json:"company_id"`
	Ticker      string    `json:"ticker"`
	StockIndex  string    `json:"stock_index"`
	CompanyName string    `json:"company_name"`
	Date        time.Time `json:"date"`
	Period      Period    `json:"period"`
	Cadence     string    `json:"cadence,omitempty"` // "quarterly", "semiannual" or empty

	// Per-period multiples
	PE     *float64 `json:"pe"`
	EVEBIT *float64 `json:"ev_ebit"`
	EBIT   *float64 `json:"ebit"`
	EV     *float64 `json:"ev"`

	// Trailing twelve months
	TTMNetIncome *float64 `json:"ttm_net_income"`
	TTMEBIT      *float64 `json:"ttm_ebit"`
	TTMPE        *float64 `json:"ttm_pe"`
	TTMEVEBIT    *float64 `json:"ttm_ev_ebit"`

	// Multi-year multiple averages (FY only)
	PEAvg5Y      Average `json:"pe_avg_5y"`
	PEAvg10Y     Average `json:"pe_avg_10y"`
	PEAvg15Y     Average `json:"pe_avg_15y"`
	PEAvg20Y     Average `json:"pe_avg_20y"`
	EVEBITAvg5Y  Average `json:"ev_ebit_avg_5y"`
	EVEBITAvg10Y Average `json:"ev_ebit_avg_10y"`
	EVEBITAvg15Y Average `json:"ev_ebit_avg_15y"`
	EVEBITAvg20Y Average `json:"ev_ebit_avg_20y"`

	// Growth (FY only), percent
	RevenueCAGR3Y    *float64 `json:"revenue_cagr_3y"`
	RevenueCAGR5Y    *float64 `json:"revenue_cagr_5y"`
	RevenueCAGR10Y   *float64 `json:"revenue_cagr_10y"`
	EBITCAGR3Y       *float64 `json:"ebit_cagr_3y"`
	EBITCAGR5Y       *float64 `json:"ebit_cagr_5y"`
	EBITCAGR10Y      *float64 `json:"ebit_cagr_10y"`
	NetIncomeCAGR3Y  *float64 `json:"net_income_cagr_3y"`
	NetIncomeCAGR5Y  *float64 `json:"net_income_cagr_5y"`
	NetIncomeCAGR10Y *float64 `json:"net_income_cagr_10y"`

	// Balance sheet
	EquityRatio   *float64 `json:"equity_ratio"` // %
	NetDebtEBITDA *float64 `json:"net_debt_ebitda"`

	// Margins, percent
	ProfitMargin    *float64 `json:"profit_margin"`
	OperatingMargin *float64 `json:"operating_margin"`

	// Margin averages (FY only). The fixed window covers a configured span of
	// calendar years (2015-2019 by default).
	ProfitMarginAvg3Y       Average `json:"profit_margin_avg_3y"`
	ProfitMarginAvg5Y       Average `json:"profit_margin_avg_5y"`
	ProfitMarginAvg10Y      Average `json:"profit_margin_avg_10y"`
	ProfitMarginAvgFixed    Average `json:"profit_margin_avg_fixed"`
	OperatingMarginAvg3Y    Average `json:"operating_margin_avg_3y"`
	OperatingMarginAvg5Y    Average `json:"operating_margin_avg_5y"`
	OperatingMarginAvg10Y   Average `json:"operating_margin_avg_10y"`
	OperatingMarginAvgFixed Average `json:"operating_margin_avg_fixed"`
}

// NewDerivedMetrics returns an output row carrying only r's identity.
func NewDerivedMetrics(r *PeriodRecord) DerivedMetrics {
	return DerivedMetrics{
		CompanyID:   r.CompanyID,
		Ticker:      r.Ticker,
		StockIndex:  r.StockIndex,
		CompanyName: r.CompanyName,
		Date:        r.Date,
		Period:      r.Period,
	}
}
