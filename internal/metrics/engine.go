package metrics

import "github.com/seenimoa/valuemetrics/pkg/models"

// Rolling windows, in fiscal years.
var (
	MultipleWindows = []int{5, 10, 15, 20}
	CAGRWindows     = []int{3, 5, 10}
	MarginWindows   = []int{3, 5, 10}
)

// Options tune the engine. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	TTMWindowMonths int
	// FixedMarginFrom and FixedMarginTo bound the fixed historical margin
	// window (inclusive calendar years).
	FixedMarginFrom int
	FixedMarginTo   int
}

// DefaultOptions returns the standard engine settings.
func DefaultOptions() Options {
	return Options{
		TTMWindowMonths: DefaultTTMWindowMonths,
		FixedMarginFrom: 2015,
		FixedMarginTo:   2019,
	}
}

// Engine derives metrics for one company at a time. It holds no per-company
// state and is safe for concurrent use.
type Engine struct {
	opts Options
}

// NewEngine creates an engine with the given options.
func NewEngine(opts Options) *Engine {
	if opts.TTMWindowMonths <= 0 {
		opts.TTMWindowMonths = DefaultTTMWindowMonths
	}
	return &Engine{opts: opts}
}

// Options returns the engine settings.
func (e *Engine) Options() Options { return e.opts }

// Derive computes one DerivedMetrics per input record of a single company.
// The input is not modified; output follows the sorted order of the input.
func (e *Engine) Derive(records []models.PeriodRecord) []models.DerivedMetrics {
	sorted := make([]models.PeriodRecord, len(records))
	copy(sorted, records)
	SortRecords(sorted)

	idx := NewFiscalYearIndex(sorted)
	out := make([]models.DerivedMetrics, 0, len(sorted))
	for i := range sorted {
		out = append(out, e.deriveRecord(sorted, idx, &sorted[i]))
	}
	return out
}

func (e *Engine) deriveRecord(sorted []models.PeriodRecord, idx *FiscalYearIndex, r *models.PeriodRecord) models.DerivedMetrics {
	m := models.NewDerivedMetrics(r)

	m.EBIT = r.OperatingIncome
	m.EV = EnterpriseValue(r)
	m.PE = PriceEarnings(r)
	m.EVEBIT = EVToEBIT(m.EV, m.EBIT)

	ttm := TrailingTwelveMonths(sorted, r.Date, e.opts.TTMWindowMonths)
	m.Cadence = ttm.Cadence.String()
	m.TTMNetIncome = ttm.NetIncome
	m.TTMEBIT = ttm.EBIT
	m.TTMPE = TTMPriceEarnings(r.MarketCap, ttm.NetIncome)
	m.TTMEVEBIT = EVToEBIT(m.EV, ttm.EBIT)

	m.EquityRatio = EquityRatio(r)
	m.NetDebtEBITDA = NetDebtToEBITDA(r)
	m.ProfitMargin = ProfitMargin(r)
	m.OperatingMargin = OperatingMargin(r)

	if r.Period.IsAnnual() {
		e.deriveHistory(&m, idx, r)
	}
	return m
}

// deriveHistory fills the FY-only fields: multiple averages, CAGRs and margin
// averages, all looked up through the fiscal-year index.
func (e *Engine) deriveHistory(m *models.DerivedMetrics, idx *FiscalYearIndex, r *models.PeriodRecord) {
	year := r.FiscalYear()

	pe := []*models.Average{&m.PEAvg5Y, &m.PEAvg10Y, &m.PEAvg15Y, &m.PEAvg20Y}
	evebit := []*models.Average{&m.EVEBITAvg5Y, &m.EVEBITAvg10Y, &m.EVEBITAvg15Y, &m.EVEBITAvg20Y}
	for i, n := range MultipleWindows {
		hist := idx.Trailing(year, n)
		*pe[i] = FilteredAverage(collect(hist, PriceEarnings), PEPolicy(n))
		*evebit[i] = FilteredAverage(collect(hist, historicalEVEBIT), EVEBITPolicy(n))
	}

	growth := []struct {
		field func(*models.PeriodRecord) *float64
		dst   []**float64
	}{
		{revenue, []**float64{&m.RevenueCAGR3Y, &m.RevenueCAGR5Y, &m.RevenueCAGR10Y}},
		{ebit, []**float64{&m.EBITCAGR3Y, &m.EBITCAGR5Y, &m.EBITCAGR10Y}},
		{netIncome, []**float64{&m.NetIncomeCAGR3Y, &m.NetIncomeCAGR5Y, &m.NetIncomeCAGR10Y}},
	}
	for _, g := range growth {
		for i, n := range CAGRWindows {
			start, ok := idx.Get(year - n)
			if !ok {
				continue
			}
			*g.dst[i] = CAGR(g.field(r), g.field(start), n)
		}
	}

	profit := []*models.Average{&m.ProfitMarginAvg3Y, &m.ProfitMarginAvg5Y, &m.ProfitMarginAvg10Y}
	operating := []*models.Average{&m.OperatingMarginAvg3Y, &m.OperatingMarginAvg5Y, &m.OperatingMarginAvg10Y}
	for i, n := range MarginWindows {
		hist := idx.Trailing(year, n)
		*profit[i] = FilteredAverage(collect(hist, ProfitMargin), MarginPolicy())
		*operating[i] = FilteredAverage(collect(hist, OperatingMargin), MarginPolicy())
	}

	fixed := idx.Range(e.opts.FixedMarginFrom, e.opts.FixedMarginTo)
	m.ProfitMarginAvgFixed = FilteredAverage(collect(fixed, ProfitMargin), MarginPolicy())
	m.OperatingMarginAvgFixed = FilteredAverage(collect(fixed, OperatingMargin), MarginPolicy())
}

// collect evaluates metric on every record and keeps the defined results.
func collect(records []*models.PeriodRecord, metric func(*models.PeriodRecord) *float64) []*float64 {
	var out []*float64
	for _, r := range records {
		if v := metric(r); v != nil {
			out = append(out, v)
		}
	}
	return out
}

func historicalEVEBIT(r *models.PeriodRecord) *float64 {
	return EVToEBIT(EnterpriseValue(r), r.OperatingIncome)
}

func revenue(r *models.PeriodRecord) *float64   { return r.Revenue }
func ebit(r *models.PeriodRecord) *float64      { return r.OperatingIncome }
func netIncome(r *models.PeriodRecord) *float64 { return r.NetIncome }
