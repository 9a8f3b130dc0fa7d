package store

import (
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/seenimoa/valuemetrics/pkg/models"
)

var periodColumns = []string{
	"company_id", "ticker", "stock_index", "company_name", "date", "period",
	"revenue", "operating_income", "net_income", "ebitda", "eps",
	"total_assets", "total_equity", "net_debt", "minority_interest",
	"price", "market_cap",
}

var derivedColumns = []string{
	"company_id", "ticker", "stock_index", "company_name", "date", "period", "cadence",
	"pe", "ev_ebit", "ebit", "ev",
	"ttm_net_income", "ttm_ebit", "ttm_pe", "ttm_ev_ebit",
	"pe_avg_5y", "pe_avg_5y_count", "pe_avg_10y", "pe_avg_10y_count",
	"pe_avg_15y", "pe_avg_15y_count", "pe_avg_20y", "pe_avg_20y_count",
	"ev_ebit_avg_5y", "ev_ebit_avg_5y_count", "ev_ebit_avg_10y", "ev_ebit_avg_10y_count",
	"ev_ebit_avg_15y", "ev_ebit_avg_15y_count", "ev_ebit_avg_20y", "ev_ebit_avg_20y_count",
	"revenue_cagr_3y", "revenue_cagr_5y", "revenue_cagr_10y",
	"ebit_cagr_3y", "ebit_cagr_5y", "ebit_cagr_10y",
	"net_income_cagr_3y", "net_income_cagr_5y", "net_income_cagr_10y",
	"equity_ratio", "net_debt_ebitda",
	"profit_margin", "operating_margin",
	"profit_margin_avg_3y", "profit_margin_avg_3y_count",
	"profit_margin_avg_5y", "profit_margin_avg_5y_count",
	"profit_margin_avg_10y", "profit_margin_avg_10y_count",
	"profit_margin_avg_fixed", "profit_margin_avg_fixed_count",
	"operating_margin_avg_3y", "operating_margin_avg_3y_count",
	"operating_margin_avg_5y", "operating_margin_avg_5y_count",
	"operating_margin_avg_10y", "operating_margin_avg_10y_count",
	"operating_margin_avg_fixed", "operating_margin_avg_fixed_count",
}

func companiesSQL(source pgx.Identifier) string {
	return "SELECT DISTINCT company_id FROM " + source.Sanitize() + " ORDER BY company_id"
}

// nullableText lists identity columns read as '' when NULL.
var nullableText = map[string]bool{"ticker": true, "stock_index": true, "company_name": true}

func selectPeriodsSQL(source pgx.Identifier) string {
	cols := make([]string, len(periodColumns))
	for i, c := range periodColumns {
		if nullableText[c] {
			c = "COALESCE(" + c + ", '')"
		}
		cols[i] = c
	}
	return "SELECT " + strings.Join(cols, ", ") +
		" FROM " + source.Sanitize() +
		" WHERE company_id = $1 ORDER BY date, period"
}

func deleteDerivedSQL(target pgx.Identifier) string {
	return "DELETE FROM " + target.Sanitize() + " WHERE company_id = $1"
}

// periodScanTargets matches periodColumns. The period label is scanned into
// label and parsed by the caller.
func periodScanTargets(r *models.PeriodRecord, label *string) []any {
	return []any{
		&r.CompanyID, &r.Ticker, &r.StockIndex, &r.CompanyName, &r.Date, label,
		&r.Revenue, &r.OperatingIncome, &r.NetIncome, &r.EBITDA, &r.EPS,
		&r.TotalAssets, &r.TotalEquity, &r.NetDebt, &r.MinorityInterest,
		&r.Price, &r.MarketCap,
	}
}

func periodValues(r *models.PeriodRecord) []any {
	return []any{
		r.CompanyID, r.Ticker, r.StockIndex, r.CompanyName, r.Date, string(r.Period),
		r.Revenue, r.OperatingIncome, r.NetIncome, r.EBITDA, r.EPS,
		r.TotalAssets, r.TotalEquity, r.NetDebt, r.MinorityInterest,
		r.Price, r.MarketCap,
	}
}

// derivedValues matches derivedColumns.
func derivedValues(m *models.DerivedMetrics) []any {
	var cadence *string
	if m.Cadence != "" {
		cadence = &m.Cadence
	}
	vals := []any{
		m.CompanyID, m.Ticker, m.StockIndex, m.CompanyName, m.Date, string(m.Period), cadence,
		m.PE, m.EVEBIT, m.EBIT, m.EV,
		m.TTMNetIncome, m.TTMEBIT, m.TTMPE, m.TTMEVEBIT,
	}
	vals = appendAverages(vals,
		m.PEAvg5Y, m.PEAvg10Y, m.PEAvg15Y, m.PEAvg20Y,
		m.EVEBITAvg5Y, m.EVEBITAvg10Y, m.EVEBITAvg15Y, m.EVEBITAvg20Y)
	vals = append(vals,
		m.RevenueCAGR3Y, m.RevenueCAGR5Y, m.RevenueCAGR10Y,
		m.EBITCAGR3Y, m.EBITCAGR5Y, m.EBITCAGR10Y,
		m.NetIncomeCAGR3Y, m.NetIncomeCAGR5Y, m.NetIncomeCAGR10Y,
		m.EquityRatio, m.NetDebtEBITDA,
		m.ProfitMargin, m.OperatingMargin,
	)
	return appendAverages(vals,
		m.ProfitMarginAvg3Y, m.ProfitMarginAvg5Y, m.ProfitMarginAvg10Y, m.ProfitMarginAvgFixed,
		m.OperatingMarginAvg3Y, m.OperatingMarginAvg5Y, m.OperatingMarginAvg10Y, m.OperatingMarginAvgFixed)
}

func appendAverages(vals []any, avgs ...models.Average) []any {
	for _, a := range avgs {
		vals = append(vals, a.Value, a.Count)
	}
	return vals
}

// columnType returns the DDL type of a period or derived column.
func columnType(col string) string {
	switch {
	case col == "company_id":
		return "TEXT NOT NULL"
	case col == "date":
		return "DATE NOT NULL"
	case col == "period":
		return "TEXT NOT NULL"
	case col == "cadence" || nullableText[col]:
		return "TEXT"
	case strings.HasSuffix(col, "_count"):
		return "INTEGER"
	default:
		return "DOUBLE PRECISION"
	}
}

func createTableSQL(table pgx.Identifier, cols []string, unique ...string) string {
	defs := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		defs = append(defs, c+" "+columnType(c))
	}
	if len(unique) > 0 {
		defs = append(defs, "UNIQUE ("+strings.Join(unique, ", ")+")")
	}
	return "CREATE TABLE IF NOT EXISTS " + table.Sanitize() + " (\n\t" + strings.Join(defs, ",\n\t") + "\n)"
}

// schemaSQL returns the statements that create both tables and the company
// index used by per-company reads and deletes.
func schemaSQL(source, target pgx.Identifier) []string {
	return []string{
		createTableSQL(source, periodColumns, "company_id", "date", "period"),
		createTableSQL(target, derivedColumns),
		"CREATE INDEX IF NOT EXISTS " + indexName(target) + " ON " + target.Sanitize() + " (company_id)",
	}
}

func indexName(table pgx.Identifier) string {
	return pgx.Identifier{table[len(table)-1] + "_company_idx"}.Sanitize()
}
