package metrics

import "github.com/seenimoa/valuemetrics/pkg/models"

// EnterpriseValue = market cap + net debt + minority interest. Net debt and
// minority interest count as zero when absent; market cap is required.
func EnterpriseValue(r *models.PeriodRecord) *float64 {
	if r.MarketCap == nil {
		return nil
	}
	ev := *r.MarketCap
	if r.NetDebt != nil {
		ev += *r.NetDebt
	}
	if r.MinorityInterest != nil {
		ev += *r.MinorityInterest
	}
	return &ev
}

// PriceEarnings is price / EPS when EPS is positive, falling back to
// market cap / net income when net income is positive.
func PriceEarnings(r *models.PeriodRecord) *float64 {
	if nonZero(r.Price) && positive(r.EPS) {
		return quotient(r.Price, r.EPS)
	}
	if nonZero(r.MarketCap) && positive(r.NetIncome) {
		return quotient(r.MarketCap, r.NetIncome)
	}
	return nil
}

// EVToEBIT is ev / ebit, defined only for positive EBIT.
func EVToEBIT(ev, ebit *float64) *float64 {
	if ev == nil || !positive(ebit) {
		return nil
	}
	return quotient(ev, ebit)
}

// TTMPriceEarnings is market cap / TTM net income.
func TTMPriceEarnings(marketCap, ttmNetIncome *float64) *float64 {
	if !nonZero(marketCap) || !positive(ttmNetIncome) {
		return nil
	}
	return quotient(marketCap, ttmNetIncome)
}

// EquityRatio is total equity as a percentage of total assets.
func EquityRatio(r *models.PeriodRecord) *float64 {
	return percent(r.TotalEquity, r.TotalAssets)
}

// NetDebtToEBITDA is net debt / EBITDA, defined only for positive EBITDA.
func NetDebtToEBITDA(r *models.PeriodRecord) *float64 {
	if r.NetDebt == nil || !positive(r.EBITDA) {
		return nil
	}
	return quotient(r.NetDebt, r.EBITDA)
}

// ProfitMargin is net income as a percentage of revenue.
func ProfitMargin(r *models.PeriodRecord) *float64 {
	return percent(r.NetIncome, r.Revenue)
}

// OperatingMargin is EBIT as a percentage of revenue.
func OperatingMargin(r *models.PeriodRecord) *float64 {
	return percent(r.OperatingIncome, r.Revenue)
}

// --- helpers ---

func positive(v *float64) bool { return v != nil && *v > 0 }

func nonZero(v *float64) bool { return v != nil && *v != 0 }

// quotient assumes den has already been checked.
func quotient(num, den *float64) *float64 {
	q := *num / *den
	return &q
}

// percent is num / den * 100 for a positive den.
func percent(num, den *float64) *float64 {
	if num == nil || !positive(den) {
		return nil
	}
	p := *num / *den * 100
	return &p
}
