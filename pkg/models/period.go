// Package models defines the period records the engine reads and the derived
// metrics it produces.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Period is the reporting period label of an observation.
type Period string

const (
	PeriodFY Period = "FY"
	PeriodQ1 Period = "Q1"
	PeriodQ2 Period = "Q2"
	PeriodQ3 Period = "Q3"
	PeriodQ4 Period = "Q4"
	PeriodH1 Period = "H1"
	PeriodH2 Period = "H2"
)

// periodRank orders labels that share a period-end date so sorting is stable
// across runs. Sub-annual periods sort before the fiscal year they close.
var periodRank = map[Period]int{
	PeriodQ1: 1,
	PeriodQ2: 2,
	PeriodH1: 3,
	PeriodQ3: 4,
	PeriodQ4: 5,
	PeriodH2: 6,
	PeriodFY: 7,
}

// ParsePeriod normalizes a raw label ("fy", " q3 ") into a Period.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown period label %q", s)
	}
	return p, nil
}

// Valid reports whether p is one of the supported labels.
func (p Period) Valid() bool {
	_, ok := periodRank[p]
	return ok
}

// IsAnnual reports whether p covers a full fiscal year.
func (p Period) IsAnnual() bool { return p == PeriodFY }

// Rank returns the intra-date sort rank of p (0 for unknown labels).
func (p Period) Rank() int { return periodRank[p] }

// PeriodRecord is one financial-statement and price observation of a company.
// Every fundamental and market field is optional; nil means the provider did
// not report it.
type PeriodRecord struct {
	CompanyID   string    `json:"company_id"`  // ISIN; one company may trade under several tickers
	Ticker      string    `json:"ticker"`
	StockIndex  string    `json:"stock_index"` // sector / index grouping
	CompanyName string    `json:"company_name"`
	Date        time.Time `json:"date"` // period end
	Period      Period    `json:"period"`

	// Fundamentals
	Revenue          *float64 `json:"revenue"`
	OperatingIncome  *float64 `json:"operating_income"` // EBIT
	NetIncome        *float64 `json:"net_income"`
	EBITDA           *float64 `json:"ebitda"`
	EPS              *float64 `json:"eps"`
	TotalAssets      *float64 `json:"total_assets"`
	TotalEquity      *float64 `json:"total_equity"`
	NetDebt          *float64 `json:"net_debt"`
	MinorityInterest *float64 `json:"minority_interest"`

	// Market data
	Price     *float64 `json:"price"`
	MarketCap *float64 `json:"market_cap"`
}

// FiscalYear returns the year the record's period ends in.
func (r *PeriodRecord) FiscalYear() int { return r.Date.Year() }

// Float returns a pointer to v. It keeps literals of optional fields short.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
