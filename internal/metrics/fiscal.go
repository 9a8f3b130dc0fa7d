package metrics

import "github.com/seenimoa/valuemetrics/pkg/models"

// FiscalYearIndex maps a fiscal year to the company's FY record for that year.
// It is a sparse array indexed by year offset from the first FY year.
type FiscalYearIndex struct {
	first int
	years []*models.PeriodRecord
}

// NewFiscalYearIndex builds the index from a company's sorted records. When a
// year has more than one FY record the latest one wins.
func NewFiscalYearIndex(sorted []models.PeriodRecord) *FiscalYearIndex {
	idx := &FiscalYearIndex{}
	lo, hi := 0, -1
	for i := range sorted {
		if !sorted[i].Period.IsAnnual() {
			continue
		}
		y := sorted[i].FiscalYear()
		if hi < lo {
			lo, hi = y, y
			continue
		}
		lo, hi = min(lo, y), max(hi, y)
	}
	if hi < lo {
		return idx
	}

	idx.first = lo
	idx.years = make([]*models.PeriodRecord, hi-lo+1)
	for i := range sorted {
		if sorted[i].Period.IsAnnual() {
			idx.years[sorted[i].FiscalYear()-lo] = &sorted[i]
		}
	}
	return idx
}

// Get returns the FY record of year, if any.
func (idx *FiscalYearIndex) Get(year int) (*models.PeriodRecord, bool) {
	i := year - idx.first
	if i < 0 || i >= len(idx.years) || idx.years[i] == nil {
		return nil, false
	}
	return idx.years[i], true
}

// Range returns the FY records present for the inclusive span [from, to],
// in ascending year order.
func (idx *FiscalYearIndex) Range(from, to int) []*models.PeriodRecord {
	var out []*models.PeriodRecord
	for y := from; y <= to; y++ {
		if r, ok := idx.Get(y); ok {
			out = append(out, r)
		}
	}
	return out
}

// Trailing returns the FY records of the n years ending with year (inclusive).
func (idx *FiscalYearIndex) Trailing(year, n int) []*models.PeriodRecord {
	return idx.Range(year-n+1, year)
}

// Len returns the number of fiscal years present.
func (idx *FiscalYearIndex) Len() int {
	n := 0
	for _, r := range idx.years {
		if r != nil {
			n++
		}
	}
	return n
}
