package metrics

import (
	"sort"

	"github.com/seenimoa/valuemetrics/pkg/models"
)

// Company is one partition of the input: all records of a company, sorted
// ascending by period end.
type Company struct {
	ID      string
	Records []models.PeriodRecord
}

// GroupByCompany partitions records by company identifier. Partitions are
// returned in identifier order and each one is sorted with SortRecords, so the
// result does not depend on input order.
func GroupByCompany(records []models.PeriodRecord) []Company {
	byID := make(map[string][]models.PeriodRecord)
	for _, r := range records {
		byID[r.CompanyID] = append(byID[r.CompanyID], r)
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	companies := make([]Company, 0, len(ids))
	for _, id := range ids {
		recs := byID[id]
		SortRecords(recs)
		companies = append(companies, Company{ID: id, Records: recs})
	}
	return companies
}

// SortRecords sorts records ascending by period end date. Records sharing a
// date are ordered by period label (sub-annual before FY), then by ticker.
func SortRecords(records []models.PeriodRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := &records[i], &records[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Period.Rank() != b.Period.Rank() {
			return a.Period.Rank() < b.Period.Rank()
		}
		return a.Ticker < b.Ticker
	})
}
