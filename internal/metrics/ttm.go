package metrics

import (
	"time"

	"github.com/seenimoa/valuemetrics/pkg/models"
)

// Cadence is the sub-annual reporting pattern of a company.
type Cadence int

const (
	CadenceUnknown Cadence = iota
	CadenceQuarterly
	CadenceSemiannual
)

func (c Cadence) String() string {
	switch c {
	case CadenceQuarterly:
		return "quarterly"
	case CadenceSemiannual:
		return "semiannual"
	default:
		return ""
	}
}

// DefaultTTMWindowMonths is how far back from the latest sub-annual record the
// TTM aggregator looks. Longer than twelve months to tolerate reporting lag.
const DefaultTTMWindowMonths = 15

// semiannualLabels are the labels a semiannual reporter may use. Some vendors
// tag half-year periods as Q2/Q4.
var semiannualLabels = map[models.Period]bool{
	models.PeriodQ2: true,
	models.PeriodQ4: true,
	models.PeriodH1: true,
	models.PeriodH2: true,
}

// TTM is the trailing-twelve-month aggregate as of a reference date.
type TTM struct {
	Cadence   Cadence
	Periods   int // sub-annual periods summed; 0 when TTM is undefined
	NetIncome *float64
	EBIT      *float64
}

// TrailingTwelveMonths sums net income and EBIT over the most recent
// sub-annual periods ending on or before asOf. sorted must be ascending by
// date. A semiannual reporter contributes its last two periods, a quarterly
// one its last four. A field is only summed when every selected period
// reports it.
func TrailingTwelveMonths(sorted []models.PeriodRecord, asOf time.Time, windowMonths int) TTM {
	if windowMonths <= 0 {
		windowMonths = DefaultTTMWindowMonths
	}

	// Newest first.
	var recent []*models.PeriodRecord
	for i := len(sorted) - 1; i >= 0; i-- {
		r := &sorted[i]
		if r.Period.IsAnnual() || r.Date.After(asOf) {
			continue
		}
		recent = append(recent, r)
	}
	if len(recent) == 0 {
		return TTM{}
	}

	start := recent[0].Date.AddDate(0, -windowMonths, 0)
	var window []*models.PeriodRecord
	for _, r := range recent {
		if r.Date.Before(start) {
			break
		}
		window = append(window, r)
	}

	cadence, n := classifyCadence(window)
	if cadence == CadenceUnknown {
		return TTM{}
	}
	selected := window[:n]

	return TTM{
		Cadence:   cadence,
		Periods:   n,
		NetIncome: sumAll(selected, func(r *models.PeriodRecord) *float64 { return r.NetIncome }),
		EBIT:      sumAll(selected, func(r *models.PeriodRecord) *float64 { return r.OperatingIncome }),
	}
}

// classifyCadence inspects the labels present in window and returns the
// cadence plus how many of the newest periods make up twelve months.
func classifyCadence(window []*models.PeriodRecord) (Cadence, int) {
	semiannual := true
	for _, r := range window {
		if !semiannualLabels[r.Period] {
			semiannual = false
			break
		}
	}
	switch {
	case semiannual && len(window) >= 2:
		return CadenceSemiannual, 2
	case !semiannual && len(window) >= 4:
		return CadenceQuarterly, 4
	default:
		return CadenceUnknown, 0
	}
}

func sumAll(records []*models.PeriodRecord, field func(*models.PeriodRecord) *float64) *float64 {
	var sum float64
	for _, r := range records {
		v := field(r)
		if v == nil {
			return nil
		}
		sum += *v
	}
	return &sum
}
