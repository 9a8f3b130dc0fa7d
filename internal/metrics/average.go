package metrics

import (
	"math"

	"github.com/seenimoa/valuemetrics/pkg/models"
)

// FilterPolicy parameterizes FilteredAverage for one kind of metric.
type FilterPolicy struct {
	// Bound is the largest plausible value; anything above it is dropped.
	// Zero disables the bound.
	Bound float64
	// RequestedYears enables the minimum-sample floor when positive: the
	// average is only reported if at least max(3, ceil(RequestedYears/2))
	// valid samples exist.
	RequestedYears int
}

// Plausibility bounds per metric kind.
const (
	PEBound     = 200
	EVEBITBound = 100
	MarginBound = 100
)

// PEPolicy is the policy for an n-year P/E average.
func PEPolicy(years int) FilterPolicy {
	return FilterPolicy{Bound: PEBound, RequestedYears: years}
}

// EVEBITPolicy is the policy for an n-year EV/EBIT average.
func EVEBITPolicy(years int) FilterPolicy {
	return FilterPolicy{Bound: EVEBITBound, RequestedYears: years}
}

// MarginPolicy averages whatever margins are available; it has no floor.
func MarginPolicy() FilterPolicy {
	return FilterPolicy{Bound: MarginBound}
}

// MinSamples returns the minimum number of valid samples the policy requires,
// or 0 when it has no floor.
func (p FilterPolicy) MinSamples() int {
	if p.RequestedYears <= 0 {
		return 0
	}
	return max(3, int(math.Ceil(float64(p.RequestedYears)*0.5)))
}

// FilteredAverage returns the outlier-trimmed mean of values and the number of
// samples it was computed from.
//
// Absent, NaN, infinite and non-positive values are dropped, then values above
// the policy bound. If the policy has a floor and fewer valid values remain
// than it requires, both Value and Count are nil. Otherwise values above
// mean + 2σ (population σ) are trimmed; low values are never trimmed. A single
// surviving value is returned as is.
func FilteredAverage(values []*float64, p FilterPolicy) models.Average {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
			continue
		}
		valid = append(valid, *v)
	}

	if floor := p.MinSamples(); floor > 0 && len(valid) < floor {
		return models.Average{}
	}

	if p.Bound > 0 {
		bounded := valid[:0]
		for _, v := range valid {
			if v <= p.Bound {
				bounded = append(bounded, v)
			}
		}
		valid = bounded
	}

	switch len(valid) {
	case 0:
		return models.Average{Count: models.Int(0)}
	case 1:
		return models.Average{Value: models.Float(valid[0]), Count: models.Int(1)}
	}

	mean, sd := meanStdDev(valid)
	kept := valid
	if sd > 0 {
		upper := mean + 2*sd
		kept = make([]float64, 0, len(valid))
		for _, v := range valid {
			if v <= upper {
				kept = append(kept, v)
			}
		}
	}
	if len(kept) == 0 {
		return models.Average{Count: models.Int(0)}
	}

	avg, _ := meanStdDev(kept)
	return models.Average{Value: models.Float(avg), Count: models.Int(len(kept))}
}

// meanStdDev returns the mean and population standard deviation of xs.
func meanStdDev(xs []float64) (mean, sd float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}
