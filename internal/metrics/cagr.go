package metrics

import "math"

// CAGR returns the compound annual growth rate in percent from start to end
// over years. Growth from or to a zero or negative base is undefined, so
// either value being absent or non-positive yields nil.
func CAGR(end, start *float64, years int) *float64 {
	if end == nil || start == nil || years <= 0 {
		return nil
	}
	if *start <= 0 || *end <= 0 {
		return nil
	}
	g := (math.Pow(*end / *start, 1/float64(years)) - 1) * 100
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return nil
	}
	return &g
}
