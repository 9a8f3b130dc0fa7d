// Package utils provides formatting helpers for valuemetrics output.
package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Missing is printed in place of an absent value.
const Missing = "-"

// FormatOptional formats v with a fixed number of decimal places, or Missing
// when v is nil or not finite.
func FormatOptional(v *float64, places int32) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Missing
	}
	return decimal.NewFromFloat(*v).StringFixed(places)
}

// FormatPct formats an optional percentage with a suffix.
// e.g., 12.5 → "12.50%", nil → "-"
func FormatPct(pct *float64) string {
	s := FormatOptional(pct, 2)
	if s == Missing {
		return s
	}
	return s + "%"
}

// FormatAverage formats an average with its sample count.
// e.g., (14.2, 7) → "14.20 (7)", (nil, 0) → "- (0)", (nil, nil) → "-"
func FormatAverage(v *float64, count *int) string {
	s := FormatOptional(v, 2)
	if count == nil {
		return s
	}
	return fmt.Sprintf("%s (%d)", s, *count)
}

// FormatCompact formats a large amount in compact notation.
// e.g., 1927345 → "1.93 M", 192734500000 → "192.73 B"
func FormatCompact(amount *float64) string {
	if amount == nil || math.IsNaN(*amount) || math.IsInf(*amount, 0) {
		return Missing
	}
	v := *amount
	prefix := ""
	if v < 0 {
		prefix = "-"
		v = -v
	}

	switch {
	case v >= 1e12:
		return prefix + formatWithDecimals(v/1e12) + " T"
	case v >= 1e9:
		return prefix + formatWithDecimals(v/1e9) + " B"
	case v >= 1e6:
		return prefix + formatWithDecimals(v/1e6) + " M"
	case v >= 1e3:
		return prefix + formatWithDecimals(v/1e3) + " K"
	default:
		return prefix + decimal.NewFromFloat(v).StringFixed(2)
	}
}

// formatWithDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func formatWithDecimals(n float64) string {
	s := decimal.NewFromFloat(n).StringFixed(2)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
