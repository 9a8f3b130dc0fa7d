// Package metrics derives valuation and quality metrics from a company's
// ordered financial-statement observations: trailing-twelve-month aggregates,
// outlier-filtered multi-year averages, compound growth rates and per-period
// ratios.
//
// Nothing in this package returns an error for bad data. A missing operand,
// a non-positive denominator or too little history yields a nil metric.
package metrics
