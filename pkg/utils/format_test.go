package utils

import (
	"math"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestFormatOptional(t *testing.T) {
	tests := []struct {
		input    *float64
		places   int32
		expected string
	}{
		{nil, 2, "-"},
		{ptr(math.NaN()), 2, "-"},
		{ptr(math.Inf(1)), 2, "-"},
		{ptr(0), 2, "0.00"},
		{ptr(14.8698), 2, "14.87"},
		{ptr(-3.14159), 3, "-3.142"},
		{ptr(15), 0, "15"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatOptional(tt.input, tt.places)
			if result != tt.expected {
				t.Errorf("FormatOptional = %s, want %s", result, tt.expected)
			}
		})
	}
}

func TestFormatPct(t *testing.T) {
	if got := FormatPct(ptr(12.5)); got != "12.50%" {
		t.Errorf("FormatPct(12.5) = %s, want 12.50%%", got)
	}
	if got := FormatPct(nil); got != "-" {
		t.Errorf("FormatPct(nil) = %s, want -", got)
	}
}

func TestFormatAverage(t *testing.T) {
	seven, zero := 7, 0
	tests := []struct {
		value    *float64
		count    *int
		expected string
	}{
		{ptr(14.2), &seven, "14.20 (7)"},
		{nil, &zero, "- (0)"},
		{nil, nil, "-"},
	}
	for _, tt := range tests {
		if got := FormatAverage(tt.value, tt.count); got != tt.expected {
			t.Errorf("FormatAverage = %s, want %s", got, tt.expected)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		input    *float64
		expected string
	}{
		{nil, "-"},
		{ptr(500), "500.00"},
		{ptr(1500), "1.5 K"},
		{ptr(1927345), "1.93 M"},
		{ptr(192734500000), "192.73 B"},
		{ptr(2e12), "2 T"},
		{ptr(-2500000), "-2.5 M"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatCompact(tt.input); got != tt.expected {
				t.Errorf("FormatCompact = %s, want %s", got, tt.expected)
			}
		})
	}
}
