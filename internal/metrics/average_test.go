package metrics

import (
	"math"
	"testing"

	"github.com/seenimoa/valuemetrics/pkg/models"
)

func floats(vs ...float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = models.Float(v)
	}
	return out
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func assertAverage(t *testing.T, got models.Average, wantValue float64, wantCount int) {
	t.Helper()
	if got.Value == nil || got.Count == nil {
		t.Fatalf("expected (%.4f, %d), got nil result %+v", wantValue, wantCount, got)
	}
	if !approx(*got.Value, wantValue) {
		t.Errorf("value: got %.6f, want %.6f", *got.Value, wantValue)
	}
	if *got.Count != wantCount {
		t.Errorf("count: got %d, want %d", *got.Count, wantCount)
	}
}

func TestFilteredAverageNoSurvivors(t *testing.T) {
	inputs := [][]*float64{
		nil,
		{nil, nil},
		floats(0, -3, math.NaN(), math.Inf(1), math.Inf(-1)),
		floats(250, 300), // all above bound
	}
	for i, in := range inputs {
		got := FilteredAverage(in, FilterPolicy{Bound: 200})
		if got.Value != nil {
			t.Errorf("case %d: expected nil value, got %.2f", i, *got.Value)
		}
		if got.Count == nil || *got.Count != 0 {
			t.Errorf("case %d: expected count 0, got %v", i, got.Count)
		}
	}
}

func TestFilteredAverageSingleValueNotTrimmed(t *testing.T) {
	got := FilteredAverage(append(floats(-1, 0, 180), nil), FilterPolicy{Bound: 200})
	assertAverage(t, got, 180, 1)
}

func TestFilteredAverageZeroStdDevKeepsAll(t *testing.T) {
	assertAverage(t, FilteredAverage(floats(5, 5, 5), MarginPolicy()), 5, 3)
}

func TestFilteredAverageTrimsHighOutlier(t *testing.T) {
	// mean 19, σ 27 → upper bound 73, so 100 goes.
	vals := floats(10, 10, 10, 10, 10, 10, 10, 10, 10, 100)
	assertAverage(t, FilteredAverage(vals, FilterPolicy{Bound: 200}), 10, 9)
}

func TestFilteredAverageKeepsLowOutlier(t *testing.T) {
	vals := floats(50, 50, 50, 50, 50, 50, 50, 50, 50, 1)
	assertAverage(t, FilteredAverage(vals, FilterPolicy{Bound: 200}), 45.1, 10)
}

func TestFilteredAverageAppliesBound(t *testing.T) {
	got := FilteredAverage(floats(20, 30, 150), EVEBITPolicy(0))
	assertAverage(t, got, 25, 2)
}

func TestFilteredAverageMinimumSampleFloor(t *testing.T) {
	// 10-year window needs max(3, 5) = 5 valid years.
	four := floats(10, 12, 14, 16)
	got := FilteredAverage(four, PEPolicy(10))
	if got.Value != nil || got.Count != nil {
		t.Errorf("expected (nil, nil) below floor, got %+v", got)
	}

	five := floats(10, 12, 14, 16, 18)
	assertAverage(t, FilteredAverage(five, PEPolicy(10)), 14, 5)

	// Invalid values do not count towards the floor.
	padded := append(floats(10, 12, 14, 16, -5, 0), nil)
	if got := FilteredAverage(padded, PEPolicy(10)); got.Count != nil {
		t.Errorf("invalid samples should not satisfy the floor, got count %d", *got.Count)
	}
}

func TestFilteredAverageFloorCountsBeforeBound(t *testing.T) {
	// Three valid years meet the 5y floor; the bound then drops 250.
	got := FilteredAverage(floats(10, 20, 250), PEPolicy(5))
	assertAverage(t, got, 15, 2)
}

func TestMarginPolicyHasNoFloor(t *testing.T) {
	assertAverage(t, FilteredAverage(floats(12), MarginPolicy()), 12, 1)
	if MarginPolicy().MinSamples() != 0 {
		t.Error("margin policy should not have a floor")
	}
}

func TestMinSamples(t *testing.T) {
	tests := []struct {
		years, want int
	}{
		{0, 0},
		{3, 3},
		{5, 3},
		{10, 5},
		{15, 8},
		{20, 10},
	}
	for _, tt := range tests {
		if got := PEPolicy(tt.years).MinSamples(); got != tt.want {
			t.Errorf("MinSamples(%d): got %d, want %d", tt.years, got, tt.want)
		}
	}
}

func TestFilteredAverageSurvivorsWithinUpperBound(t *testing.T) {
	samples := [][]float64{
		{8, 9, 10, 11, 60},
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 199},
		{14, 15, 15, 16, 90, 95},
		{3, 3, 3, 40},
	}
	for _, s := range samples {
		mean, sd := meanStdDev(s)
		upper := mean + 2*sd
		var sum float64
		var n int
		for _, v := range s {
			if v <= upper {
				sum += v
				n++
			}
		}
		got := FilteredAverage(floats(s...), FilterPolicy{Bound: 200})
		assertAverage(t, got, sum/float64(n), n)
		if *got.Value > upper {
			t.Errorf("average %.4f exceeds upper bound %.4f", *got.Value, upper)
		}
	}
}

func TestMeanStdDev(t *testing.T) {
	mean, sd := meanStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 || sd != 2 {
		t.Errorf("expected mean=5 sd=2, got mean=%.4f sd=%.4f", mean, sd)
	}
	if m, s := meanStdDev(nil); m != 0 || s != 0 {
		t.Error("expected zeros for empty input")
	}
}
