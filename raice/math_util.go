package raice

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// clamp restricts a value to a given range [minVal, maxVal].
func clamp(value, minVal, maxVal float64) float64 {
	return math.Max(minVal, math.Min(value, maxVal))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FitnessSummary describes the distribution of fitness values in one generation.
type FitnessSummary struct {
	Count  int
	Best   float64
	Worst  float64
	Mean   float64
	Stdev  float64
	Median float64
}

// Summarize computes summary statistics over the values of the given scores.
// Non-finite values are skipped; an empty input yields a zero summary.
func Summarize(scores []FitnessScore) FitnessSummary {
	values := make([]float64, 0, len(scores))
	for _, s := range scores {
		if v := s.Value(); isFinite(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return FitnessSummary{}
	}

	sort.Float64s(values)
	summary := FitnessSummary{
		Count:  len(values),
		Best:   floats.Max(values),
		Worst:  floats.Min(values),
		Mean:   stat.Mean(values, nil),
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
	}
	// Sample standard deviation is undefined for fewer than 2 values.
	if len(values) > 1 {
		summary.Stdev = stat.StdDev(values, nil)
	}
	return summary
}
