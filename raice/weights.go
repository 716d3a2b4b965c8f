package raice

import (
	"math"
	"math/rand"
	"strings"
)

// --------------------------- Weight Helpers ---------------------------
// Initialisation and mutation of single weights, driven by GenomeConfig.

func initWeight(rng *rand.Rand, config *GenomeConfig) float64 {
	mean, stdev := config.WeightInitMean, config.WeightInitStdev
	minVal, maxVal := config.WeightMinValue, config.WeightMaxValue

	var val float64
	switch strings.ToLower(config.WeightInitType) {
	case "uniform":
		// Estimate uniform range from mean/stdev assuming approx 2 std devs covers most range
		rangeMin := math.Max(minVal, mean-(2*stdev))
		rangeMax := math.Min(maxVal, mean+(2*stdev))
		if rangeMax < rangeMin {
			rangeMax = rangeMin
		}
		val = rng.Float64()*(rangeMax-rangeMin) + rangeMin
	default: // gaussian, normal
		val = rng.NormFloat64()*stdev + mean
	}
	return clamp(val, minVal, maxVal)
}

// mutateWeight perturbs a weight by a gaussian delta bounded to
// +/- WeightMutateMaxDelta, or replaces it with a fresh value.
func mutateWeight(rng *rand.Rand, value float64, config *GenomeConfig) float64 {
	r := rng.Float64()
	if r < config.WeightMutateRate {
		delta := rng.NormFloat64() * config.WeightMutatePower
		delta = clamp(delta, -config.WeightMutateMaxDelta, config.WeightMutateMaxDelta)
		return clamp(value+delta, config.WeightMinValue, config.WeightMaxValue)
	}
	if r < config.WeightMutateRate+config.WeightReplaceRate {
		return initWeight(rng, config)
	}
	return value
}
