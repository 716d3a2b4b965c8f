package raice

import (
	"math"
)

// Stagnation tracks the population's best fitness across generations and
// reports when it has stopped improving.
type Stagnation struct {
	Config         *StagnationConfig
	FitnessHistory []float64 // Best fitness of each generation seen so far.
	LastImproved   int       // Last generation where fitness improved.
	BestFitness    float64
}

// NewStagnation creates a new stagnation tracker.
func NewStagnation(config *StagnationConfig) *Stagnation {
	return &Stagnation{
		Config:      config,
		BestFitness: math.Inf(-1),
	}
}

// Update records the best fitness of a generation and reports whether the
// population is stagnant: no improvement for MaxStagnation generations.
func (s *Stagnation) Update(best float64, generation int) bool {
	s.FitnessHistory = append(s.FitnessHistory, best)
	if isFinite(best) && best > s.BestFitness {
		s.BestFitness = best
		s.LastImproved = generation
	}
	return generation-s.LastImproved >= s.Config.MaxStagnation
}

// Reset forgets the improvement clock, typically after the population was re-seeded.
func (s *Stagnation) Reset(generation int) {
	s.LastImproved = generation
}
