package raice

import (
	"fmt"
)

// TimePenalty is the fitness cost of each unit of time an agent stays alive.
const TimePenalty = 0.1

// FitnessScore is the outcome of one genome over one completed episode.
//
// Distance is the distance travelled along the track and TimeAlive the time
// elapsed (seconds or ticks, as the episode loop defines it). Both are
// non-negative.
type FitnessScore struct {
	Distance  float64
	TimeAlive float64
}

// NewFitnessScore creates a new fitness score.
func NewFitnessScore(distance, timeAlive float64) FitnessScore {
	return FitnessScore{Distance: distance, TimeAlive: timeAlive}
}

// Value computes the final fitness: distance - 0.1 * time alive.
// The result is not clamped and may be negative.
func (s FitnessScore) Value() float64 {
	return s.Distance - TimePenalty*s.TimeAlive
}

// String returns a string representation of the FitnessScore.
func (s FitnessScore) String() string {
	return fmt.Sprintf("Fitness(distance: %.2f, time: %.2f, value: %.3f)", s.Distance, s.TimeAlive, s.Value())
}

// EpisodeAccumulator collects distance and time over the ticks of an episode.
// Both totals are non-decreasing: negative or non-finite deltas are rejected.
type EpisodeAccumulator struct {
	distance  float64
	timeAlive float64
	ticks     int
}

// Add records one tick worth of progress.
func (a *EpisodeAccumulator) Add(distance, elapsed float64) error {
	if !isFinite(distance) || distance < 0 {
		return fmt.Errorf("invalid distance delta %v: must be finite and non-negative", distance)
	}
	if !isFinite(elapsed) || elapsed < 0 {
		return fmt.Errorf("invalid time delta %v: must be finite and non-negative", elapsed)
	}
	a.distance += distance
	a.timeAlive += elapsed
	a.ticks++
	return nil
}

// Ticks returns the number of ticks recorded so far.
func (a *EpisodeAccumulator) Ticks() int {
	return a.ticks
}

// Score returns the fitness score for the totals accumulated so far.
func (a *EpisodeAccumulator) Score() FitnessScore {
	return NewFitnessScore(a.distance, a.timeAlive)
}

// Reset clears the accumulator for a new episode.
func (a *EpisodeAccumulator) Reset() {
	*a = EpisodeAccumulator{}
}
