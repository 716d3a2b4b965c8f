package raice

import (
	"fmt"
	"math"
)

// Population is one generation's full set of genomes.
//
// Genomes are ordered; a genome's index is the id of the agent that drives it
// for the whole generation. All genomes share the same topology.
type Population struct {
	Generation int       // Generation number, starting at 0.
	Genomes    []*Genome // Current generation of genomes.
}

// NewPopulation creates an empty population (generation 0, no genomes).
func NewPopulation() *Population {
	return &Population{}
}

// SeedPopulation creates a generation-0 population of size independent clones of template.
func SeedPopulation(size int, template *Genome) *Population {
	p := &Population{Genomes: make([]*Genome, 0, size)}
	for i := 0; i < size; i++ {
		p.Push(template.Copy())
	}
	return p
}

// Push appends a genome, preserving order.
func (p *Population) Push(g *Genome) {
	p.Genomes = append(p.Genomes, g)
}

// Len returns the number of genomes in the population.
func (p *Population) Len() int {
	return len(p.Genomes)
}

// IsEmpty reports whether the population holds no genomes.
func (p *Population) IsEmpty() bool {
	return len(p.Genomes) == 0
}

// Validate checks that every genome is valid for the given arity and that
// all genomes share one topology.
func (p *Population) Validate(inputs, outputs int) error {
	for i, g := range p.Genomes {
		if err := g.Validate(inputs, outputs); err != nil {
			return fmt.Errorf("population index %d: %w", i, err)
		}
		if i > 0 && !g.SameTopology(p.Genomes[0]) {
			return fmt.Errorf("population index %d: %w", i, ErrTopologyMismatch)
		}
	}
	return nil
}

// Best returns the index of the genome with the highest fitness value,
// or -1 when no score is finite.
func (p *Population) Best(scores []FitnessScore) int {
	best := -1
	maxFitness := math.Inf(-1)
	for i := range p.Genomes {
		if i >= len(scores) {
			break
		}
		if v := scores[i].Value(); isFinite(v) && (best < 0 || v > maxFitness) {
			maxFitness = v
			best = i
		}
	}
	return best
}
