package raice

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// ScoredGenome pairs a genome with its fitness value for ranking and selection.
type ScoredGenome struct {
	Genome  *Genome
	Fitness float64
}

// Reproduction handles the creation of new genomes, either from scratch or through crossover and mutation.
type Reproduction struct {
	Config        *ReproductionConfig
	GenomeConfig  *GenomeConfig
	NextGenomeKey int           // State for the next genome key
	Ancestors     map[int][]int // Map genome key -> parent keys (for tracking lineage)

	rng *rand.Rand
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(config *ReproductionConfig, genomeConfig *GenomeConfig, rng *rand.Rand) *Reproduction {
	return &Reproduction{
		Config:        config,
		GenomeConfig:  genomeConfig,
		NextGenomeKey: 1, // Start genome keys at 1
		Ancestors:     make(map[int][]int),
		rng:           rng,
	}
}

// getNextKey gets the next available genome key and increments the internal counter.
func (r *Reproduction) getNextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// reserveKeys moves the key counter past every key already in use.
func (r *Reproduction) reserveKeys(p *Population) {
	for _, g := range p.Genomes {
		if g.Key >= r.NextGenomeKey {
			r.NextGenomeKey = g.Key + 1
		}
	}
}

// CreateNewPopulation creates a generation-0 population of randomly initialised genomes.
func (r *Reproduction) CreateNewPopulation(popSize int) *Population {
	p := &Population{Genomes: make([]*Genome, 0, popSize)}
	for i := 0; i < popSize; i++ {
		key := r.getNextKey()
		p.Push(NewRandomGenome(key, r.GenomeConfig, r.rng))
		r.Ancestors[key] = []int{} // No parents for initial population
	}
	return p
}

// SeedPopulation creates a generation-0 population of clones of template,
// each with its own key.
func (r *Reproduction) SeedPopulation(popSize int, template *Genome) (*Population, error) {
	if err := template.Validate(r.GenomeConfig.NumInputs, r.GenomeConfig.NumOutputs); err != nil {
		return nil, fmt.Errorf("invalid seed template: %w", err)
	}
	p := SeedPopulation(popSize, template)
	for _, g := range p.Genomes {
		g.Key = r.getNextKey()
		r.Ancestors[g.Key] = []int{template.Key}
	}
	return p, nil
}

// Reproduce creates the next generation with the same size as the current one.
func (r *Reproduction) Reproduce(pop *Population, scores []FitnessScore) (*Population, error) {
	return r.ReproduceTo(pop, scores, pop.Len())
}

// ReproduceTo creates the next generation with popSize genomes.
//
// Genomes are ranked by fitness value, the top Elitism genomes are carried
// over as unchanged copies and the rest are children of parents drawn from the top
// SurvivalThreshold fraction. The generation counter advances by exactly one.
func (r *Reproduction) ReproduceTo(pop *Population, scores []FitnessScore, popSize int) (*Population, error) {
	if len(scores) != pop.Len() {
		return nil, fmt.Errorf("got %d fitness scores for %d genomes", len(scores), pop.Len())
	}
	if popSize < 0 {
		return nil, fmt.Errorf("invalid target population size %d", popSize)
	}
	if err := pop.Validate(r.GenomeConfig.NumInputs, r.GenomeConfig.NumOutputs); err != nil {
		return nil, err
	}

	next := &Population{
		Generation: pop.Generation + 1,
		Genomes:    make([]*Genome, 0, popSize),
	}
	if popSize == 0 {
		r.Ancestors = make(map[int][]int)
		return next, nil
	}
	if pop.IsEmpty() {
		return nil, errors.New("cannot reproduce from an empty population")
	}
	r.reserveKeys(pop)

	ranked := rank(pop, scores)
	newAncestors := make(map[int][]int, popSize)

	// Transfer elites.
	for j := 0; j < r.Config.Elitism && j < len(ranked) && next.Len() < popSize; j++ {
		elite := ranked[j].Genome.Copy()
		next.Push(elite)
		newAncestors[elite.Key] = []int{elite.Key}
	}

	// Determine parents for remaining spawn.
	survivalCutoff := int(math.Ceil(r.Config.SurvivalThreshold * float64(len(ranked))))
	survivalCutoff = max(survivalCutoff, 2) // Need at least two parents
	survivalCutoff = min(survivalCutoff, len(ranked))
	parents := ranked[:survivalCutoff]

	for next.Len() < popSize {
		parent1 := r.selectParent(parents)
		parent2 := r.selectParent(parents)

		childKey := r.getNextKey()
		var child *Genome
		if r.rng.Float64() < r.Config.CrossoverRate {
			crossed, err := Crossover(childKey, parent1.Genome, parent2.Genome, r.GenomeConfig, r.Config.CrossoverType, r.rng)
			if err != nil {
				return nil, fmt.Errorf("reproduction failed in generation %d: %w", pop.Generation, err)
			}
			child = crossed.Mutate(childKey, r.GenomeConfig, r.rng)
			newAncestors[childKey] = []int{parent1.Genome.Key, parent2.Genome.Key}
		} else {
			child = parent1.Genome.Mutate(childKey, r.GenomeConfig, r.rng)
			newAncestors[childKey] = []int{parent1.Genome.Key}
		}
		next.Push(child)
	}
	r.Ancestors = newAncestors

	return next, nil
}

// rank orders genomes by fitness value, best first. Non-finite values rank last
// and ties keep population order.
func rank(pop *Population, scores []FitnessScore) []ScoredGenome {
	ranked := make([]ScoredGenome, pop.Len())
	for i, g := range pop.Genomes {
		v := scores[i].Value()
		if !isFinite(v) {
			v = math.Inf(-1)
		}
		ranked[i] = ScoredGenome{Genome: g, Fitness: v}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	return ranked
}

// selectParent picks one parent according to the configured selection policy.
func (r *Reproduction) selectParent(parents []ScoredGenome) ScoredGenome {
	switch strings.ToLower(r.Config.Selection) {
	case "tournament":
		size := max(r.Config.TournamentSize, 1)
		best := parents[r.rng.Intn(len(parents))]
		for i := 1; i < size; i++ {
			candidate := parents[r.rng.Intn(len(parents))]
			if candidate.Fitness > best.Fitness {
				best = candidate
			}
		}
		return best
	case "roulette":
		return r.rouletteSelect(parents)
	default:
		return parents[r.rng.Intn(len(parents))]
	}
}

// rouletteSelect samples proportionally to fitness shifted so the weakest
// finite parent still has a small chance.
func (r *Reproduction) rouletteSelect(parents []ScoredGenome) ScoredGenome {
	minFitness := math.Inf(1)
	for _, p := range parents {
		if isFinite(p.Fitness) && p.Fitness < minFitness {
			minFitness = p.Fitness
		}
	}
	if math.IsInf(minFitness, 1) {
		return parents[r.rng.Intn(len(parents))]
	}

	const floor = 1e-6
	weights := make([]float64, len(parents))
	total := 0.0
	for i, p := range parents {
		if isFinite(p.Fitness) {
			weights[i] = p.Fitness - minFitness + floor
		}
		total += weights[i]
	}

	pick := r.rng.Float64() * total
	for i, w := range weights {
		if pick < w {
			return parents[i]
		}
		pick -= w
	}
	return parents[len(parents)-1]
}
