package raice

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strings"
)

var (
	// ErrInvalidGenome is returned when a genome's weights do not match its topology.
	ErrInvalidGenome = errors.New("invalid genome")
	// ErrTopologyMismatch is returned when two genomes of different topology are combined.
	ErrTopologyMismatch = fmt.Errorf("%w: topology mismatch", ErrInvalidGenome)
)

// Genome represents one individual's controller: a layered topology plus a
// flat weight vector.
//
// Weights are laid out layer by layer (hidden layers in order, then the output
// layer). Each layer stores its out*in connection weights row-major, so
// weight[j][i] is the contribution of input i to neuron j, followed by its out
// biases. A genome is never modified once it has been placed in a population;
// Mutate and Crossover return new genomes.
type Genome struct {
	Key          int       // Unique identifier for this genome.
	HiddenLayers []int     // Neuron count of each hidden layer.
	Weights      []float64 // Flattened weights and biases.
}

// NewGenome creates a genome with the given hidden topology and no weights.
func NewGenome(key int, hiddenLayers []int) *Genome {
	return &Genome{
		Key:          key,
		HiddenLayers: slices.Clone(hiddenLayers),
	}
}

// NewRandomGenome creates a genome with the configured topology and freshly
// initialised weights.
func NewRandomGenome(key int, config *GenomeConfig, rng *rand.Rand) *Genome {
	g := NewGenome(key, config.HiddenLayers)
	n := ExpectedWeightCount(config.NumInputs, config.HiddenLayers, config.NumOutputs)
	g.Weights = make([]float64, n)
	for i := range g.Weights {
		g.Weights[i] = initWeight(rng, config)
	}
	return g
}

// LayerSizes returns the size of every layer including input and output.
func LayerSizes(inputs int, hiddenLayers []int, outputs int) []int {
	sizes := make([]int, 0, len(hiddenLayers)+2)
	sizes = append(sizes, inputs)
	sizes = append(sizes, hiddenLayers...)
	return append(sizes, outputs)
}

// ExpectedWeightCount returns the number of weights (biases included) a
// network with the given shape needs.
func ExpectedWeightCount(inputs int, hiddenLayers []int, outputs int) int {
	sizes := LayerSizes(inputs, hiddenLayers, outputs)
	total := 0
	for k := 1; k < len(sizes); k++ {
		total += sizes[k-1]*sizes[k] + sizes[k]
	}
	return total
}

// Validate checks that the genome can drive a network of the given arity.
func (g *Genome) Validate(inputs, outputs int) error {
	if g == nil {
		return fmt.Errorf("%w: nil genome", ErrInvalidGenome)
	}
	for i, n := range g.HiddenLayers {
		if n <= 0 {
			return fmt.Errorf("%w: genome %d hidden layer %d has size %d", ErrInvalidGenome, g.Key, i, n)
		}
	}
	expected := ExpectedWeightCount(inputs, g.HiddenLayers, outputs)
	if len(g.Weights) != expected {
		return fmt.Errorf("%w: genome %d has %d weights, topology %d-%v-%d needs %d",
			ErrInvalidGenome, g.Key, len(g.Weights), inputs, g.HiddenLayers, outputs, expected)
	}
	return nil
}

// SameTopology reports whether both genomes have identical hidden layers and weight counts.
func (g *Genome) SameTopology(other *Genome) bool {
	if g == nil || other == nil {
		return false
	}
	return slices.Equal(g.HiddenLayers, other.HiddenLayers) && len(g.Weights) == len(other.Weights)
}

// Copy creates a deep copy of the Genome.
func (g *Genome) Copy() *Genome {
	return &Genome{
		Key:          g.Key,
		HiddenLayers: slices.Clone(g.HiddenLayers),
		Weights:      slices.Clone(g.Weights),
	}
}

// String returns a string representation of the Genome.
func (g *Genome) String() string {
	layers := make([]string, len(g.HiddenLayers))
	for i, n := range g.HiddenLayers {
		layers[i] = fmt.Sprint(n)
	}
	return fmt.Sprintf("Genome(Key: %d, Hidden: [%s], Weights: %d)", g.Key, strings.Join(layers, " "), len(g.Weights))
}

// Distance returns the mean absolute weight difference between two genomes.
func (g *Genome) Distance(other *Genome) (float64, error) {
	if !g.SameTopology(other) {
		return 0, ErrTopologyMismatch
	}
	if len(g.Weights) == 0 {
		return 0, nil
	}
	sum := 0.0
	for i, w := range g.Weights {
		sum += math.Abs(w - other.Weights[i])
	}
	return sum / float64(len(g.Weights)), nil
}

// Mutate returns a child with the given key whose weights are perturbed per the config.
func (g *Genome) Mutate(key int, config *GenomeConfig, rng *rand.Rand) *Genome {
	child := g.Copy()
	child.Key = key
	for i, w := range child.Weights {
		child.Weights[i] = mutateWeight(rng, w, config)
	}
	return child
}

// Crossover creates a child from two parents of identical topology.
//
// Crossover types:
//   - neuron: each neuron's incoming weights and bias come from one parent
//   - uniform: each weight comes from either parent with equal probability
//   - point: weights before a random cut come from parent1, the rest from parent2
func Crossover(key int, parent1, parent2 *Genome, config *GenomeConfig, crossoverType string, rng *rand.Rand) (*Genome, error) {
	if !parent1.SameTopology(parent2) {
		return nil, fmt.Errorf("cannot cross genome %d with genome %d: %w", parent1.Key, parent2.Key, ErrTopologyMismatch)
	}
	if err := parent1.Validate(config.NumInputs, config.NumOutputs); err != nil {
		return nil, err
	}

	child := parent1.Copy()
	child.Key = key
	n := len(child.Weights)

	switch strings.ToLower(crossoverType) {
	case "uniform":
		for i := range child.Weights {
			if rng.Float64() < 0.5 {
				child.Weights[i] = parent2.Weights[i]
			}
		}
	case "point":
		if n > 1 {
			cut := 1 + rng.Intn(n-1)
			copy(child.Weights[cut:], parent2.Weights[cut:])
		}
	case "neuron", "":
		sizes := LayerSizes(config.NumInputs, child.HiddenLayers, config.NumOutputs)
		offset := 0
		for k := 1; k < len(sizes); k++ {
			in, out := sizes[k-1], sizes[k]
			biasOffset := offset + in*out
			for j := 0; j < out; j++ {
				if rng.Float64() < 0.5 {
					row := offset + j*in
					copy(child.Weights[row:row+in], parent2.Weights[row:row+in])
					child.Weights[biasOffset+j] = parent2.Weights[biasOffset+j]
				}
			}
			offset = biasOffset + out
		}
	default:
		return nil, fmt.Errorf("unknown crossover type: %s", crossoverType)
	}
	return child, nil
}
