package nn

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/baldhumanity/raice/raice" // Import the parent raice package
)

var (
	// ErrInvalidBrain is returned when a brain cannot be constructed.
	ErrInvalidBrain = errors.New("invalid brain")
	// ErrInputSize is returned when an input vector does not match the brain's input count.
	ErrInputSize = errors.New("input size mismatch")
)

// Brain is a stateless feed-forward evaluator of fixed arity.
//
// It does not own a genome: the genome is passed on every call and supplies
// both the hidden topology and the weights. Every layer applies a bounded
// activation, so outputs always lie in the interval of the corresponding
// output activation. A Brain is safe for concurrent use.
type Brain struct {
	inputs  int
	outputs int
	hidden  raice.Activation
	output  []raice.Activation
}

// Option configures a Brain.
type Option func(*Brain) error

// WithHiddenActivation sets the activation applied to every hidden layer.
func WithHiddenActivation(name string) Option {
	return func(b *Brain) error {
		act, err := boundedActivation(name)
		if err != nil {
			return err
		}
		b.hidden = act
		return nil
	}
}

// WithOutputActivations sets one activation per output neuron.
func WithOutputActivations(names ...string) Option {
	return func(b *Brain) error {
		if len(names) != b.outputs {
			return fmt.Errorf("%w: %d output activations for %d outputs", ErrInvalidBrain, len(names), b.outputs)
		}
		acts := make([]raice.Activation, len(names))
		for i, name := range names {
			act, err := boundedActivation(name)
			if err != nil {
				return err
			}
			acts[i] = act
		}
		b.output = acts
		return nil
	}
}

// NewBrain creates a brain with the given arity. Hidden layers and outputs
// default to tanh.
func NewBrain(inputs, outputs int, opts ...Option) (*Brain, error) {
	if inputs <= 0 {
		return nil, fmt.Errorf("%w: input count must be > 0, got %d", ErrInvalidBrain, inputs)
	}
	if outputs <= 0 {
		return nil, fmt.Errorf("%w: output count must be > 0, got %d", ErrInvalidBrain, outputs)
	}

	tanh := raice.ActivationFunctions["tanh"]
	b := &Brain{
		inputs:  inputs,
		outputs: outputs,
		hidden:  tanh,
		output:  make([]raice.Activation, outputs),
	}
	for i := range b.output {
		b.output[i] = tanh
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// NewControlBrain creates a brain whose outputs drive a VehicleControl:
// steering through tanh in (-1, 1), throttle and brake through the logistic
// sigmoid in (0, 1).
func NewControlBrain(inputs int, opts ...Option) (*Brain, error) {
	opts = append([]Option{WithOutputActivations("tanh", "sigmoid", "sigmoid")}, opts...)
	b, err := NewBrain(inputs, raice.ControlOutputs, opts...)
	if err != nil {
		return nil, err
	}
	ranges := [raice.ControlOutputs][2]float64{{-1, 1}, {0, 1}, {0, 1}}
	for i, act := range b.output {
		if !act.Within(ranges[i][0], ranges[i][1]) {
			return nil, fmt.Errorf("%w: output %d activation '%s' exceeds control range %v", ErrInvalidBrain, i, act.Name, ranges[i])
		}
	}
	return b, nil
}

func boundedActivation(name string) (raice.Activation, error) {
	act, err := raice.GetActivation(name)
	if err != nil {
		return raice.Activation{}, fmt.Errorf("%w: %v", ErrInvalidBrain, err)
	}
	if !act.Bounded() {
		return raice.Activation{}, fmt.Errorf("%w: activation '%s' is unbounded", ErrInvalidBrain, name)
	}
	return act, nil
}

// Inputs returns the number of inputs the brain accepts.
func (b *Brain) Inputs() int { return b.inputs }

// Outputs returns the number of outputs the brain produces.
func (b *Brain) Outputs() int { return b.outputs }

// Evaluate runs the network encoded by genome on one input vector.
//
// The genome is validated first; a weight count that does not match
// (inputs, genome.HiddenLayers, outputs) fails with raice.ErrInvalidGenome.
// Each layer consumes in*out row-major weights followed by out biases and
// computes activation(bias[j] + sum_i w[j][i] * x[i]).
func (b *Brain) Evaluate(genome *raice.Genome, inputs []float64) ([]float64, error) {
	if err := genome.Validate(b.inputs, b.outputs); err != nil {
		return nil, err
	}
	if len(inputs) != b.inputs {
		return nil, fmt.Errorf("%w: got %d inputs, brain expects %d", ErrInputSize, len(inputs), b.inputs)
	}

	sizes := raice.LayerSizes(b.inputs, genome.HiddenLayers, b.outputs)
	x := mat.NewVecDense(len(inputs), append([]float64(nil), inputs...))
	offset := 0

	for k := 1; k < len(sizes); k++ {
		in, out := sizes[k-1], sizes[k]
		// The matrix and bias views alias the genome's weights and are only read.
		weights := mat.NewDense(out, in, genome.Weights[offset:offset+in*out])
		offset += in * out
		bias := mat.NewVecDense(out, genome.Weights[offset:offset+out])
		offset += out

		y := mat.NewVecDense(out, nil)
		y.MulVec(weights, x)
		y.AddVec(y, bias)

		last := k == len(sizes)-1
		for j := 0; j < out; j++ {
			act := b.hidden
			if last {
				act = b.output[j]
			}
			y.SetVec(j, act.Fn(y.AtVec(j)))
		}
		x = y
	}

	return append([]float64(nil), x.RawVector().Data...), nil
}

// EvaluateReadings maps one tick of sensor readings to the brain's input
// vector and evaluates it. Readings of the wrong shape are rejected.
func (b *Brain) EvaluateReadings(genome *raice.Genome, readings raice.SensorReadings, cfg raice.SensorConfig) ([]float64, error) {
	if cfg.Inputs() != b.inputs {
		return nil, fmt.Errorf("%w: sensor layout yields %d inputs, brain expects %d", ErrInputSize, cfg.Inputs(), b.inputs)
	}
	in, err := readings.InputVector(cfg)
	if err != nil {
		return nil, err
	}
	return b.Evaluate(genome, in)
}

// Control evaluates the readings and converts the outputs into a clamped VehicleControl.
func (b *Brain) Control(genome *raice.Genome, readings raice.SensorReadings, cfg raice.SensorConfig) (raice.VehicleControl, error) {
	out, err := b.EvaluateReadings(genome, readings, cfg)
	if err != nil {
		return raice.VehicleControl{}, err
	}
	return raice.ControlFromOutputs(out)
}
