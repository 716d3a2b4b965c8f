package raice

import (
	"fmt"
	"math"
	"sort"
)

// ActivationType defines the type for activation functions.
type ActivationType func(input float64) float64

// Activation pairs an activation function with the interval its outputs lie in.
// Min and Max are infinite for unbounded functions.
type Activation struct {
	Name string
	Fn   ActivationType
	Min  float64
	Max  float64
}

// Bounded reports whether every output of the function lies in a finite interval.
func (a Activation) Bounded() bool {
	return !math.IsInf(a.Min, 0) && !math.IsInf(a.Max, 0)
}

// Within reports whether the activation's output interval fits inside [lo, hi].
func (a Activation) Within(lo, hi float64) bool {
	return a.Min >= lo && a.Max <= hi
}

// ActivationFunctions maps function names to activations.
// This allows configuration to specify activations by name.
var ActivationFunctions = map[string]Activation{
	"sigmoid":       {Name: "sigmoid", Fn: Sigmoid, Min: 0, Max: 1},
	"steep_sigmoid": {Name: "steep_sigmoid", Fn: SteepSigmoid, Min: 0, Max: 1},
	"tanh":          {Name: "tanh", Fn: Tanh, Min: -1, Max: 1},
	"softsign":      {Name: "softsign", Fn: Softsign, Min: -1, Max: 1},
	"clamped":       {Name: "clamped", Fn: Clamped, Min: -1, Max: 1},
	"gaussian":      {Name: "gaussian", Fn: Gaussian, Min: 0, Max: 1},
	"sine":          {Name: "sine", Fn: Sine, Min: -1, Max: 1},
	"identity":      {Name: "identity", Fn: Identity, Min: math.Inf(-1), Max: math.Inf(1)},
	"relu":          {Name: "relu", Fn: ReLU, Min: 0, Max: math.Inf(1)},
}

// GetActivation retrieves an activation by name.
func GetActivation(name string) (Activation, error) {
	if a, ok := ActivationFunctions[name]; ok {
		return a, nil
	}
	return Activation{}, fmt.Errorf("unknown activation function: %s", name)
}

// BoundedActivationNames lists the registered activations usable inside a brain.
func BoundedActivationNames() []string {
	names := make([]string, 0, len(ActivationFunctions))
	for name, a := range ActivationFunctions {
		if a.Bounded() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Sigmoid is the logistic function 1 / (1 + e^-x).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// SteepSigmoid is the logistic function with the classic NEAT steepness of 4.9.
func SteepSigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-4.9*x))
}

// Tanh activation function.
func Tanh(x float64) float64 {
	return math.Tanh(x)
}

// Softsign activation function x / (1 + |x|).
func Softsign(x float64) float64 {
	return x / (1.0 + math.Abs(x))
}

// Clamped activation function (clamps output between -1 and 1).
func Clamped(x float64) float64 {
	return clamp(x, -1.0, 1.0)
}

// Gaussian activation function.
func Gaussian(x float64) float64 {
	return math.Exp(-x * x / 2.0)
}

// Sine activation function.
func Sine(x float64) float64 {
	return math.Sin(x)
}

// Identity activation function (linear).
func Identity(x float64) float64 {
	return x
}

// ReLU (Rectified Linear Unit) activation function.
func ReLU(x float64) float64 {
	return math.Max(0, x)
}
