package raice

import (
	"fmt"
	"math"
)

// ControlOutputs is the number of brain outputs a VehicleControl is built from,
// in order: steering, throttle, brake.
const ControlOutputs = 3

// VehicleControl is the actuation handed to the physics collaborator.
//
//   - Steering in [-1, 1], positive turns left
//   - Throttle in [0, 1]
//   - Brake in [0, 1]
type VehicleControl struct {
	Steering float64
	Throttle float64
	Brake    float64
}

// Clamped returns a copy with every field limited to its range.
// NaN becomes 0 (neutral), infinities become the nearest bound.
func (c VehicleControl) Clamped() VehicleControl {
	return VehicleControl{
		Steering: clampControl(c.Steering, -1, 1),
		Throttle: clampControl(c.Throttle, 0, 1),
		Brake:    clampControl(c.Brake, 0, 1),
	}
}

// ControlFromOutputs builds a clamped control from a brain output vector.
func ControlFromOutputs(outputs []float64) (VehicleControl, error) {
	if len(outputs) != ControlOutputs {
		return VehicleControl{}, fmt.Errorf("control requires %d outputs, got %d", ControlOutputs, len(outputs))
	}
	c := VehicleControl{Steering: outputs[0], Throttle: outputs[1], Brake: outputs[2]}
	return c.Clamped(), nil
}

func clampControl(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clamp(v, lo, hi)
}
