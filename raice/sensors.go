package raice

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSensorShape is returned when a reading does not have the configured ray count.
	ErrSensorShape = errors.New("sensor shape mismatch")
	// ErrInvalidReadings is returned when a reading holds non-finite or out-of-range values.
	ErrInvalidReadings = errors.New("invalid sensor readings")
)

// ExtraInputs is the number of brain inputs beyond the ray distances: speed and track offset.
const ExtraInputs = 2

// SensorConfig describes the ray-cast sensors mounted on every vehicle.
//
// Rays are spread evenly over Spread radians centred on the vehicle heading.
// A ray that hits nothing within RayLength reports RayLength; a distance of 0
// means the obstacle touches the vehicle.
type SensorConfig struct {
	RayCount  int     `ini:"ray_count" yaml:"ray_count"`
	RayLength float64 `ini:"ray_length" yaml:"ray_length"`
	MaxSpeed  float64 `ini:"max_speed" yaml:"max_speed"`
	Spread    float64 `ini:"ray_spread" yaml:"ray_spread"`
}

// DefaultSensorConfig returns 8 rays of length 200.
func DefaultSensorConfig() SensorConfig {
	return SensorConfig{
		RayCount:  8,
		RayLength: 200.0,
		MaxSpeed:  400.0,
		Spread:    1.5 * math.Pi,
	}
}

// Inputs returns the brain input size implied by the configuration.
func (c SensorConfig) Inputs() int {
	return c.RayCount + ExtraInputs
}

// RayAngles returns each ray's angle relative to the vehicle heading, left to right.
func (c SensorConfig) RayAngles() []float64 {
	angles := make([]float64, c.RayCount)
	if c.RayCount == 1 {
		return angles
	}
	step := c.Spread / float64(c.RayCount-1)
	for i := range angles {
		angles[i] = c.Spread/2 - float64(i)*step
	}
	return angles
}

func (c SensorConfig) validate() error {
	if c.RayCount <= 0 {
		return fmt.Errorf("ray_count must be positive, got %d", c.RayCount)
	}
	if !(c.RayLength > 0) {
		return fmt.Errorf("ray_length must be positive, got %v", c.RayLength)
	}
	if !(c.MaxSpeed > 0) {
		return fmt.Errorf("max_speed must be positive, got %v", c.MaxSpeed)
	}
	if c.Spread < 0 {
		return fmt.Errorf("ray_spread cannot be negative, got %v", c.Spread)
	}
	return nil
}

// SensorReadings is one tick of sensor data for one vehicle.
//
// Speed is positive when moving forward. TrackOffset is the signed lateral
// distance from the centerline, positive to the left of the direction of travel.
type SensorReadings struct {
	Distances   []float64
	Speed       float64
	TrackOffset float64
}

// ZeroedReadings returns readings with rayCount zero distances, used before the
// first real reading of an episode arrives.
func ZeroedReadings(rayCount int) SensorReadings {
	return SensorReadings{Distances: make([]float64, rayCount)}
}

// RayCount returns the number of rays in the reading.
func (r SensorReadings) RayCount() int {
	return len(r.Distances)
}

// Validate checks the reading against the sensor configuration.
func (r SensorReadings) Validate(cfg SensorConfig) error {
	if r.RayCount() != cfg.RayCount {
		return fmt.Errorf("%w: got %d distances, expected %d", ErrSensorShape, r.RayCount(), cfg.RayCount)
	}
	for i, d := range r.Distances {
		if !isFinite(d) || d < 0 || d > cfg.RayLength {
			return fmt.Errorf("%w: distance %d is %v, expected [0, %v]", ErrInvalidReadings, i, d, cfg.RayLength)
		}
	}
	if !isFinite(r.Speed) {
		return fmt.Errorf("%w: speed is %v", ErrInvalidReadings, r.Speed)
	}
	if !isFinite(r.TrackOffset) {
		return fmt.Errorf("%w: track offset is %v", ErrInvalidReadings, r.TrackOffset)
	}
	return nil
}

// InputVector validates the reading and flattens it into a brain input vector:
// distances scaled by RayLength, speed scaled by MaxSpeed and clamped to
// [-1, 1], then the track offset unchanged.
func (r SensorReadings) InputVector(cfg SensorConfig) ([]float64, error) {
	if err := r.Validate(cfg); err != nil {
		return nil, err
	}
	in := make([]float64, 0, cfg.Inputs())
	for _, d := range r.Distances {
		in = append(in, d/cfg.RayLength)
	}
	in = append(in, clamp(r.Speed/cfg.MaxSpeed, -1, 1), r.TrackOffset)
	return in, nil
}

// Copy returns a deep copy of the readings.
func (r SensorReadings) Copy() SensorReadings {
	c := r
	c.Distances = append([]float64(nil), r.Distances...)
	return c
}
