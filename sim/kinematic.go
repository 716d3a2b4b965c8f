package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/baldhumanity/raice/raice"
	"github.com/baldhumanity/raice/track"
)

// KinematicConfig holds the vehicle model parameters of a KinematicWorld.
type KinematicConfig struct {
	MaxSpeed     float64 // units per second
	Acceleration float64 // at full throttle, units per second squared
	Braking      float64 // at full brake, units per second squared
	Drag         float64 // fraction of speed lost per second
	TurnRate     float64 // radians per second at full steering lock
}

// DefaultKinematicConfig returns parameters that suit the placeholder track.
func DefaultKinematicConfig() KinematicConfig {
	return KinematicConfig{
		MaxSpeed:     400,
		Acceleration: 300,
		Braking:      600,
		Drag:         0.8,
		TurnRate:     3.0,
	}
}

type vehicle struct {
	position r2.Vec
	heading  float64
	speed    float64
	control  raice.VehicleControl

	progress float64 // unwrapped arc length travelled since spawn
	best     float64 // furthest progress reached
	lastArc  float64 // wrapped arc length at the previous step
	done     bool
}

// KinematicWorld is a minimal World: point vehicles with heading, speed and
// drag on a track bounded by its edges. Leaving the road ends the episode
// with ReasonCollision. Only forward progress beyond the furthest point
// reached earns distance.
type KinematicWorld struct {
	track    *track.Track
	sensors  raice.SensorConfig
	config   KinematicConfig
	edges    []track.Edge
	angles   []float64
	length   float64
	vehicles []vehicle
}

// NewKinematicWorld creates a world for trk with the given sensor layout.
func NewKinematicWorld(trk *track.Track, sensors raice.SensorConfig, config KinematicConfig) *KinematicWorld {
	return &KinematicWorld{
		track:   trk,
		sensors: sensors,
		config:  config,
		edges:   trk.Edges(),
		angles:  sensors.RayAngles(),
		length:  trk.Length(),
	}
}

// Spawn places one stationary vehicle per pose.
func (w *KinematicWorld) Spawn(poses []track.Pose) error {
	if len(poses) > 0 && w.track.IsEmpty() {
		return fmt.Errorf("cannot spawn %d vehicles on an empty track", len(poses))
	}
	w.vehicles = make([]vehicle, len(poses))
	for i, pose := range poses {
		v := vehicle{position: pose.Position, heading: pose.Heading}
		if loc, ok := w.track.Locate(pose.Position); ok {
			v.lastArc = loc.Progress
		}
		w.vehicles[i] = v
	}
	return nil
}

func (w *KinematicWorld) lookup(id int) (*vehicle, error) {
	if id < 0 || id >= len(w.vehicles) {
		return nil, fmt.Errorf("unknown vehicle id %d", id)
	}
	return &w.vehicles[id], nil
}

// Sense casts the configured rays from the vehicle against the road edges.
// TrackOffset is the signed lateral offset divided by half the road width.
func (w *KinematicWorld) Sense(id int) (raice.SensorReadings, error) {
	v, err := w.lookup(id)
	if err != nil {
		return raice.SensorReadings{}, err
	}

	readings := raice.ZeroedReadings(len(w.angles))
	for i, a := range w.angles {
		dir := r2.Vec{X: math.Cos(v.heading + a), Y: math.Sin(v.heading + a)}
		readings.Distances[i] = w.cast(v.position, dir)
	}
	readings.Speed = v.speed
	if loc, ok := w.track.Locate(v.position); ok {
		readings.TrackOffset = loc.Offset / (w.track.Width * 0.5)
	}
	return readings, nil
}

// cast returns the distance to the nearest edge along the ray, or RayLength
// when nothing is hit within range.
func (w *KinematicWorld) cast(origin, dir r2.Vec) float64 {
	nearest := w.sensors.RayLength
	for _, edge := range w.edges {
		if t, ok := intersect(origin, dir, edge.A, edge.B); ok && t < nearest {
			nearest = t
		}
	}
	return nearest
}

// intersect solves origin + t*dir = a + u*(b-a) for t >= 0 and u in [0, 1].
func intersect(origin, dir, a, b r2.Vec) (float64, bool) {
	e := r2.Sub(b, a)
	denom := r2.Cross(dir, e)
	if math.Abs(denom) <= track.LengthEpsilon {
		return 0, false
	}
	w := r2.Sub(a, origin)
	t := r2.Cross(w, e) / denom
	u := r2.Cross(w, dir) / denom
	if t < 0 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

// Actuate stores the control applied on the next step.
func (w *KinematicWorld) Actuate(id int, control raice.VehicleControl) error {
	v, err := w.lookup(id)
	if err != nil {
		return err
	}
	v.control = control.Clamped()
	return nil
}

// Step integrates every running vehicle over dt seconds.
func (w *KinematicWorld) Step(dt float64) ([]StepResult, error) {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return nil, fmt.Errorf("invalid time step %v", dt)
	}

	results := make([]StepResult, 0, len(w.vehicles))
	for id := range w.vehicles {
		v := &w.vehicles[id]
		if v.done {
			continue
		}

		c := v.control
		accel := c.Throttle*w.config.Acceleration - c.Brake*w.config.Braking - w.config.Drag*v.speed
		v.speed = math.Max(0, math.Min(v.speed+accel*dt, w.config.MaxSpeed))
		v.heading = math.Remainder(v.heading+c.Steering*w.config.TurnRate*dt, 2*math.Pi)
		v.position = r2.Add(v.position, r2.Scale(v.speed*dt, r2.Vec{X: math.Cos(v.heading), Y: math.Sin(v.heading)}))

		res := StepResult{ID: id}
		loc, ok := w.track.Locate(v.position)
		if !ok {
			v.done = true
			res.Done, res.Reason = true, ReasonOffTrack
			results = append(results, res)
			continue
		}

		v.progress += w.arcDelta(v.lastArc, loc.Progress)
		v.lastArc = loc.Progress
		if v.progress > v.best {
			res.Distance = v.progress - v.best
			v.best = v.progress
		}
		if loc.Distance > w.track.Width*0.5 {
			v.done = true
			res.Done, res.Reason = true, ReasonCollision
		}
		results = append(results, res)
	}
	return results, nil
}

// arcDelta returns the signed arc length from one wrapped progress value to
// the next, taking the short way round the loop.
func (w *KinematicWorld) arcDelta(from, to float64) float64 {
	d := to - from
	if w.length > 0 {
		d = math.Remainder(d, w.length)
	}
	return d
}
