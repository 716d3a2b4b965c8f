// Package sim runs episodes of a population against a World and drives the
// generational training loop.
package sim

import (
	"github.com/baldhumanity/raice/raice"
	"github.com/baldhumanity/raice/track"
)

// EndReason records why an agent's episode ended.
type EndReason string

const (
	ReasonNone       EndReason = ""
	ReasonCollision  EndReason = "collision"
	ReasonOffTrack   EndReason = "off_track"
	ReasonTimeout    EndReason = "timeout"
	ReasonBadReading EndReason = "bad_reading"
)

// StepResult is one agent's outcome of a physics step.
type StepResult struct {
	ID       int       // agent id, the index of its spawn pose
	Distance float64   // progress along the track during the step, >= 0
	Done     bool      // the episode ended for this agent
	Reason   EndReason // why, when Done
}

// World is the physics and ray-casting collaborator.
//
// Agent ids are the indices of the poses passed to Spawn. Sensor readings
// must have the configured ray count with distances in [0, RayLength], where
// RayLength means nothing was hit. Controls passed to Actuate are always clamped.
type World interface {
	// Spawn places one vehicle per pose and resets all episode state.
	Spawn(poses []track.Pose) error
	// Sense returns the current sensor readings of one vehicle.
	Sense(id int) (raice.SensorReadings, error)
	// Actuate sets the control applied to one vehicle on the next step.
	Actuate(id int, control raice.VehicleControl) error
	// Step advances the simulation by dt seconds and reports every vehicle
	// that was still running before the step.
	Step(dt float64) ([]StepResult, error)
}

// NewTrack builds the track described by cfg, falling back to the
// placeholder loop when cfg lists no points.
func NewTrack(cfg raice.TrackConfig) (*track.Track, error) {
	points := track.Placeholder().Points()
	if len(cfg.Points) > 0 {
		var err error
		if points, err = track.FromFlat(cfg.Points); err != nil {
			return nil, err
		}
	}
	return track.New(points, cfg.Width, cfg.WallThickness)
}
