package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/baldhumanity/raice/raice"
	"github.com/baldhumanity/raice/track"
)

func squareWorld(t *testing.T, rayLength float64) *KinematicWorld {
	t.Helper()
	trk, err := track.New([]r2.Vec{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}, 20, 4)
	require.NoError(t, err)
	sensors := raice.SensorConfig{RayCount: 3, RayLength: rayLength, MaxSpeed: 400, Spread: math.Pi}
	return NewKinematicWorld(trk, sensors, DefaultKinematicConfig())
}

func TestKinematicWorldSense(t *testing.T) {
	t.Parallel()

	t.Run("rays hit the road edges", func(t *testing.T) {
		t.Parallel()
		w := squareWorld(t, 200)
		require.NoError(t, w.Spawn([]track.Pose{{Position: r2.Vec{X: 50, Y: 0}}}))

		r, err := w.Sense(0)
		require.NoError(t, err)
		require.Len(t, r.Distances, 3)
		assert.InDelta(t, 10, r.Distances[0], 1e-9, "left")
		assert.InDelta(t, 40, r.Distances[1], 1e-9, "ahead")
		assert.InDelta(t, 10, r.Distances[2], 1e-9, "right")
		assert.Zero(t, r.Speed)
		assert.InDelta(t, 0, r.TrackOffset, 1e-12)
		assert.NoError(t, r.Validate(w.sensors))
	})

	t.Run("no hit reports ray length", func(t *testing.T) {
		t.Parallel()
		w := squareWorld(t, 30)
		require.NoError(t, w.Spawn([]track.Pose{{Position: r2.Vec{X: 50, Y: 5}}}))

		r, err := w.Sense(0)
		require.NoError(t, err)
		assert.InDelta(t, 5, r.Distances[0], 1e-9)
		assert.Equal(t, 30.0, r.Distances[1])
		assert.InDelta(t, 15, r.Distances[2], 1e-9)
		assert.InDelta(t, 0.5, r.TrackOffset, 1e-12)
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		t.Parallel()
		w := squareWorld(t, 30)
		_, err := w.Sense(0)
		assert.Error(t, err)
		assert.Error(t, w.Actuate(-1, raice.VehicleControl{}))
	})
}

func TestKinematicWorldStep(t *testing.T) {
	t.Parallel()

	t.Run("throttle earns progress", func(t *testing.T) {
		t.Parallel()
		w := squareWorld(t, 200)
		require.NoError(t, w.Spawn([]track.Pose{{Position: r2.Vec{X: 50, Y: 0}}}))
		require.NoError(t, w.Actuate(0, raice.VehicleControl{Throttle: 1}))

		results, err := w.Step(0.1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, 3, results[0].Distance, 1e-9)
		assert.False(t, results[0].Done)

		r, err := w.Sense(0)
		require.NoError(t, err)
		assert.InDelta(t, 30, r.Speed, 1e-9)
	})

	t.Run("standing still earns nothing", func(t *testing.T) {
		t.Parallel()
		w := squareWorld(t, 200)
		require.NoError(t, w.Spawn([]track.Pose{{Position: r2.Vec{X: 50, Y: 0}}}))
		results, err := w.Step(0.1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Zero(t, results[0].Distance)
	})

	t.Run("leaving the road ends the episode", func(t *testing.T) {
		t.Parallel()
		w := squareWorld(t, 200)
		poses := []track.Pose{
			{Position: r2.Vec{X: 50, Y: 9}, Heading: math.Pi / 2},
			{Position: r2.Vec{X: 50, Y: 0}},
		}
		require.NoError(t, w.Spawn(poses))
		require.NoError(t, w.Actuate(0, raice.VehicleControl{Throttle: 1}))

		results, err := w.Step(0.1)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.True(t, results[0].Done)
		assert.Equal(t, ReasonCollision, results[0].Reason)
		assert.False(t, results[1].Done)

		results, err = w.Step(0.1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 1, results[0].ID)
	})

	t.Run("driving straight through a corner leaves the road", func(t *testing.T) {
		t.Parallel()
		w := squareWorld(t, 200)
		require.NoError(t, w.Spawn([]track.Pose{{Position: r2.Vec{X: 90, Y: -5}}}))
		require.NoError(t, w.Actuate(0, raice.VehicleControl{Throttle: 1}))

		var last StepResult
		for i := 0; i < 100 && !last.Done; i++ {
			results, err := w.Step(0.1)
			require.NoError(t, err)
			require.Len(t, results, 1)
			last = results[0]
		}
		require.True(t, last.Done)
		assert.Equal(t, ReasonCollision, last.Reason)

		pos := w.vehicles[0].position
		assert.Greater(t, pos.X, 100.0)
		assert.Less(t, pos.X, 130.0)
	})

	t.Run("progress wraps around the loop", func(t *testing.T) {
		t.Parallel()
		w := squareWorld(t, 200)
		require.NoError(t, w.Spawn([]track.Pose{{Position: r2.Vec{X: 0, Y: 2}, Heading: -math.Pi / 2}}))
		require.NoError(t, w.Actuate(0, raice.VehicleControl{Throttle: 1}))

		// The vehicle ends 1 unit past the corner, which projects onto it.
		results, err := w.Step(0.1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, 2, results[0].Distance, 1e-9)
		assert.False(t, results[0].Done)
	})

	t.Run("invalid time step", func(t *testing.T) {
		t.Parallel()
		w := squareWorld(t, 200)
		for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
			_, err := w.Step(dt)
			assert.Error(t, err)
		}
	})
}

func TestIntersect(t *testing.T) {
	t.Parallel()

	tHit, ok := intersect(r2.Vec{}, r2.Vec{X: 1}, r2.Vec{X: 5, Y: -1}, r2.Vec{X: 5, Y: 1})
	require.True(t, ok)
	assert.InDelta(t, 5, tHit, 1e-12)

	_, ok = intersect(r2.Vec{}, r2.Vec{X: -1}, r2.Vec{X: 5, Y: -1}, r2.Vec{X: 5, Y: 1})
	assert.False(t, ok, "behind the origin")

	_, ok = intersect(r2.Vec{}, r2.Vec{X: 1}, r2.Vec{X: 5, Y: 1}, r2.Vec{X: 5, Y: 3})
	assert.False(t, ok, "past the segment end")

	_, ok = intersect(r2.Vec{}, r2.Vec{X: 1}, r2.Vec{X: 0, Y: 1}, r2.Vec{X: 5, Y: 1})
	assert.False(t, ok, "parallel")
}

func TestNewTrack(t *testing.T) {
	t.Parallel()

	trk, err := NewTrack(raice.TrackConfig{Width: 50, WallThickness: 5})
	require.NoError(t, err)
	assert.Len(t, trk.Segments(), 5)
	assert.Equal(t, 50.0, trk.Width)

	trk, err = NewTrack(raice.TrackConfig{Width: 50, WallThickness: 5, Points: []float64{0, 0, 10, 0, 10, 10}})
	require.NoError(t, err)
	assert.Len(t, trk.Segments(), 3)

	_, err = NewTrack(raice.TrackConfig{Width: 0, WallThickness: 5})
	assert.ErrorIs(t, err, track.ErrInvalidTrack)
}
