package sim

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/baldhumanity/raice/raice"
	"github.com/baldhumanity/raice/raice/nn"
	"github.com/baldhumanity/raice/track"
)

// Episode drives one population through one episode in a World.
//
// Each tick senses every running agent, evaluates all brains in parallel,
// actuates the clamped controls and advances the world by TickSeconds. The
// episode ends when every agent is done or MaxTicks is reached.
type Episode struct {
	Config  raice.EpisodeConfig
	Sensors raice.SensorConfig
	Brain   *nn.Brain
	World   World
	Workers int // maximum concurrent brain evaluations, 0 uses GOMAXPROCS
}

// Run spawns one vehicle per genome at poses and plays the episode to the end.
// The returned arena holds each agent's accumulated fitness and end reason.
func (e *Episode) Run(ctx context.Context, pop *raice.Population, poses []track.Pose) (*Arena, error) {
	if len(poses) != pop.Len() {
		return nil, fmt.Errorf("got %d start poses for %d genomes", len(poses), pop.Len())
	}
	arena := NewArena(pop, e.Sensors)
	if arena.Len() == 0 {
		return arena, nil
	}
	if err := e.World.Spawn(poses); err != nil {
		return nil, fmt.Errorf("failed to spawn vehicles: %w", err)
	}

	for tick := 0; tick < e.Config.MaxTicks; tick++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("episode cancelled at tick %d: %w", tick, err)
		}
		active := arena.Active()
		if len(active) == 0 {
			break
		}
		if err := e.tick(arena, pop, active); err != nil {
			return nil, fmt.Errorf("tick %d: %w", tick, err)
		}
	}

	for _, id := range arena.Active() {
		arena.End(id, ReasonTimeout)
	}
	return arena, nil
}

func (e *Episode) tick(arena *Arena, pop *raice.Population, active []int) error {
	for _, id := range active {
		readings, err := e.World.Sense(id)
		if err != nil {
			return fmt.Errorf("sense agent %d: %w", id, err)
		}
		arena.agents[id].Readings = readings
	}

	if err := e.think(arena, pop, active); err != nil {
		return err
	}

	// Agents ended while thinking carry a neutral control, which stops them.
	for _, id := range active {
		ag := &arena.agents[id]
		if err := e.World.Actuate(id, ag.Control); err != nil {
			return fmt.Errorf("actuate agent %d: %w", id, err)
		}
	}

	results, err := e.World.Step(e.Config.TickSeconds)
	if err != nil {
		return fmt.Errorf("step: %w", err)
	}
	for _, res := range results {
		ag, err := arena.Agent(res.ID)
		if err != nil {
			return err
		}
		if ag.Done {
			continue
		}
		if err := ag.Accumulator.Add(res.Distance, e.Config.TickSeconds); err != nil {
			return fmt.Errorf("agent %d: %w", res.ID, err)
		}
		if res.Done {
			arena.End(res.ID, res.Reason)
		}
	}
	return nil
}

// think evaluates the brain of every active agent. Each goroutine writes only
// its own agent's slot.
func (e *Episode) think(arena *Arena, pop *raice.Population, active []int) error {
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := pool.New().WithErrors().WithMaxGoroutines(workers)
	for _, id := range active {
		ag := &arena.agents[id]
		genome := pop.Genomes[ag.GenomeIndex]
		p.Go(func() error {
			control, err := e.Brain.Control(genome, ag.Readings, e.Sensors)
			switch {
			case errors.Is(err, raice.ErrSensorShape), errors.Is(err, raice.ErrInvalidReadings):
				// Unusable readings stop the vehicle.
				ag.Done = true
				ag.Reason = ReasonBadReading
				ag.Control = raice.VehicleControl{}
				return nil
			case err != nil:
				return fmt.Errorf("agent %d (genome %d): %w", ag.ID, genome.Key, err)
			}
			ag.Control = control
			return nil
		})
	}
	return p.Wait()
}
