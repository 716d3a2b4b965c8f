package sim

import (
	"fmt"

	"github.com/baldhumanity/raice/raice"
)

// Agent is the per-vehicle record of one episode.
type Agent struct {
	ID          int
	GenomeIndex int
	Readings    raice.SensorReadings
	Control     raice.VehicleControl
	Accumulator raice.EpisodeAccumulator
	Done        bool
	Reason      EndReason
}

// Arena holds one agent per genome of a population, indexed by a stable id.
type Arena struct {
	agents []Agent
}

// NewArena creates one agent per genome with zeroed readings and a neutral control.
func NewArena(pop *raice.Population, sensors raice.SensorConfig) *Arena {
	a := &Arena{agents: make([]Agent, pop.Len())}
	for i := range a.agents {
		a.agents[i] = Agent{
			ID:          i,
			GenomeIndex: i,
			Readings:    raice.ZeroedReadings(sensors.RayCount),
		}
	}
	return a
}

// Len returns the number of agents.
func (a *Arena) Len() int {
	return len(a.agents)
}

// Agent returns the agent with the given id.
func (a *Arena) Agent(id int) (*Agent, error) {
	if id < 0 || id >= len(a.agents) {
		return nil, fmt.Errorf("unknown agent id %d", id)
	}
	return &a.agents[id], nil
}

// Active returns the ids of agents whose episode is still running.
func (a *Arena) Active() []int {
	ids := make([]int, 0, len(a.agents))
	for i := range a.agents {
		if !a.agents[i].Done {
			ids = append(ids, i)
		}
	}
	return ids
}

// End marks an agent's episode as finished. Ending an agent twice keeps the first reason.
func (a *Arena) End(id int, reason EndReason) {
	if ag := &a.agents[id]; !ag.Done {
		ag.Done = true
		ag.Reason = reason
	}
}

// Scores returns every agent's fitness, in agent id order.
func (a *Arena) Scores() []raice.FitnessScore {
	scores := make([]raice.FitnessScore, len(a.agents))
	for i := range a.agents {
		scores[i] = a.agents[i].Accumulator.Score()
	}
	return scores
}

// Reasons counts agents by the reason their episode ended.
func (a *Arena) Reasons() map[EndReason]int {
	counts := make(map[EndReason]int)
	for i := range a.agents {
		counts[a.agents[i].Reason]++
	}
	return counts
}
