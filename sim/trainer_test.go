package sim

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/raice/raice"
	"github.com/baldhumanity/raice/track"
)

type recordingObserver struct {
	reports []GenerationReport
}

func (o *recordingObserver) ObserveGeneration(report GenerationReport) {
	o.reports = append(o.reports, report)
}

func smallConfig() *raice.Config {
	config := raice.DefaultConfig()
	config.Evolution.PopSize = 6
	config.Evolution.Generations = 3
	config.Evolution.Seed = 1
	config.Evolution.Workers = 2
	config.Evolution.FitnessThreshold = 1e9
	config.Genome.HiddenLayers = []int{4}
	config.Sensors.RayCount = 5
	config.Episode.MaxTicks = 60
	return config
}

func newTestTrainer(t *testing.T, config *raice.Config, opts ...TrainerOption) *Trainer {
	t.Helper()
	trk := track.Placeholder()
	world := NewKinematicWorld(trk, config.Sensors, DefaultKinematicConfig())
	trainer, err := NewTrainer(config, trk, world, opts...)
	require.NoError(t, err)
	return trainer
}

func TestTrainerRunGeneration(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	observer := &recordingObserver{}
	config := smallConfig()
	trainer := newTestTrainer(t, config,
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WithObserver(observer))
	require.NotEmpty(t, trainer.RunID)

	report, err := trainer.RunGeneration(context.Background())
	require.NoError(t, err)

	assert.Equal(t, trainer.RunID, report.RunID)
	assert.Equal(t, 0, report.Generation)
	assert.Equal(t, 6, report.Summary.Count)
	assert.False(t, report.Solved)
	require.NotNil(t, report.BestGenome)
	assert.Equal(t, report.Summary.Best, report.Best.Value())

	ended := 0
	for _, n := range report.Reasons {
		ended += n
	}
	assert.Equal(t, 6, ended)

	assert.Equal(t, 1, trainer.Population.Generation)
	assert.Equal(t, 6, trainer.Population.Len())
	require.NotNil(t, trainer.BestGenome)
	assert.Equal(t, report.Best, trainer.BestScore)

	require.Len(t, observer.reports, 1)
	assert.Contains(t, logs.String(), "generation finished")
	assert.Contains(t, logs.String(), "run="+trainer.RunID)
}

func TestTrainerRun(t *testing.T) {
	t.Parallel()

	observer := &recordingObserver{}
	trainer := newTestTrainer(t, smallConfig(), WithObserver(observer))

	report, err := trainer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Generation)
	assert.Len(t, observer.reports, 3)
	assert.Equal(t, 3, trainer.Population.Generation)

	// The best score so far never decreases.
	best := observer.reports[0].Best.Value()
	for _, r := range observer.reports {
		best = max(best, r.Best.Value())
	}
	assert.Equal(t, best, trainer.BestScore.Value())
}

func TestTrainerSolved(t *testing.T) {
	t.Parallel()

	config := smallConfig()
	config.Evolution.FitnessThreshold = -1e9
	trainer := newTestTrainer(t, config)
	before := trainer.Population

	report, err := trainer.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Solved)
	assert.Equal(t, 0, report.Generation)
	assert.Same(t, before, trainer.Population, "a solved generation is not reproduced")

	config = smallConfig()
	config.Evolution.FitnessThreshold = -1e9
	config.Evolution.NoFitnessTermination = true
	trainer = newTestTrainer(t, config)
	report, err = trainer.RunGeneration(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Solved)
}

func TestTrainerWithoutFiniteScores(t *testing.T) {
	t.Parallel()

	config := smallConfig()
	config.Evolution.PopSize = 0
	trainer := newTestTrainer(t, config)

	report, err := trainer.RunGeneration(context.Background())
	require.NoError(t, err)
	assert.Nil(t, report.BestGenome)
	assert.False(t, report.Stagnant)
	require.Len(t, trainer.Stagnation.FitnessHistory, 1)
	assert.True(t, math.IsNaN(trainer.Stagnation.FitnessHistory[0]))
	assert.True(t, math.IsInf(trainer.Stagnation.BestFitness, -1), "a generation without a best does not count as an improvement")
}

func TestTrainerReseed(t *testing.T) {
	t.Parallel()

	config := smallConfig()
	config.Reproduction.Elitism = 2
	trainer := newTestTrainer(t, config)
	pop := trainer.Population
	scores := []raice.FitnessScore{{Distance: 1}, {Distance: 6}, {Distance: 2}, {Distance: 5}, {Distance: 0}, {Distance: 3}}

	next, err := trainer.reseed(pop, scores)
	require.NoError(t, err)
	assert.Equal(t, pop.Len(), next.Len())
	assert.Equal(t, pop.Generation+1, next.Generation)
	assert.Equal(t, pop.Genomes[1], next.Genomes[0])
	assert.Equal(t, pop.Genomes[3], next.Genomes[1])
	assert.Equal(t, next.Generation, trainer.Stagnation.LastImproved)
	require.NoError(t, next.Validate(config.Genome.NumInputs, config.Genome.NumOutputs))
}

func TestTrainerWithPopulation(t *testing.T) {
	t.Parallel()

	config := smallConfig()
	r := raice.NewReproduction(&config.Reproduction, &config.Genome, rand.New(rand.NewSource(3)))
	require.NoError(t, config.Validate())
	template := r.CreateNewPopulation(1).Genomes[0]
	pop, err := r.SeedPopulation(4, template)
	require.NoError(t, err)

	trainer := newTestTrainer(t, config, WithPopulation(pop))
	assert.Same(t, pop, trainer.Population)

	report, err := trainer.RunGeneration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Summary.Count)
	assert.Equal(t, 4, trainer.Population.Len())
}

func TestNewTrainerErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty track", func(t *testing.T) {
		t.Parallel()
		config := smallConfig()
		trk, err := track.New(nil, 10, 1)
		require.NoError(t, err)
		_, err = NewTrainer(config, trk, NewKinematicWorld(trk, config.Sensors, DefaultKinematicConfig()))
		assert.Error(t, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()
		config := smallConfig()
		config.Reproduction.Selection = "lottery"
		trk := track.Placeholder()
		_, err := NewTrainer(config, trk, NewKinematicWorld(trk, config.Sensors, DefaultKinematicConfig()))
		assert.ErrorIs(t, err, raice.ErrInvalidConfig)
	})

	t.Run("mismatched population", func(t *testing.T) {
		t.Parallel()
		config := smallConfig()
		pop := raice.SeedPopulation(2, &raice.Genome{HiddenLayers: []int{4}, Weights: []float64{1}})
		trk := track.Placeholder()
		_, err := NewTrainer(config, trk, NewKinematicWorld(trk, config.Sensors, DefaultKinematicConfig()), WithPopulation(pop))
		assert.ErrorIs(t, err, raice.ErrInvalidGenome)
	})
}
