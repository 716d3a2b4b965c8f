package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/baldhumanity/raice/raice"
	"github.com/baldhumanity/raice/raice/nn"
	"github.com/baldhumanity/raice/track"
)

// GenerationReport summarises one evaluated generation.
type GenerationReport struct {
	RunID      string
	Generation int
	Summary    raice.FitnessSummary
	Best       raice.FitnessScore // best score of this generation
	BestGenome *raice.Genome      // genome that earned Best
	Reasons    map[EndReason]int
	Elapsed    time.Duration
	Solved     bool // the fitness threshold was reached
	Stagnant   bool
	Reset      bool // the population was re-seeded after stagnating
}

// Observer receives a report after every generation.
type Observer interface {
	ObserveGeneration(report GenerationReport)
}

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) TrainerOption {
	return func(t *Trainer) { t.logger = logger }
}

// WithObserver registers an observer of generation reports.
func WithObserver(o Observer) TrainerOption {
	return func(t *Trainer) { t.observers = append(t.observers, o) }
}

// WithPopulation starts training from an existing population instead of a
// random one.
func WithPopulation(pop *raice.Population) TrainerOption {
	return func(t *Trainer) { t.Population = pop }
}

// Trainer holds the state of the evolutionary process.
type Trainer struct {
	Config       *raice.Config
	Track        *track.Track
	World        World
	Brain        *nn.Brain
	Population   *raice.Population
	Reproduction *raice.Reproduction
	Stagnation   *raice.Stagnation
	BestGenome   *raice.Genome      // best genome found so far
	BestScore    raice.FitnessScore // score of BestGenome
	RunID        string

	episode   *Episode
	poses     []track.Pose
	logger    *slog.Logger
	observers []Observer
}

// NewTrainer creates a trainer and, unless WithPopulation is given, a random
// generation-0 population of Config.Evolution.PopSize genomes.
func NewTrainer(config *raice.Config, trk *track.Track, world World, opts ...TrainerOption) (*Trainer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	start, ok := trk.StartPose()
	if !ok {
		return nil, errors.New("track has no segments, there is nowhere to spawn vehicles")
	}

	brain, err := nn.NewControlBrain(config.Genome.NumInputs, nn.WithHiddenActivation(config.Genome.HiddenActivation))
	if err != nil {
		return nil, fmt.Errorf("failed to create brain: %w", err)
	}

	seed := config.Evolution.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	t := &Trainer{
		Config:       config,
		Track:        trk,
		World:        world,
		Brain:        brain,
		Reproduction: raice.NewReproduction(&config.Reproduction, &config.Genome, rng),
		Stagnation:   raice.NewStagnation(&config.Stagnation),
		RunID:        uuid.NewString(),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.Population == nil {
		t.Population = t.Reproduction.CreateNewPopulation(config.Evolution.PopSize)
	} else if err := t.Population.Validate(config.Genome.NumInputs, config.Genome.NumOutputs); err != nil {
		return nil, fmt.Errorf("invalid initial population: %w", err)
	}

	ep := config.Episode
	t.poses = track.GridStartPositions(start, t.Population.Len(), ep.VehiclesPerRow,
		trk.Width*ep.ForwardSpacing, trk.Width*ep.LateralSpacing)
	t.episode = &Episode{
		Config:  ep,
		Sensors: config.Sensors,
		Brain:   brain,
		World:   world,
		Workers: config.Evolution.Workers,
	}
	t.logger = t.logger.With("run", t.RunID)
	return t, nil
}

// RunGeneration evaluates the current population in one episode and, unless
// the fitness threshold was reached, replaces it with the next generation.
func (t *Trainer) RunGeneration(ctx context.Context) (GenerationReport, error) {
	started := time.Now()
	pop := t.Population
	report := GenerationReport{RunID: t.RunID, Generation: pop.Generation}

	if len(t.poses) != pop.Len() {
		start, _ := t.Track.StartPose()
		ep := t.Config.Episode
		t.poses = track.GridStartPositions(start, pop.Len(), ep.VehiclesPerRow,
			t.Track.Width*ep.ForwardSpacing, t.Track.Width*ep.LateralSpacing)
	}

	arena, err := t.episode.Run(ctx, pop, t.poses)
	if err != nil {
		return report, fmt.Errorf("evaluation failed in generation %d: %w", pop.Generation, err)
	}
	scores := arena.Scores()
	report.Summary = raice.Summarize(scores)
	report.Reasons = arena.Reasons()

	if best := pop.Best(scores); best >= 0 {
		report.Best = scores[best]
		report.BestGenome = pop.Genomes[best]
		if t.BestGenome == nil || scores[best].Value() > t.BestScore.Value() {
			t.BestGenome = pop.Genomes[best].Copy()
			t.BestScore = scores[best]
			t.logger.Info("new best genome", "generation", pop.Generation, "key", t.BestGenome.Key, "fitness", t.BestScore.Value())
		}
	}

	evo := t.Config.Evolution
	if !evo.NoFitnessTermination && report.BestGenome != nil && report.Best.Value() >= evo.FitnessThreshold {
		report.Solved = true
		return t.finish(report, started), nil
	}

	generationBest := math.NaN()
	if report.BestGenome != nil {
		generationBest = report.Best.Value()
	}
	report.Stagnant = t.Stagnation.Update(generationBest, pop.Generation)
	var next *raice.Population
	if report.Stagnant && evo.ResetOnStagnation {
		next, err = t.reseed(pop, scores)
		report.Reset = true
	} else {
		next, err = t.Reproduction.Reproduce(pop, scores)
	}
	if err != nil {
		return report, fmt.Errorf("reproduction failed in generation %d: %w", pop.Generation, err)
	}
	t.Population = next
	return t.finish(report, started), nil
}

// reseed replaces a stagnant population with random genomes, keeping the
// generation's elites.
func (t *Trainer) reseed(pop *raice.Population, scores []raice.FitnessScore) (*raice.Population, error) {
	elites := min(t.Config.Reproduction.Elitism, pop.Len())
	kept, err := t.Reproduction.ReproduceTo(pop, scores, elites)
	if err != nil {
		return nil, err
	}
	fresh := t.Reproduction.CreateNewPopulation(pop.Len() - kept.Len())
	for _, g := range fresh.Genomes {
		kept.Push(g)
	}
	t.Stagnation.Reset(kept.Generation)
	t.logger.Warn("population stagnant, re-seeding", "generation", pop.Generation, "kept", elites)
	return kept, nil
}

func (t *Trainer) finish(report GenerationReport, started time.Time) GenerationReport {
	report.Elapsed = time.Since(started)
	t.logger.Info("generation finished",
		"generation", report.Generation,
		"best", report.Best.Value(),
		"mean", report.Summary.Mean,
		"stdev", report.Summary.Stdev,
		"solved", report.Solved,
		"elapsed", report.Elapsed)
	for _, o := range t.observers {
		o.ObserveGeneration(report)
	}
	return report
}

// Run calls RunGeneration until the fitness threshold is reached or
// Config.Evolution.Generations generations have been evaluated. It returns
// the report of the last generation.
func (t *Trainer) Run(ctx context.Context) (GenerationReport, error) {
	var report GenerationReport
	for i := 0; i < t.Config.Evolution.Generations; i++ {
		var err error
		report, err = t.RunGeneration(ctx)
		if err != nil {
			return report, err
		}
		if report.Solved {
			t.logger.Info("fitness threshold reached", "generation", report.Generation, "fitness", report.Best.Value())
			break
		}
	}
	return report, nil
}
