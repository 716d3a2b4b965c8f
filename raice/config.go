package raice

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every configuration validation error.
var ErrInvalidConfig = errors.New("config error")

// Config stores the configuration parameters for a training run.
type Config struct {
	Evolution    EvolutionConfig    `yaml:"evolution"`
	Genome       GenomeConfig       `yaml:"genome"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Stagnation   StagnationConfig   `yaml:"stagnation"`
	Sensors      SensorConfig       `yaml:"sensors"`
	Episode      EpisodeConfig      `yaml:"episode"`
	Track        TrackConfig        `yaml:"track"`
}

// EvolutionConfig holds parameters of the generational loop itself.
type EvolutionConfig struct {
	PopSize              int     `ini:"pop_size" yaml:"pop_size"`
	Generations          int     `ini:"generations" yaml:"generations"`
	FitnessThreshold     float64 `ini:"fitness_threshold" yaml:"fitness_threshold"`
	NoFitnessTermination bool    `ini:"no_fitness_termination" yaml:"no_fitness_termination"`
	ResetOnStagnation    bool    `ini:"reset_on_stagnation" yaml:"reset_on_stagnation"`
	Seed                 int64   `ini:"seed" yaml:"seed"`       // 0 picks a time-based seed
	Workers              int     `ini:"workers" yaml:"workers"` // 0 uses GOMAXPROCS
}

// GenomeConfig holds the network topology and weight initialisation/mutation parameters.
type GenomeConfig struct {
	HiddenLayers     []int  `ini:"hidden_layers" delim:" " yaml:"hidden_layers"`
	HiddenActivation string `ini:"hidden_activation" yaml:"hidden_activation"`

	WeightInitMean       float64 `ini:"weight_init_mean" yaml:"weight_init_mean"`
	WeightInitStdev      float64 `ini:"weight_init_stdev" yaml:"weight_init_stdev"`
	WeightInitType       string  `ini:"weight_init_type" yaml:"weight_init_type"` // gaussian or uniform
	WeightMutateRate     float64 `ini:"weight_mutate_rate" yaml:"weight_mutate_rate"`
	WeightMutatePower    float64 `ini:"weight_mutate_power" yaml:"weight_mutate_power"`
	WeightMutateMaxDelta float64 `ini:"weight_mutate_max_delta" yaml:"weight_mutate_max_delta"`
	WeightReplaceRate    float64 `ini:"weight_replace_rate" yaml:"weight_replace_rate"`
	WeightMaxValue       float64 `ini:"weight_max_value" yaml:"weight_max_value"`
	WeightMinValue       float64 `ini:"weight_min_value" yaml:"weight_min_value"`

	// Derived from the sensor layout and the control vector.
	NumInputs  int `ini:"-" yaml:"-"`
	NumOutputs int `ini:"-" yaml:"-"`
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	Elitism           int     `ini:"elitism" yaml:"elitism"`
	SurvivalThreshold float64 `ini:"survival_threshold" yaml:"survival_threshold"`
	Selection         string  `ini:"selection" yaml:"selection"` // uniform, tournament or roulette
	TournamentSize    int     `ini:"tournament_size" yaml:"tournament_size"`
	CrossoverRate     float64 `ini:"crossover_rate" yaml:"crossover_rate"`
	CrossoverType     string  `ini:"crossover_type" yaml:"crossover_type"` // neuron, uniform or point
}

// StagnationConfig holds parameters related to population stagnation.
type StagnationConfig struct {
	MaxStagnation int `ini:"max_stagnation" yaml:"max_stagnation"`
}

// EpisodeConfig holds parameters of a single simulated episode.
type EpisodeConfig struct {
	MaxTicks       int     `ini:"max_ticks" yaml:"max_ticks"`
	TickSeconds    float64 `ini:"tick_seconds" yaml:"tick_seconds"`
	VehiclesPerRow int     `ini:"vehicles_per_row" yaml:"vehicles_per_row"`
	ForwardSpacing float64 `ini:"forward_spacing" yaml:"forward_spacing"` // fraction of track width
	LateralSpacing float64 `ini:"lateral_spacing" yaml:"lateral_spacing"` // fraction of track width
}

// TrackConfig holds the track cross-section and, optionally, its centerline.
// Points is a flat list of x y pairs; when empty the built-in placeholder loop is used.
type TrackConfig struct {
	Width         float64   `ini:"width" yaml:"width"`
	WallThickness float64   `ini:"wall_thickness" yaml:"wall_thickness"`
	Points        []float64 `ini:"points" delim:" " yaml:"points"`
}

var (
	validSelections     = map[string]bool{"uniform": true, "tournament": true, "roulette": true}
	validCrossoverTypes = map[string]bool{"neuron": true, "uniform": true, "point": true}
	validInitTypes      = map[string]bool{"gaussian": true, "normal": true, "uniform": true}
)

// DefaultConfig returns a valid configuration for the placeholder track.
func DefaultConfig() *Config {
	config := &Config{
		Evolution: EvolutionConfig{
			PopSize:              30,
			Generations:          50,
			FitnessThreshold:     5000,
			NoFitnessTermination: false,
		},
		Genome: GenomeConfig{
			HiddenLayers:         []int{12, 8},
			HiddenActivation:     "tanh",
			WeightInitMean:       0.0,
			WeightInitStdev:      1.0,
			WeightInitType:       "gaussian",
			WeightMutateRate:     0.8,
			WeightMutatePower:    0.5,
			WeightMutateMaxDelta: 1.5,
			WeightReplaceRate:    0.05,
			WeightMaxValue:       30.0,
			WeightMinValue:       -30.0,
		},
		Reproduction: ReproductionConfig{
			Elitism:           2,
			SurvivalThreshold: 0.2,
			Selection:         "tournament",
			TournamentSize:    3,
			CrossoverRate:     0.7,
			CrossoverType:     "neuron",
		},
		Stagnation: StagnationConfig{MaxStagnation: 15},
		Sensors:    DefaultSensorConfig(),
		Episode: EpisodeConfig{
			MaxTicks:       1200,
			TickSeconds:    1.0 / 60.0,
			VehiclesPerRow: 3,
			ForwardSpacing: 0.65,
			LateralSpacing: 0.45,
		},
		Track: TrackConfig{Width: 120.0, WallThickness: 16.0},
	}
	config.derive()
	return config
}

// LoadConfig loads configuration parameters from an INI file, or from a YAML
// file when the path ends in .yaml or .yml. Keys missing from the file keep
// their DefaultConfig values.
func LoadConfig(filePath string) (*Config, error) {
	config := DefaultConfig()

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(config); err != nil {
			return nil, fmt.Errorf("failed to decode config file '%s': %w", filePath, err)
		}
	default:
		if err := loadIni(filePath, config); err != nil {
			return nil, err
		}
	}

	config.Genome.HiddenActivation = cleanIniString(config.Genome.HiddenActivation)
	config.Genome.WeightInitType = cleanIniString(config.Genome.WeightInitType)
	config.Reproduction.Selection = cleanIniString(config.Reproduction.Selection)
	config.Reproduction.CrossoverType = cleanIniString(config.Reproduction.CrossoverType)

	config.derive()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadIni(filePath string, config *Config) error {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	sections := []struct {
		name string
		dst  any
	}{
		{"Evolution", &config.Evolution},
		{"Genome", &config.Genome},
		{"Reproduction", &config.Reproduction},
		{"Stagnation", &config.Stagnation},
		{"Sensors", &config.Sensors},
		{"Episode", &config.Episode},
		{"Track", &config.Track},
	}
	for _, s := range sections {
		if !cfg.HasSection(s.name) {
			continue
		}
		if err := cfg.Section(s.name).MapTo(s.dst); err != nil {
			return fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}

	// MapTo leaves a slice untouched when its value is blank. A blank
	// hidden_layers means a network without hidden layers.
	if genome := cfg.Section("Genome"); genome.HasKey("hidden_layers") &&
		strings.TrimSpace(genome.Key("hidden_layers").String()) == "" {
		config.Genome.HiddenLayers = nil
	}
	return nil
}

// derive fills in the fields computed from other sections.
func (c *Config) derive() {
	c.Genome.NumInputs = c.Sensors.Inputs()
	c.Genome.NumOutputs = ControlOutputs
}

// Validate refreshes the derived fields, checks every section and returns the
// first problem found.
func (c *Config) Validate() error {
	c.derive()
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Evolution.PopSize < 0 {
		return invalid("pop_size cannot be negative")
	}
	if c.Evolution.Generations < 0 {
		return invalid("generations cannot be negative")
	}
	if c.Evolution.Workers < 0 {
		return invalid("workers cannot be negative")
	}

	for i, n := range c.Genome.HiddenLayers {
		if n <= 0 {
			return invalid("hidden layer %d must have a positive size, got %d", i, n)
		}
	}
	act, err := GetActivation(c.Genome.HiddenActivation)
	if err != nil {
		return invalid("hidden_activation: %v", err)
	}
	if !act.Bounded() {
		return invalid("hidden_activation '%s' is unbounded, use one of %v", act.Name, BoundedActivationNames())
	}
	if !validInitTypes[strings.ToLower(c.Genome.WeightInitType)] {
		return invalid("invalid weight_init_type '%s'", c.Genome.WeightInitType)
	}
	if c.Genome.WeightInitStdev < 0 {
		return invalid("weight_init_stdev cannot be negative")
	}
	if c.Genome.WeightMutateRate < 0 || c.Genome.WeightMutateRate > 1 {
		return invalid("weight_mutate_rate must be between 0 and 1")
	}
	if c.Genome.WeightReplaceRate < 0 || c.Genome.WeightReplaceRate > 1 {
		return invalid("weight_replace_rate must be between 0 and 1")
	}
	if c.Genome.WeightMutatePower < 0 {
		return invalid("weight_mutate_power cannot be negative")
	}
	if !(c.Genome.WeightMutateMaxDelta > 0) {
		return invalid("weight_mutate_max_delta must be positive")
	}
	if c.Genome.WeightMaxValue < c.Genome.WeightMinValue {
		return invalid("weight_max_value cannot be less than weight_min_value")
	}

	if c.Reproduction.Elitism < 0 {
		return invalid("elitism cannot be negative")
	}
	if c.Reproduction.SurvivalThreshold <= 0 || c.Reproduction.SurvivalThreshold > 1 {
		return invalid("survival_threshold must be in (0, 1]")
	}
	if !validSelections[strings.ToLower(c.Reproduction.Selection)] {
		return invalid("invalid selection '%s', must be one of 'uniform', 'tournament', 'roulette'", c.Reproduction.Selection)
	}
	if c.Reproduction.TournamentSize <= 0 {
		return invalid("tournament_size must be positive")
	}
	if c.Reproduction.CrossoverRate < 0 || c.Reproduction.CrossoverRate > 1 {
		return invalid("crossover_rate must be between 0 and 1")
	}
	if !validCrossoverTypes[strings.ToLower(c.Reproduction.CrossoverType)] {
		return invalid("invalid crossover_type '%s', must be one of 'neuron', 'uniform', 'point'", c.Reproduction.CrossoverType)
	}

	if c.Stagnation.MaxStagnation <= 0 {
		return invalid("max_stagnation must be positive")
	}

	if err := c.Sensors.validate(); err != nil {
		return invalid("%v", err)
	}

	if c.Episode.MaxTicks <= 0 {
		return invalid("max_ticks must be positive")
	}
	if !(c.Episode.TickSeconds > 0) {
		return invalid("tick_seconds must be positive")
	}
	if c.Episode.VehiclesPerRow <= 0 {
		return invalid("vehicles_per_row must be positive")
	}
	if c.Episode.ForwardSpacing < 0 || c.Episode.LateralSpacing < 0 {
		return invalid("vehicle spacing cannot be negative")
	}

	if !(c.Track.Width > 0) {
		return invalid("track width must be positive")
	}
	if !(c.Track.WallThickness > 0) {
		return invalid("track wall_thickness must be positive")
	}
	if len(c.Track.Points)%2 != 0 {
		return invalid("track points must be x y pairs, got %d values", len(c.Track.Points))
	}
	return nil
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
