package raice

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	require.NoError(t, config.Validate())
	assert.Equal(t, config.Sensors.Inputs(), config.Genome.NumInputs)
	assert.Equal(t, ControlOutputs, config.Genome.NumOutputs)
}

func TestValidateRefreshesDerivedFields(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.Sensors.RayCount = 5
	require.NoError(t, config.Validate())
	assert.Equal(t, 7, config.Genome.NumInputs)
}

func TestLoadConfigIni(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "raice.ini", `
[Evolution]
pop_size               = 12
generations            = 7
fitness_threshold      = 250.5
no_fitness_termination = true
seed                   = 42

[Genome]
hidden_layers     = 6 4
hidden_activation = softsign ; inline comment

[Reproduction]
selection      = roulette
crossover_type = point

[Sensors]
ray_count = 5

[Track]
width  = 90
points = 0 0 100 0 100 100
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 12, config.Evolution.PopSize)
	assert.Equal(t, 7, config.Evolution.Generations)
	assert.Equal(t, 250.5, config.Evolution.FitnessThreshold)
	assert.True(t, config.Evolution.NoFitnessTermination)
	assert.Equal(t, int64(42), config.Evolution.Seed)
	assert.Equal(t, []int{6, 4}, config.Genome.HiddenLayers)
	assert.Equal(t, "softsign", config.Genome.HiddenActivation)
	assert.Equal(t, "roulette", config.Reproduction.Selection)
	assert.Equal(t, "point", config.Reproduction.CrossoverType)
	assert.Equal(t, 5, config.Sensors.RayCount)
	assert.Equal(t, 7, config.Genome.NumInputs)
	assert.Equal(t, 90.0, config.Track.Width)
	assert.Equal(t, []float64{0, 0, 100, 0, 100, 100}, config.Track.Points)

	// Sections and keys left out keep their defaults.
	defaults := DefaultConfig()
	assert.Equal(t, defaults.Stagnation, config.Stagnation)
	assert.Equal(t, defaults.Episode, config.Episode)
	assert.Equal(t, defaults.Sensors.RayLength, config.Sensors.RayLength)
}

func TestLoadConfigYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "raice.yaml", `
evolution:
  pop_size: 20
  reset_on_stagnation: true
genome:
  hidden_layers: [10]
stagnation:
  max_stagnation: 4
episode:
  max_ticks: 300
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 20, config.Evolution.PopSize)
	assert.True(t, config.Evolution.ResetOnStagnation)
	assert.Equal(t, []int{10}, config.Genome.HiddenLayers)
	assert.Equal(t, 4, config.Stagnation.MaxStagnation)
	assert.Equal(t, 300, config.Episode.MaxTicks)
	assert.Equal(t, DefaultConfig().Genome.HiddenActivation, config.Genome.HiddenActivation)
}

func TestLoadConfigWithoutHiddenLayers(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"raice.ini":  "[Genome]\nhidden_layers =\n",
		"raice.yaml": "genome:\n  hidden_layers: []\n",
	}
	for name, content := range files {
		name, content := name, content
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			config, err := LoadConfig(writeConfig(t, name, content))
			require.NoError(t, err)
			assert.Empty(t, config.Genome.HiddenLayers)
			assert.Equal(t, (config.Genome.NumInputs+1)*config.Genome.NumOutputs,
				ExpectedWeightCount(config.Genome.NumInputs, config.Genome.HiddenLayers, config.Genome.NumOutputs))
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.ini"))
		assert.Error(t, err)
	})

	t.Run("unknown yaml field", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "bad.yml", "evolution:\n  population: 3\n")
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	cases := map[string]string{
		"unbounded hidden activation": "[Genome]\nhidden_activation = relu\n",
		"unknown activation":          "[Genome]\nhidden_activation = swish\n",
		"zero hidden layer":           "[Genome]\nhidden_layers = 4 0\n",
		"bad selection":               "[Reproduction]\nselection = lottery\n",
		"bad crossover":               "[Reproduction]\ncrossover_type = blend\n",
		"survival threshold":          "[Reproduction]\nsurvival_threshold = 0\n",
		"no rays":                     "[Sensors]\nray_count = 0\n",
		"zero width":                  "[Track]\nwidth = 0\n",
		"odd points":                  "[Track]\npoints = 1 2 3\n",
		"negative population":         "[Evolution]\npop_size = -1\n",
	}
	for name, content := range cases {
		name, content := name, content
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadConfig(writeConfig(t, "bad.ini", content))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
