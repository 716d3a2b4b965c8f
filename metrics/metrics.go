// Package metrics exports training progress as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/baldhumanity/raice/sim"
)

// Collector records generation reports. It implements sim.Observer.
type Collector struct {
	generations  prometheus.Counter
	generation   *prometheus.GaugeVec
	bestFitness  *prometheus.GaugeVec
	meanFitness  *prometheus.GaugeVec
	stdevFitness *prometheus.GaugeVec
	endings      *prometheus.CounterVec
	resets       prometheus.Counter
	duration     prometheus.Histogram
}

// NewCollector creates the collector's metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raice_generations_total",
			Help: "Generations evaluated.",
		}),
		generation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "raice_generation",
			Help: "Number of the last evaluated generation.",
		}, []string{"run"}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "raice_best_fitness",
			Help: "Best fitness of the last evaluated generation.",
		}, []string{"run"}),
		meanFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "raice_mean_fitness",
			Help: "Mean fitness of the last evaluated generation.",
		}, []string{"run"}),
		stdevFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "raice_fitness_stdev",
			Help: "Fitness standard deviation of the last evaluated generation.",
		}, []string{"run"}),
		endings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "raice_episode_endings_total",
			Help: "Agent episodes ended, by reason.",
		}, []string{"reason"}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raice_population_resets_total",
			Help: "Populations re-seeded after stagnating.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "raice_generation_duration_seconds",
			Help:    "Wall time of one generation.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}

	for _, m := range []prometheus.Collector{
		c.generations, c.generation, c.bestFitness, c.meanFitness,
		c.stdevFitness, c.endings, c.resets, c.duration,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveGeneration updates every metric from one report.
func (c *Collector) ObserveGeneration(report sim.GenerationReport) {
	run := prometheus.Labels{"run": report.RunID}
	c.generations.Inc()
	c.generation.With(run).Set(float64(report.Generation))
	c.bestFitness.With(run).Set(report.Best.Value())
	c.meanFitness.With(run).Set(report.Summary.Mean)
	c.stdevFitness.With(run).Set(report.Summary.Stdev)
	for reason, n := range report.Reasons {
		label := string(reason)
		if reason == sim.ReasonNone {
			label = "none"
		}
		c.endings.WithLabelValues(label).Add(float64(n))
	}
	if report.Reset {
		c.resets.Inc()
	}
	c.duration.Observe(report.Elapsed.Seconds())
}
