package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors exports run telemetry on a dedicated registry.
type Collectors struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	samples       prometheus.Counter
	step          prometheus.Gauge
	observables   *prometheus.GaugeVec
}

func NewCollectors() *Collectors {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collectors{
		registry: reg,
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "atomsim",
			Name:      "stage_duration_seconds",
			Help:      "Wall time of one pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"stage"}),
		stageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atomsim",
			Name:      "stage_errors_total",
			Help:      "Stages that aborted a step.",
		}, []string{"stage"}),
		samples: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "atomsim",
			Name:      "samples_total",
			Help:      "Metric sample points recorded.",
		}),
		step: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "atomsim",
			Name:      "step",
			Help:      "Index of the last sampled step.",
		}),
		observables: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "atomsim",
			Name:      "observable",
			Help:      "Latest value of each run metric.",
		}, []string{"metric"}),
	}
}

// ObserveStage records one stage execution. It matches
// pipeline.StageObserver.
func (c *Collectors) ObserveStage(stage string, elapsed time.Duration, err error) {
	c.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if err != nil {
		c.stageErrors.WithLabelValues(stage).Inc()
	}
}

// OnSample implements sim.Observer.
func (c *Collectors) OnSample(step int, _ float64, values map[string]float64) {
	c.samples.Inc()
	c.step.Set(float64(step))
	for name, v := range values {
		c.observables.WithLabelValues(name).Set(v)
	}
}

func (c *Collectors) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
