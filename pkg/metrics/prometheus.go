package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.service.Metrics using Prometheus.
type Recorder struct {
	circuitExecutions *prometheus.CounterVec
	fallbacks         *prometheus.CounterVec
	trainingDuration  prometheus.Histogram
	forecastLatency   prometheus.Histogram
	lastForecast      prometheus.Gauge
}

var (
	instance *Recorder
	once     sync.Once
)

// New returns the process-wide Prometheus metrics recorder. Collectors are
// registered once; subsequent calls return the same recorder.
func New() *Recorder {
	once.Do(func() {
		instance = &Recorder{
			circuitExecutions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "qcast_circuit_executions_total",
					Help: "Total number of variational circuit executions by backend",
				},
				[]string{"backend"},
			),
			fallbacks: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "qcast_fallbacks_total",
					Help: "Total number of per-sample classical fallbacks by reason",
				},
				[]string{"reason"},
			),
			trainingDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "qcast_training_duration_seconds",
					Help:    "Duration of model training in seconds",
					Buckets: []float64{1, 5, 15, 60, 300, 1200},
				},
			),
			forecastLatency: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "qcast_forecast_duration_seconds",
					Help:    "Duration of forecast generation in seconds",
					Buckets: prometheus.DefBuckets,
				},
			),
			lastForecast: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "qcast_last_forecast_value",
					Help: "First-step value of the most recent forecast",
				},
			),
		}
	})
	return instance
}

// RecordCircuitExecution records one circuit evaluation on a backend.
func (r *Recorder) RecordCircuitExecution(backend string) {
	r.circuitExecutions.WithLabelValues(backend).Inc()
}

// RecordFallback records a per-sample classical fallback.
func (r *Recorder) RecordFallback(reason string) {
	r.fallbacks.WithLabelValues(reason).Inc()
}

// RecordTrainingDuration records how long a training run took.
func (r *Recorder) RecordTrainingDuration(seconds float64) {
	r.trainingDuration.Observe(seconds)
}

// RecordForecastLatency records how long forecast generation took.
func (r *Recorder) RecordForecastLatency(seconds float64) {
	r.forecastLatency.Observe(seconds)
}

// RecordLastForecast records the first predicted value of the latest forecast.
func (r *Recorder) RecordLastForecast(value float64) {
	r.lastForecast.Set(value)
}
