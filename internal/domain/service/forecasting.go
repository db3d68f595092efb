package service

// Metrics records operational metrics for the forecasting engine.
type Metrics interface {
	RecordCircuitExecution(backend string)
	RecordFallback(reason string)
	RecordTrainingDuration(seconds float64)
	RecordForecastLatency(seconds float64)
	RecordLastForecast(value float64)
}

// NopMetrics discards all recordings. Intended for tests.
type NopMetrics struct{}

func (NopMetrics) RecordCircuitExecution(string)  {}
func (NopMetrics) RecordFallback(string)          {}
func (NopMetrics) RecordTrainingDuration(float64) {}
func (NopMetrics) RecordForecastLatency(float64)  {}
func (NopMetrics) RecordLastForecast(float64)     {}
