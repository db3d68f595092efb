package models

// ForecastRequest is the POST /forecast body.
type ForecastRequest struct {
	HistoricalData []Observation `json:"historical_data"`
	HoursAhead     int           `json:"hours_ahead" default:"24" validate:"gte=1,lte=168"`
}

// BenchmarkRequest is the POST /benchmark body.
type BenchmarkRequest struct {
	TestData []Observation `json:"test_data"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status           string `json:"status"`
	QuantumAvailable bool   `json:"quantum_available"`
	Service          string `json:"service"`
	Timestamp        string `json:"timestamp"`
}

// ForecastResponse wraps a successful forecast.
type ForecastResponse struct {
	Success  bool      `json:"success"`
	Forecast *Forecast `json:"forecast"`
}

// BenchmarkResponse wraps a successful benchmark run.
type BenchmarkResponse struct {
	Success          bool             `json:"success"`
	BenchmarkResults *BenchmarkReport `json:"benchmark_results"`
}
