package models

// ConfidenceInterval is a symmetric band around the rolled-forward
// predictions. It is derived from their empirical spread, not a formally
// derived statistical prediction interval.
type ConfidenceInterval struct {
	Lower      []float64 `json:"lower"`
	Upper      []float64 `json:"upper"`
	Confidence float64   `json:"confidence"`
}

// Forecast is an immutable multi-step-ahead forecast. Created once per
// predict call.
type Forecast struct {
	Predictions        []float64          `json:"predictions"`
	HoursAhead         int                `json:"hours_ahead"`
	ModelType          string             `json:"model_type"`
	Timestamp          string             `json:"timestamp"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
}

// TrainResult reports the outcome of one training run.
type TrainResult struct {
	TrainLoss      float64 `json:"train_loss"`
	ValLoss        float64 `json:"val_loss"`
	QuantumEnabled bool    `json:"quantum_enabled"`
	Backend        string  `json:"backend"`
	Epochs         int     `json:"epochs"`
	Fallbacks      int     `json:"fallbacks"`
}

// ModelMetrics holds error metrics for one backend configuration.
type ModelMetrics struct {
	MSE  float64 `json:"mse"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
}

// BenchmarkReport compares the quantum-enabled and classical configurations
// trained on the same windows with identical initialization.
type BenchmarkReport struct {
	ClassicalLSTM         ModelMetrics `json:"classical_lstm"`
	QuantumLSTM           ModelMetrics `json:"quantum_lstm"`
	ImprovementPercentage float64      `json:"improvement_percentage"`
	QuantumAdvantage      bool         `json:"quantum_advantage"`
}
