package forecast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"QCast/internal/domain/models"
	"QCast/internal/domain/service"
	"QCast/internal/quantum"
	"QCast/pkg/logger"

	"gonum.org/v1/gonum/stat"
)

const (
	zScore95   = 1.96
	confidence = 0.95
)

// Config configures the forecasting orchestrator.
type Config struct {
	SequenceLength  int
	Features        []string
	HiddenSize      int
	NumLayers       int
	Dropout         float64
	LearningRate    float64
	BenchmarkEpochs int
	Seed            int64
	CircuitTimeout  time.Duration
}

// Forecaster owns the full model lifecycle: fit on historical data, roll
// multi-step forecasts forward and compute confidence bands. State moves
// one way from untrained to trained; re-training replaces all learned
// state. One Forecaster per logical model; concurrent calls are serialized
// by the internal mutex.
type Forecaster struct {
	mu      sync.Mutex
	cfg     Config
	backend quantum.Descriptor
	exec    quantum.Executor
	log     *logger.Logger
	metrics service.Metrics

	norm    *NormalizationState
	enc     *Encoder
	trained bool
}

// New builds a forecaster bound to an explicit backend. Tests inject a
// ClassicalFallback descriptor for deterministic behavior.
func New(cfg Config, backend quantum.Descriptor, exec quantum.Executor, log *logger.Logger, m service.Metrics) *Forecaster {
	if log == nil {
		log = logger.Nop()
	}
	if m == nil {
		m = service.NopMetrics{}
	}
	if cfg.BenchmarkEpochs <= 0 {
		cfg.BenchmarkEpochs = 20
	}

	log.Info("forecaster initialized",
		logger.String("backend", backend.Kind.String()),
		logger.Bool("quantum_enabled", backend.QuantumEnabled()),
	)

	return &Forecaster{
		cfg:     cfg,
		backend: backend,
		exec:    exec,
		log:     log,
		metrics: m,
	}
}

// Backend returns the substrate this forecaster is bound to.
func (f *Forecaster) Backend() quantum.Descriptor {
	return f.backend
}

// QuantumEnabled reports whether the quantum path is active.
func (f *Forecaster) QuantumEnabled() bool {
	return f.backend.QuantumEnabled()
}

// Trained reports whether a model is available for prediction.
func (f *Forecaster) Trained() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trained
}

// ModelType names the active configuration for response metadata.
func (f *Forecaster) ModelType() string {
	if f.backend.QuantumEnabled() {
		return "quantum_lstm"
	}
	return "classical_lstm"
}

// Train fits normalization and model weights on the table, holding out the
// last 20% of windows in original temporal order for validation. It
// replaces any previously learned state. Cancellation is honored between
// epochs, never mid-gradient-step.
func (f *Forecaster) Train(ctx context.Context, table []models.Observation, epochs int) (*models.TrainResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	start := time.Now()
	f.log.Info("starting model training", logger.Int("epochs", epochs), logger.Int("rows", len(table)))

	norm, err := FitNormalization(table, f.cfg.Features)
	if err != nil {
		return nil, err
	}
	seqs, targets, err := Prepare(table, norm, f.cfg.SequenceLength)
	if err != nil {
		return nil, err
	}

	// Time series: no shuffling, the validation split is the tail.
	trainN := int(0.8 * float64(len(seqs)))
	if trainN < 1 {
		trainN = 1
	}
	trainSeqs, valSeqs := seqs[:trainN], seqs[trainN:]
	trainTargets, valTargets := targets[:trainN], targets[trainN:]

	enc := NewEncoder(EncoderConfig{
		InputSize:    len(norm.Features),
		HiddenSize:   f.cfg.HiddenSize,
		NumLayers:    f.cfg.NumLayers,
		Dropout:      f.cfg.Dropout,
		LearningRate: f.cfg.LearningRate,
		Seed:         f.cfg.Seed,
	}, f.newUnit(len(norm.Features)))

	var trainLoss, valLoss float64
	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("training interrupted: %w", err)
		}

		trainLoss = enc.TrainEpoch(ctx, trainSeqs, trainTargets)
		if len(valSeqs) > 0 {
			valLoss = enc.Loss(ctx, valSeqs, valTargets)
		} else {
			valLoss = trainLoss
		}

		if epoch%10 == 0 {
			f.log.Debug("training epoch",
				logger.Int("epoch", epoch),
				logger.Float64("train_loss", trainLoss),
				logger.Float64("val_loss", valLoss),
			)
		}
	}

	f.norm = norm
	f.enc = enc
	f.trained = true

	f.metrics.RecordTrainingDuration(time.Since(start).Seconds())
	f.log.Info("training completed",
		logger.Float64("train_loss", trainLoss),
		logger.Float64("val_loss", valLoss),
		logger.Int("fallbacks", enc.FallbackCount()),
	)

	return &models.TrainResult{
		TrainLoss:      trainLoss,
		ValLoss:        valLoss,
		QuantumEnabled: f.backend.QuantumEnabled(),
		Backend:        f.backend.Kind.String(),
		Epochs:         epochs,
		Fallbacks:      enc.FallbackCount(),
	}, nil
}

// Predict rolls the model forward hoursAhead steps from the most recent
// window. Each predicted value is fed back as the next timestep's primary
// feature while the other features are held at their last observed values —
// a documented modeling simplification, so multi-step forecasts are
// approximate and errors can compound.
func (f *Forecaster) Predict(ctx context.Context, table []models.Observation, hoursAhead int) (*models.Forecast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.trained {
		return nil, ErrNotTrained
	}
	if hoursAhead <= 0 {
		hoursAhead = 24
	}

	start := time.Now()
	rows := f.norm.Rows(table)
	if len(rows) < f.cfg.SequenceLength {
		return nil, fmt.Errorf("%w: have %d rows, need %d", ErrInsufficientData, len(rows), f.cfg.SequenceLength)
	}

	// Deep-copy the trailing window; the roll-forward mutates it.
	window := make([][]float64, f.cfg.SequenceLength)
	for i := range window {
		src := rows[len(rows)-f.cfg.SequenceLength+i]
		window[i] = append([]float64(nil), src...)
	}

	preds := make([]float64, 0, hoursAhead)
	for k := 0; k < hoursAhead; k++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("prediction interrupted: %w", err)
		}

		p := f.enc.Predict(ctx, window)
		preds = append(preds, p)

		next := append([]float64(nil), window[len(window)-1]...)
		next[0] = p
		window = append(window[1:], next)
	}

	out := make([]float64, len(preds))
	for i, p := range preds {
		out[i] = f.norm.Denormalize(p)
	}

	lower, upper, sigma := confidenceBand(out)

	f.metrics.RecordForecastLatency(time.Since(start).Seconds())
	f.metrics.RecordLastForecast(out[0])
	f.log.Info("forecast generated",
		logger.Int("hours_ahead", hoursAhead),
		logger.Float64("sigma", sigma),
	)

	return &models.Forecast{
		Predictions: out,
		HoursAhead:  hoursAhead,
		ModelType:   f.ModelType(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		ConfidenceInterval: models.ConfidenceInterval{
			Lower:      lower,
			Upper:      upper,
			Confidence: confidence,
		},
	}, nil
}

// confidenceBand derives a symmetric band from the empirical spread of the
// rolled-forward predictions. It does not model per-step uncertainty
// growth; this is a coarse approximation, not a rigorous prediction
// interval.
func confidenceBand(preds []float64) (lower, upper []float64, sigma float64) {
	sigma = stat.PopStdDev(preds, nil)
	lower = make([]float64, len(preds))
	upper = make([]float64, len(preds))
	for i, p := range preds {
		lower[i] = p - zScore95*sigma
		upper[i] = p + zScore95*sigma
	}
	return lower, upper, sigma
}

func (f *Forecaster) newUnit(width int) *quantum.Unit {
	// A disabled quantum path means plain pass-through in the encoder; the
	// unit's classical path only serves per-sample fallbacks.
	if !f.backend.QuantumEnabled() || f.exec == nil {
		return nil
	}
	return quantum.NewUnit(width, f.backend, f.exec, f.cfg.Seed, f.cfg.CircuitTimeout, f.log, f.metrics)
}
