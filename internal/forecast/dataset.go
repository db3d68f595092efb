package forecast

import (
	"fmt"

	"QCast/internal/domain/models"

	"gonum.org/v1/gonum/stat"
)

// NormalizationState holds the per-feature affine transform learned once
// from training data. Prediction-time normalization must reuse the state
// learned during training, so fitting and transforming are explicit separate
// steps. The primary feature is always Features[0].
type NormalizationState struct {
	Features []string
	Mean     []float64
	Std      []float64
}

// FitNormalization learns per-feature mean/scale from the table. Of the
// required features it uses those present in every observation, preserving
// the required order; ErrSchema when none qualify.
func FitNormalization(table []models.Observation, required []string) (*NormalizationState, error) {
	present := presentFeatures(table, required)
	if len(present) == 0 {
		return nil, fmt.Errorf("%w: want any of %v", ErrSchema, required)
	}

	s := &NormalizationState{
		Features: present,
		Mean:     make([]float64, len(present)),
		Std:      make([]float64, len(present)),
	}

	col := make([]float64, len(table))
	for fi, name := range present {
		for i, obs := range table {
			col[i] = obs.Get(name)
		}
		mean, std := stat.MeanStdDev(col, nil)
		if !(std > 0) { // constant column or single row
			std = 1
		}
		s.Mean[fi] = mean
		s.Std[fi] = std
	}
	return s, nil
}

// Rows applies the learned transform, producing one normalized feature
// vector per observation. It never refits.
func (s *NormalizationState) Rows(table []models.Observation) [][]float64 {
	rows := make([][]float64, len(table))
	for i, obs := range table {
		row := make([]float64, len(s.Features))
		for fi, name := range s.Features {
			row[fi] = (obs.Get(name) - s.Mean[fi]) / s.Std[fi]
		}
		rows[i] = row
	}
	return rows
}

// Denormalize maps a normalized primary-feature value back to its original
// scale.
func (s *NormalizationState) Denormalize(v float64) float64 {
	return v*s.Std[0] + s.Mean[0]
}

// MakeWindows slices normalized rows into overlapping fixed-length windows.
// Window i covers rows [i, i+seqLen) and its target is the primary feature
// at row i+seqLen. Yields exactly len(rows)-seqLen windows;
// ErrInsufficientData when that is not positive.
func MakeWindows(rows [][]float64, seqLen int) (sequences [][][]float64, targets []float64, err error) {
	n := len(rows) - seqLen
	if n <= 0 {
		return nil, nil, fmt.Errorf("%w: have %d rows, need more than %d", ErrInsufficientData, len(rows), seqLen)
	}

	sequences = make([][][]float64, n)
	targets = make([]float64, n)
	for i := 0; i < n; i++ {
		sequences[i] = rows[i : i+seqLen]
		targets[i] = rows[i+seqLen][0]
	}
	return sequences, targets, nil
}

// Prepare is the fit-free preparation path: transform with an existing state
// and window the result.
func Prepare(table []models.Observation, state *NormalizationState, seqLen int) ([][][]float64, []float64, error) {
	return MakeWindows(state.Rows(table), seqLen)
}

func presentFeatures(table []models.Observation, required []string) []string {
	if len(table) == 0 {
		return nil
	}
	var present []string
	for _, name := range required {
		ok := true
		for _, obs := range table {
			if !obs.Has(name) {
				ok = false
				break
			}
		}
		if ok {
			present = append(present, name)
		}
	}
	return present
}
