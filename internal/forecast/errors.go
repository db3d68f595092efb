package forecast

import "errors"

var (
	// ErrSchema means none of the required feature columns are present.
	ErrSchema = errors.New("none of the required feature columns found in data")

	// ErrInsufficientData means there are too few observations to build a
	// single window.
	ErrInsufficientData = errors.New("not enough observations for one window")

	// ErrNotTrained means predict or benchmark was called before train.
	ErrNotTrained = errors.New("model must be trained before making predictions")
)
