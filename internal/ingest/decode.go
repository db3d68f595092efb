package ingest

import (
	"encoding/json"
	"fmt"

	"QCast/internal/domain/models"
)

// decodeObservations accepts either a single JSON observation or an array.
func decodeObservations(data []byte) ([]models.Observation, error) {
	var batch []models.Observation
	if err := json.Unmarshal(data, &batch); err == nil {
		return batch, nil
	}
	var single models.Observation
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("decode observation: %w", err)
	}
	return []models.Observation{single}, nil
}
