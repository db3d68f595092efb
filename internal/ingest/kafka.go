package ingest

import (
	"context"

	"QCast/internal/history"
	"QCast/pkg/logger"
)

// ObservationHandler feeds observations from a Kafka topic into the history
// buffer. Messages may carry a single observation or an array.
type ObservationHandler struct {
	topic string
	store *history.Store
	log   *logger.Logger
}

func NewObservationHandler(topic string, store *history.Store, log *logger.Logger) *ObservationHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ObservationHandler{topic: topic, store: store, log: log}
}

func (h *ObservationHandler) Topic() string {
	return h.topic
}

func (h *ObservationHandler) Handle(_ context.Context, data []byte) error {
	batch, err := decodeObservations(data)
	if err != nil {
		return err
	}

	h.store.Append(batch...)
	h.log.Debug("observations ingested", logger.Int("count", len(batch)), logger.String("source", "kafka"))
	return nil
}
