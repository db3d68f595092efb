package ingest

import (
	"context"
	"testing"

	"QCast/internal/history"
)

func TestDecodeObservationsSingle(t *testing.T) {
	batch, err := decodeObservations([]byte(`{"price": 101.5, "volume": 900}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(batch) != 1 || batch[0].Get("price") != 101.5 {
		t.Fatalf("unexpected batch %v", batch)
	}
}

func TestDecodeObservationsArray(t *testing.T) {
	batch, err := decodeObservations([]byte(`[{"price": 1}, {"price": 2}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(batch) != 2 || batch[1].Get("price") != 2 {
		t.Fatalf("unexpected batch %v", batch)
	}
}

func TestDecodeObservationsRejectsGarbage(t *testing.T) {
	if _, err := decodeObservations([]byte(`"not an observation"`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestKafkaHandlerAppends(t *testing.T) {
	store := history.NewStore(100)
	h := NewObservationHandler("observations", store, nil)
	if h.Topic() != "observations" {
		t.Fatalf("topic %q", h.Topic())
	}

	if err := h.Handle(context.Background(), []byte(`[{"price": 1}, {"price": 2}]`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("store len %d, want 2", store.Len())
	}

	if err := h.Handle(context.Background(), []byte(`not json`)); err == nil {
		t.Fatalf("expected error on malformed message")
	}
	if store.Len() != 2 {
		t.Fatalf("malformed message must not append")
	}
}
