package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"QCast/internal/domain/models"
)

var testFeatures = []string{"price", "volume", "volatility", "demand"}

func makeTable(n int) []models.Observation {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	table := make([]models.Observation, n)
	for i := range table {
		x := float64(i)
		table[i] = models.Observation{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Fields: map[string]float64{
				"price":      100 + 10*math.Sin(x/6),
				"volume":     1000 + 50*math.Cos(x/8),
				"volatility": 0.2 + 0.05*math.Sin(x/3),
				"demand":     500 + 20*math.Sin(x/12),
			},
		}
	}
	return table
}

func TestFitNormalizationKeepsOrder(t *testing.T) {
	s, err := FitNormalization(makeTable(48), testFeatures)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if len(s.Features) != 4 {
		t.Fatalf("expected 4 features, got %v", s.Features)
	}
	for i, name := range testFeatures {
		if s.Features[i] != name {
			t.Fatalf("feature order broken: %v", s.Features)
		}
	}
}

func TestFitNormalizationDropsPartialColumns(t *testing.T) {
	table := makeTable(10)
	delete(table[3].Fields, "volume")

	s, err := FitNormalization(table, testFeatures)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if len(s.Features) != 3 {
		t.Fatalf("expected volume dropped, got %v", s.Features)
	}
	for _, name := range s.Features {
		if name == "volume" {
			t.Fatalf("volume should not survive a partial column")
		}
	}
}

func TestFitNormalizationNoUsableColumns(t *testing.T) {
	table := []models.Observation{
		{Fields: map[string]float64{"other": 1}},
		{Fields: map[string]float64{"other": 2}},
	}
	if _, err := FitNormalization(table, testFeatures); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestFitNormalizationConstantColumn(t *testing.T) {
	table := makeTable(10)
	for i := range table {
		table[i].Fields["price"] = 42
	}
	s, err := FitNormalization(table, testFeatures)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	rows := s.Rows(table)
	for _, row := range rows {
		if math.IsNaN(row[0]) || math.IsInf(row[0], 0) {
			t.Fatalf("constant column produced non-finite value %v", row[0])
		}
	}
}

func TestDenormalizeRoundTrip(t *testing.T) {
	table := makeTable(48)
	s, err := FitNormalization(table, testFeatures)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	rows := s.Rows(table)
	for i, row := range rows {
		want := table[i].Get("price")
		got := s.Denormalize(row[0])
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("round trip mismatch at %d: got %v want %v", i, got, want)
		}
	}
}

func TestMakeWindowsCount(t *testing.T) {
	const seqLen = 24
	for _, n := range []int{25, 48, 100} {
		s, err := FitNormalization(makeTable(n), testFeatures)
		if err != nil {
			t.Fatalf("fit: %v", err)
		}
		seqs, targets, err := Prepare(makeTable(n), s, seqLen)
		if err != nil {
			t.Fatalf("prepare: %v", err)
		}
		if len(seqs) != n-seqLen {
			t.Fatalf("n=%d: expected %d windows, got %d", n, n-seqLen, len(seqs))
		}
		if len(targets) != len(seqs) {
			t.Fatalf("targets/windows mismatch: %d vs %d", len(targets), len(seqs))
		}
		for _, seq := range seqs {
			if len(seq) != seqLen {
				t.Fatalf("window length %d, want %d", len(seq), seqLen)
			}
		}
	}
}

func TestMakeWindowsInsufficientData(t *testing.T) {
	table := makeTable(24)
	s, err := FitNormalization(table, testFeatures)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	// Exactly seqLen rows leaves no target row.
	if _, _, err := Prepare(table, s, 24); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestWindowTargetAlignment(t *testing.T) {
	table := makeTable(30)
	s, err := FitNormalization(table, testFeatures)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	rows := s.Rows(table)
	seqs, targets, err := MakeWindows(rows, 24)
	if err != nil {
		t.Fatalf("windows: %v", err)
	}
	for i := range seqs {
		if targets[i] != rows[i+24][0] {
			t.Fatalf("target %d misaligned", i)
		}
	}
}
