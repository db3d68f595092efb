package quantum

import (
	"context"
	"math"
	"testing"
)

func TestSimulatorIdentityCircuit(t *testing.T) {
	sim := NewSimulator()
	exps, err := sim.Run(context.Background(), make([]float64, 8), 4)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(exps) != 4 {
		t.Fatalf("expected 4 expectations, got %d", len(exps))
	}
	// All-zero angles leave the state at |0...0>: every <Z> is +1.
	for q, e := range exps {
		if math.Abs(e-1) > 1e-12 {
			t.Fatalf("qubit %d: expected <Z>=1, got %v", q, e)
		}
	}
}

func TestSimulatorRYPiFlips(t *testing.T) {
	sim := NewSimulator()
	// RY(pi) on a single qubit takes |0> to |1>.
	exps, err := sim.Run(context.Background(), []float64{math.Pi, 0}, 1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if math.Abs(exps[0]+1) > 1e-12 {
		t.Fatalf("expected <Z>=-1, got %v", exps[0])
	}
}

func TestSimulatorEntanglement(t *testing.T) {
	sim := NewSimulator()
	// RY(pi/2) on qubit 0 then CX chain: qubit 1 inherits qubit 0's
	// population, so both expectations vanish.
	exps, err := sim.Run(context.Background(), []float64{math.Pi / 2, 0, 0, 0}, 2)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for q, e := range exps {
		if math.Abs(e) > 1e-12 {
			t.Fatalf("qubit %d: expected <Z>=0, got %v", q, e)
		}
	}
}

func TestSimulatorExpectationsBounded(t *testing.T) {
	sim := NewSimulator()
	angles := []float64{0.3, -1.2, 2.5, 0.7, -0.1, 1.9, 3.0, -2.2}
	exps, err := sim.Run(context.Background(), angles, 4)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for q, e := range exps {
		if e < -1 || e > 1 {
			t.Fatalf("qubit %d: expectation %v out of [-1, 1]", q, e)
		}
	}
}

func TestSimulatorDeterministic(t *testing.T) {
	sim := NewSimulator()
	angles := []float64{0.5, 0.25, -0.75, 1.5, 0.1, -0.3, 0.9, -1.1}
	a, err := sim.Run(context.Background(), angles, 4)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := sim.Run(context.Background(), angles, 4)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for q := range a {
		if a[q] != b[q] {
			t.Fatalf("qubit %d: %v != %v", q, a[q], b[q])
		}
	}
}

func TestSimulatorRejectsBadArity(t *testing.T) {
	sim := NewSimulator()
	if _, err := sim.Run(context.Background(), []float64{1, 2, 3}, 2); err == nil {
		t.Fatalf("expected arity error")
	}
	if _, err := sim.Run(context.Background(), nil, 0); err == nil {
		t.Fatalf("expected qubit count error")
	}
}
