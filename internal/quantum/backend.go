package quantum

import "context"

// Kind enumerates the execution substrates for the variational unit.
// A unit is bound to one kind at construction and may downgrade per call on
// execution failure, never upgrade within a run.
type Kind int

const (
	RemoteHardware Kind = iota
	LocalSimulator
	ClassicalFallback
)

func (k Kind) String() string {
	switch k {
	case RemoteHardware:
		return "remote_hardware"
	case LocalSimulator:
		return "local_simulator"
	default:
		return "classical_fallback"
	}
}

// Descriptor identifies the substrate a variational unit is bound to. It is
// an explicit value threaded into every unit, never ambient global state, so
// tests can inject a fixed backend deterministically.
type Descriptor struct {
	Kind Kind
	Name string
}

// QuantumEnabled reports whether the descriptor selects a quantum path.
func (d Descriptor) QuantumEnabled() bool {
	return d.Kind != ClassicalFallback
}

// Executor evaluates the variational circuit on some substrate and returns
// the per-qubit Z expectation values, each in [-1, 1].
type Executor interface {
	// Run expects len(angles) == 2*nQubits.
	Run(ctx context.Context, angles []float64, nQubits int) ([]float64, error)
	Name() string
}
