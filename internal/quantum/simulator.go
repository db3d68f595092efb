package quantum

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
)

// Simulator is an exact statevector simulator for the variational circuit.
// Expectation values are computed analytically, so it is deterministic.
// Memory grows as 2^n; the variational unit never asks for more than four
// qubits.
type Simulator struct{}

func NewSimulator() *Simulator {
	return &Simulator{}
}

func (s *Simulator) Name() string {
	return "statevector_simulator"
}

// Run evaluates the variational circuit and returns the Z expectation value
// of each qubit.
func (s *Simulator) Run(ctx context.Context, angles []float64, nQubits int) ([]float64, error) {
	if nQubits <= 0 {
		return nil, fmt.Errorf("simulator: invalid qubit count %d", nQubits)
	}
	if len(angles) != 2*nQubits {
		return nil, fmt.Errorf("simulator: want %d angles, got %d", 2*nQubits, len(angles))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := make([]complex128, 1<<nQubits)
	state[0] = 1

	for _, g := range VariationalCircuit(angles, nQubits) {
		switch g.Name {
		case "RY":
			applyRY(state, g.Qubits[0], g.Params[0])
		case "RZ":
			applyRZ(state, g.Qubits[0], g.Params[0])
		case "CX":
			applyCX(state, g.Qubits[0], g.Qubits[1])
		default:
			return nil, fmt.Errorf("simulator: unsupported gate %q", g.Name)
		}
	}

	out := make([]float64, nQubits)
	for q := 0; q < nQubits; q++ {
		out[q] = expectationZ(state, q)
	}
	return out, nil
}

// applyRY applies RY(theta) to qubit q. Basis convention: qubit q maps to
// bit q of the state index.
func applyRY(state []complex128, q int, theta float64) {
	c := complex(math.Cos(theta/2), 0)
	sn := complex(math.Sin(theta/2), 0)
	mask := 1 << q
	for i := range state {
		if i&mask != 0 {
			continue
		}
		j := i | mask
		a, b := state[i], state[j]
		state[i] = c*a - sn*b
		state[j] = sn*a + c*b
	}
}

// applyRZ applies RZ(theta) to qubit q.
func applyRZ(state []complex128, q int, theta float64) {
	phase0 := cmplx.Exp(complex(0, -theta/2))
	phase1 := cmplx.Exp(complex(0, theta/2))
	mask := 1 << q
	for i := range state {
		if i&mask == 0 {
			state[i] *= phase0
		} else {
			state[i] *= phase1
		}
	}
}

// applyCX applies a CX with the given control and target qubits.
func applyCX(state []complex128, control, target int) {
	cm := 1 << control
	tm := 1 << target
	for i := range state {
		if i&cm != 0 && i&tm == 0 {
			j := i | tm
			state[i], state[j] = state[j], state[i]
		}
	}
}

// expectationZ computes <Z> on qubit q: +1 weight for basis states with the
// qubit at |0>, -1 for |1>.
func expectationZ(state []complex128, q int) float64 {
	mask := 1 << q
	var exp float64
	for i, amp := range state {
		p := real(amp)*real(amp) + imag(amp)*imag(amp)
		if i&mask == 0 {
			exp += p
		} else {
			exp -= p
		}
	}
	return exp
}
