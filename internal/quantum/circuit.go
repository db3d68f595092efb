package quantum

import (
	"fmt"
	"strings"
)

// Gate is one operation of the fixed variational topology.
type Gate struct {
	Name   string    `json:"name"`
	Qubits []int     `json:"qubits"`
	Params []float64 `json:"params,omitempty"`
}

// VariationalCircuit builds the fixed circuit topology: one RY/RZ rotation
// pair per qubit followed by a linear chain of CX entangling gates.
// len(angles) must be 2*n; angles[i] drives RY on qubit i, angles[i+n]
// drives RZ on qubit i.
func VariationalCircuit(angles []float64, n int) []Gate {
	gates := make([]Gate, 0, 3*n)
	for i := 0; i < n; i++ {
		gates = append(gates, Gate{Name: "RY", Qubits: []int{i}, Params: []float64{angles[i]}})
		gates = append(gates, Gate{Name: "RZ", Qubits: []int{i}, Params: []float64{angles[i+n]}})
	}
	for i := 0; i < n-1; i++ {
		gates = append(gates, Gate{Name: "CX", Qubits: []int{i, i + 1}})
	}
	return gates
}

// ToQASM serializes a circuit to OpenQASM 3.0 for submission to remote
// hardware.
func ToQASM(gates []Gate, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "OPENQASM 3.0;\ninclude \"stdgates.inc\";\nqubit[%d] q;\nbit[%d] c;\n\n", n, n)

	for _, g := range gates {
		name := qasmGateName(g.Name)
		if len(g.Params) > 0 {
			b.WriteString(name + "(")
			for i, p := range g.Params {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%f", p)
			}
			b.WriteString(") ")
		} else {
			b.WriteString(name + " ")
		}
		for i, q := range g.Qubits {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "q[%d]", q)
		}
		b.WriteString(";\n")
	}

	b.WriteString("\nc = measure q;\n")
	return b.String()
}

func qasmGateName(name string) string {
	mapping := map[string]string{
		"RX": "rx", "RY": "ry", "RZ": "rz",
		"CX": "cx", "CZ": "cz",
		"H": "h", "X": "x", "Y": "y", "Z": "z",
	}
	if mapped, ok := mapping[name]; ok {
		return mapped
	}
	return strings.ToLower(name)
}
