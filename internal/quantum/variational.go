package quantum

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"QCast/internal/domain/service"
	"QCast/pkg/logger"
)

// MaxQubits bounds the circuit width for NISQ devices.
const MaxQubits = 4

// boundEps keeps the transform output strictly inside (-1, 1) on both paths
// so the encoder's training dynamics are backend-independent.
const boundEps = 1e-7

// Result is the tagged outcome of one per-sample transform. Fallback is set
// only when the quantum path was selected and this sample's execution failed;
// callers can observe and assert on fallback occurrences.
type Result struct {
	Vector   []float64
	Fallback bool
	Reason   string
}

// Unit is the parametrized per-sample transform. The first
// min(MaxQubits, width) channels are active; surplus channels pass through
// unchanged. The backend binding is fixed at construction.
type Unit struct {
	width   int
	nQubits int
	backend Descriptor
	exec    Executor
	timeout time.Duration

	// frozen affine weights of the classical path, row-major n x n
	weights []float64
	bias    []float64

	log     *logger.Logger
	metrics service.Metrics
}

// NewUnit constructs a unit bound to the given backend. The classical-path
// weights are seeded deterministically so the fallback is a pure function of
// its input.
func NewUnit(width int, backend Descriptor, exec Executor, seed int64, timeout time.Duration, log *logger.Logger, m service.Metrics) *Unit {
	if log == nil {
		log = logger.Nop()
	}
	if m == nil {
		m = service.NopMetrics{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	n := MaxQubits
	if width < n {
		n = width
	}

	rng := rand.New(rand.NewSource(seed))
	k := 1 / math.Sqrt(float64(n))
	weights := make([]float64, n*n)
	for i := range weights {
		weights[i] = (2*rng.Float64() - 1) * k
	}
	bias := make([]float64, n)
	for i := range bias {
		bias[i] = (2*rng.Float64() - 1) * k
	}

	return &Unit{
		width:   width,
		nQubits: n,
		backend: backend,
		exec:    exec,
		timeout: timeout,
		weights: weights,
		bias:    bias,
		log:     log,
		metrics: m,
	}
}

// NQubits returns the number of active channels.
func (u *Unit) NQubits() int {
	return u.nQubits
}

// Backend returns the substrate this unit is bound to.
func (u *Unit) Backend() Descriptor {
	return u.backend
}

// Transform maps one feature vector through the variational circuit, or
// through the classical path when the quantum path is unavailable or fails.
// Output arity equals input arity; active channels land strictly inside
// (-1, 1).
func (u *Unit) Transform(ctx context.Context, in []float64) Result {
	out := make([]float64, len(in))
	copy(out, in)

	n := u.nQubits
	if n > len(in) {
		n = len(in)
	}
	if n == 0 {
		return Result{Vector: out}
	}

	fellBack := false
	reason := ""

	if u.backend.QuantumEnabled() && u.exec != nil {
		angles := u.deriveAngles(in, n)
		cctx, cancel := context.WithTimeout(ctx, u.timeout)
		exps, err := u.exec.Run(cctx, angles, n)
		cancel()
		if err == nil {
			u.metrics.RecordCircuitExecution(u.backend.Kind.String())
			for i := 0; i < n; i++ {
				out[i] = clampOpen(exps[i])
			}
			return Result{Vector: out}
		}

		// Partial failure must not abort the batch: this sample alone
		// falls back to the classical path.
		fellBack = true
		reason = err.Error()
		u.metrics.RecordFallback(fallbackReason(err))
		u.log.Warn("quantum execution failed, using classical fallback",
			logger.String("backend", u.backend.Name),
			logger.Error(err),
		)
	}

	for i := 0; i < n; i++ {
		z := u.bias[i]
		for j := 0; j < n; j++ {
			z += u.weights[i*u.nQubits+j] * in[j]
		}
		out[i] = clampOpen(math.Tanh(z))
	}

	return Result{Vector: out, Fallback: fellBack, Reason: reason}
}

// deriveAngles maps the first 2n input scalars directly to rotation angles,
// zero-padding when the vector is narrower than 2n.
func (u *Unit) deriveAngles(in []float64, n int) []float64 {
	angles := make([]float64, 2*n)
	for i := 0; i < 2*n && i < len(in); i++ {
		angles[i] = in[i]
	}
	return angles
}

func clampOpen(v float64) float64 {
	if v >= 1-boundEps {
		return 1 - boundEps
	}
	if v <= -1+boundEps {
		return -1 + boundEps
	}
	return v
}

func fallbackReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "execution_error"
}
