package quantum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RemoteBackend submits variational circuits to remote quantum hardware over
// the IBM runtime REST API. Every call is bounded by the configured timeout;
// any failure is returned to the caller, which falls back per sample.
type RemoteBackend struct {
	token   string
	baseURL string
	device  string
	shots   int
	client  *http.Client
}

type RemoteConfig struct {
	Token   string
	BaseURL string
	Device  string
	Timeout time.Duration
}

func NewRemoteBackend(cfg RemoteConfig) *RemoteBackend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteBackend{
		token:   cfg.Token,
		baseURL: cfg.BaseURL,
		device:  cfg.Device,
		shots:   1024,
		client:  &http.Client{Timeout: timeout},
	}
}

func (b *RemoteBackend) Name() string {
	return b.device
}

// BindDevice fixes the target device for subsequent runs.
func (b *RemoteBackend) BindDevice(device string) {
	b.device = device
}

type deviceInfo struct {
	Name        string `json:"name"`
	PendingJobs int    `json:"pending_jobs"`
	Operational bool   `json:"operational"`
	Simulator   bool   `json:"simulator"`
}

// LeastBusyDevice returns the operational hardware device with the fewest
// pending jobs. It doubles as the reachability probe during backend
// selection.
func (b *RemoteBackend) LeastBusyDevice(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/devices", nil)
	if err != nil {
		return "", fmt.Errorf("remote devices: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.token)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("remote devices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("remote devices: unexpected status %d", resp.StatusCode)
	}

	var devices []deviceInfo
	if err := json.NewDecoder(resp.Body).Decode(&devices); err != nil {
		return "", fmt.Errorf("remote devices: %w", err)
	}

	best := ""
	bestPending := -1
	for _, d := range devices {
		if !d.Operational || d.Simulator {
			continue
		}
		if bestPending < 0 || d.PendingJobs < bestPending {
			best = d.Name
			bestPending = d.PendingJobs
		}
	}
	if best == "" {
		return "", fmt.Errorf("remote devices: no operational hardware device")
	}
	return best, nil
}

type runRequest struct {
	ProgramID string         `json:"program_id"`
	Backend   string         `json:"backend"`
	Params    map[string]any `json:"params"`
}

type runResponse struct {
	ExpectationValues []float64 `json:"expectation_values"`
	Error             string    `json:"error,omitempty"`
}

// Run submits the circuit and blocks for the expectation values. The
// caller's context bounds the whole exchange.
func (b *RemoteBackend) Run(ctx context.Context, angles []float64, nQubits int) ([]float64, error) {
	if len(angles) != 2*nQubits {
		return nil, fmt.Errorf("remote run: want %d angles, got %d", 2*nQubits, len(angles))
	}

	qasm := ToQASM(VariationalCircuit(angles, nQubits), nQubits)
	observables := make([]string, nQubits)
	for i := 0; i < nQubits; i++ {
		observables[i] = pauliZ(i, nQubits)
	}

	body, err := json.Marshal(runRequest{
		ProgramID: "estimator",
		Backend:   b.device,
		Params: map[string]any{
			"circuits":    []string{qasm},
			"observables": observables,
			"shots":       b.shots,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("remote run: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote run: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote run: unexpected status %d", resp.StatusCode)
	}

	var rr runResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("remote run: %w", err)
	}
	if rr.Error != "" {
		return nil, fmt.Errorf("remote run: %s", rr.Error)
	}
	if len(rr.ExpectationValues) != nQubits {
		return nil, fmt.Errorf("remote run: want %d expectation values, got %d", nQubits, len(rr.ExpectationValues))
	}
	return rr.ExpectationValues, nil
}

// pauliZ renders the single-qubit Z observable string for qubit q, e.g.
// "IZII" for q=1 of 4.
func pauliZ(q, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'I'
	}
	b[q] = 'Z'
	return string(b)
}
