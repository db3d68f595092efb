package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"QCast/internal/domain/models"
	"QCast/internal/forecast"
	"QCast/internal/history"
	"QCast/internal/quantum"
	"QCast/pkg/cache"

	"github.com/labstack/echo/v4"
)

func newTestServer(t *testing.T, opts ...Option) *echo.Echo {
	t.Helper()

	fc := forecast.New(forecast.Config{
		SequenceLength:  24,
		Features:        []string{"price", "volume", "volatility", "demand"},
		HiddenSize:      8,
		NumLayers:       2,
		Dropout:         0.2,
		LearningRate:    0.001,
		BenchmarkEpochs: 2,
		Seed:            42,
		CircuitTimeout:  time.Second,
	}, quantum.Descriptor{Kind: quantum.ClassicalFallback, Name: "classical"}, nil, nil, nil)

	opts = append([]Option{WithTrainEpochs(2)}, opts...)
	h := NewForecastHandler(fc, nil, opts...)

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func historicalJSON(n int) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		x := float64(i)
		sb.WriteString(fmt.Sprintf(
			`{"timestamp": %d, "price": %.4f, "volume": %.2f, "volatility": %.4f, "demand": %.2f}`,
			1735689600+i*3600,
			100+10*math.Sin(x/6),
			1000+50*math.Cos(x/8),
			0.2+0.05*math.Sin(x/3),
			500+20*math.Sin(x/12),
		))
	}
	sb.WriteString("]")
	return sb.String()
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestServer(t)
	rec := doJSON(e, http.MethodGet, "/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("status field %v", body["status"])
	}
	if body["service"] != "quantum_lstm_forecaster" {
		t.Fatalf("service field %v", body["service"])
	}
	if body["quantum_available"] != false {
		t.Fatalf("quantum_available %v, want false for classical backend", body["quantum_available"])
	}
	if _, err := time.Parse(time.RFC3339, body["timestamp"].(string)); err != nil {
		t.Fatalf("timestamp not RFC3339: %v", body["timestamp"])
	}
}

func TestForecastMissingData(t *testing.T) {
	e := newTestServer(t)
	for _, body := range []string{"", "{}", `{"historical_data": []}`} {
		rec := doJSON(e, http.MethodPost, "/forecast", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status %d, want 400", body, rec.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp["error"] != "historical_data required" {
			t.Fatalf("unexpected error message %q", resp["error"])
		}
	}
}

func TestForecastHoursAheadOutOfRange(t *testing.T) {
	e := newTestServer(t)
	body := fmt.Sprintf(`{"historical_data": %s, "hours_ahead": 500}`, historicalJSON(30))
	rec := doJSON(e, http.MethodPost, "/forecast", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestForecastInsufficientData(t *testing.T) {
	e := newTestServer(t)
	body := fmt.Sprintf(`{"historical_data": %s}`, historicalJSON(10))
	rec := doJSON(e, http.MethodPost, "/forecast", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] == "" {
		t.Fatalf("expected error message")
	}
}

func TestForecastSuccess(t *testing.T) {
	e := newTestServer(t)
	body := fmt.Sprintf(`{"historical_data": %s, "hours_ahead": 6}`, historicalJSON(60))
	rec := doJSON(e, http.MethodPost, "/forecast", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success  bool `json:"success"`
		Forecast struct {
			Predictions        []float64 `json:"predictions"`
			HoursAhead         int       `json:"hours_ahead"`
			ModelType          string    `json:"model_type"`
			Timestamp          string    `json:"timestamp"`
			ConfidenceInterval struct {
				Lower      []float64 `json:"lower"`
				Upper      []float64 `json:"upper"`
				Confidence float64   `json:"confidence"`
			} `json:"confidence_interval"`
		} `json:"forecast"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatalf("success=false")
	}
	if len(resp.Forecast.Predictions) != 6 || resp.Forecast.HoursAhead != 6 {
		t.Fatalf("unexpected forecast shape: %+v", resp.Forecast)
	}
	if resp.Forecast.ModelType != "classical_lstm" {
		t.Fatalf("model_type %q", resp.Forecast.ModelType)
	}
	if resp.Forecast.ConfidenceInterval.Confidence != 0.95 {
		t.Fatalf("confidence %v", resp.Forecast.ConfidenceInterval.Confidence)
	}
	if len(resp.Forecast.ConfidenceInterval.Lower) != 6 || len(resp.Forecast.ConfidenceInterval.Upper) != 6 {
		t.Fatalf("band arity mismatch")
	}
}

func TestForecastDefaultHorizon(t *testing.T) {
	e := newTestServer(t)
	body := fmt.Sprintf(`{"historical_data": %s}`, historicalJSON(60))
	rec := doJSON(e, http.MethodPost, "/forecast", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Forecast struct {
			HoursAhead int `json:"hours_ahead"`
		} `json:"forecast"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Forecast.HoursAhead != 24 {
		t.Fatalf("hours_ahead %d, want default 24", resp.Forecast.HoursAhead)
	}
}

func TestBenchmarkMissingData(t *testing.T) {
	e := newTestServer(t)
	for _, body := range []string{"{}", `{"test_data": []}`} {
		rec := doJSON(e, http.MethodPost, "/benchmark", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status %d, want 400", body, rec.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp["error"] != "test_data required" {
			t.Fatalf("unexpected error message %q", resp["error"])
		}
	}
}

func TestBenchmarkSuccessAndCache(t *testing.T) {
	e := newTestServer(t, WithCache(cache.NewTTLCache(), time.Minute))
	body := fmt.Sprintf(`{"test_data": %s}`, historicalJSON(60))

	first := doJSON(e, http.MethodPost, "/benchmark", body)
	if first.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", first.Code, first.Body.String())
	}
	var resp struct {
		Success bool `json:"success"`
		Results struct {
			Classical   map[string]float64 `json:"classical_lstm"`
			Quantum     map[string]float64 `json:"quantum_lstm"`
			Improvement float64            `json:"improvement_percentage"`
		} `json:"benchmark_results"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatalf("success=false")
	}
	for _, side := range []map[string]float64{resp.Results.Classical, resp.Results.Quantum} {
		for _, key := range []string{"mse", "mae", "rmse"} {
			if side[key] <= 0 {
				t.Fatalf("%s must be positive: %v", key, side)
			}
		}
	}

	// Identical payload must be served from cache with the identical body.
	second := doJSON(e, http.MethodPost, "/benchmark", body)
	if second.Code != http.StatusOK {
		t.Fatalf("cached status %d, want 200", second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("cached response differs from original")
	}
}

func TestForecastLiveUsesBuffer(t *testing.T) {
	store := history.NewStore(1000)
	e := newTestServer(t, WithHistory(store))

	rec := doJSON(e, http.MethodPost, "/forecast/live", "{}")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty buffer: status %d, want 400", rec.Code)
	}

	var obs []models.Observation
	if err := json.Unmarshal([]byte(historicalJSON(60)), &obs); err != nil {
		t.Fatalf("fixture decode: %v", err)
	}
	store.Append(obs...)

	rec = doJSON(e, http.MethodPost, "/forecast/live", `{"hours_ahead": 3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Forecast struct {
			Predictions []float64 `json:"predictions"`
		} `json:"forecast"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Forecast.Predictions) != 3 {
		t.Fatalf("expected 3 predictions, got %d", len(resp.Forecast.Predictions))
	}
}
