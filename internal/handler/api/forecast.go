package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"QCast/internal/domain/models"
	"QCast/internal/forecast"
	"QCast/internal/history"
	"QCast/internal/repository"
	"QCast/pkg/cache"
	pkghttp "QCast/pkg/http"
	"QCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

const serviceName = "quantum_lstm_forecaster"

var _ pkghttp.Handler = (*ForecastHandler)(nil)

// Option configures ForecastHandler.
type Option func(*ForecastHandler)

// WithCache enables response caching for benchmark runs.
func WithCache(c cache.BytesCache, ttl time.Duration) Option {
	return func(h *ForecastHandler) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

// WithAudit enables forecast auditing.
func WithAudit(a repository.ForecastAudit) Option {
	return func(h *ForecastHandler) {
		h.audit = a
	}
}

// WithHistory attaches the streaming observation buffer backing the live
// forecast endpoint.
func WithHistory(s *history.Store) Option {
	return func(h *ForecastHandler) {
		h.history = s
	}
}

// WithTrainEpochs overrides the epoch count used by lazy training.
func WithTrainEpochs(n int) Option {
	return func(h *ForecastHandler) {
		if n > 0 {
			h.trainEpochs = n
		}
	}
}

// ForecastHandler exposes the forecasting engine over HTTP.
type ForecastHandler struct {
	fc  *forecast.Forecaster
	log *logger.Logger

	history     *history.Store
	cache       cache.BytesCache
	cacheTTL    time.Duration
	audit       repository.ForecastAudit
	trainEpochs int
}

func NewForecastHandler(fc *forecast.Forecaster, log *logger.Logger, opts ...Option) *ForecastHandler {
	if log == nil {
		log = logger.Nop()
	}
	h := &ForecastHandler{
		fc:          fc,
		log:         log,
		audit:       repository.NopAudit{},
		trainEpochs: 50,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires the public API.
func (h *ForecastHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.POST("/forecast", h.Forecast)
	e.POST("/forecast/live", h.ForecastLive)
	e.POST("/benchmark", h.Benchmark)
}

// Health reports service liveness and backend availability.
func (h *ForecastHandler) Health(c echo.Context) error {
	return pkghttp.SuccessResponse(c, models.HealthResponse{
		Status:           "healthy",
		QuantumAvailable: h.fc.QuantumEnabled(),
		Service:          serviceName,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	})
}

// Forecast trains lazily on the supplied history if no model exists yet,
// then rolls the forecast forward.
func (h *ForecastHandler) Forecast(c echo.Context) error {
	var req models.ForecastRequest
	if appErr := pkghttp.ReadAndValidateRequest(c, &req); appErr != nil {
		return pkghttp.AppErrorResponse(c, appErr)
	}
	if len(req.HistoricalData) == 0 {
		return pkghttp.BadRequestResponse(c, "historical_data required")
	}
	return h.respond(c, req.HistoricalData, req.HoursAhead)
}

// ForecastLive forecasts from the streamed observation buffer instead of a
// request-supplied table.
func (h *ForecastHandler) ForecastLive(c echo.Context) error {
	if h.history == nil {
		return pkghttp.BadRequestResponse(c, "live ingestion is not enabled")
	}

	var req struct {
		HoursAhead int `json:"hours_ahead" default:"24" validate:"gte=1,lte=168"`
	}
	if appErr := pkghttp.ReadAndValidateRequest(c, &req); appErr != nil {
		return pkghttp.AppErrorResponse(c, appErr)
	}

	table := h.history.Snapshot()
	if len(table) == 0 {
		return pkghttp.BadRequestResponse(c, "no observations ingested yet")
	}
	return h.respond(c, table, req.HoursAhead)
}

func (h *ForecastHandler) respond(c echo.Context, table []models.Observation, hoursAhead int) error {
	ctx := c.Request().Context()

	if !h.fc.Trained() {
		if _, err := h.fc.Train(ctx, table, h.trainEpochs); err != nil {
			return h.domainError(c, err)
		}
	}

	fc, err := h.fc.Predict(ctx, table, hoursAhead)
	if err != nil {
		return h.domainError(c, err)
	}

	if err := h.audit.Record(ctx, fc); err != nil {
		h.log.Warn("forecast audit failed", logger.Error(err))
	}

	return pkghttp.SuccessResponse(c, models.ForecastResponse{Success: true, Forecast: fc})
}

// Benchmark trains quantum and classical configurations on the supplied data
// and compares their error metrics. Identical payloads within the cache TTL
// are served from cache.
func (h *ForecastHandler) Benchmark(c echo.Context) error {
	var req models.BenchmarkRequest
	if appErr := pkghttp.ReadAndValidateRequest(c, &req); appErr != nil {
		return pkghttp.AppErrorResponse(c, appErr)
	}
	if len(req.TestData) == 0 {
		return pkghttp.BadRequestResponse(c, "test_data required")
	}

	ctx := c.Request().Context()
	key := benchmarkCacheKey(req.TestData)

	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(key); err == nil && ok {
			var cached models.BenchmarkResponse
			if err := json.Unmarshal(b, &cached); err == nil {
				h.log.Debug("benchmark served from cache", logger.String("key", key))
				return pkghttp.SuccessResponse(c, cached)
			}
		}
	}

	if !h.fc.Trained() {
		if _, err := h.fc.Train(ctx, req.TestData, h.trainEpochs); err != nil {
			return h.domainError(c, err)
		}
	}

	report, err := h.fc.Benchmark(ctx, req.TestData)
	if err != nil {
		return h.domainError(c, err)
	}

	resp := models.BenchmarkResponse{Success: true, BenchmarkResults: report}
	if h.cache != nil {
		if b, err := json.Marshal(resp); err == nil {
			if err := h.cache.SetBytes(key, b, h.cacheTTL); err != nil {
				h.log.Warn("benchmark cache store failed", logger.Error(err))
			}
		}
	}

	return pkghttp.SuccessResponse(c, resp)
}

// domainError maps engine sentinels onto client errors; anything else is an
// opaque 500.
func (h *ForecastHandler) domainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, forecast.ErrSchema),
		errors.Is(err, forecast.ErrInsufficientData),
		errors.Is(err, forecast.ErrNotTrained):
		return pkghttp.BadRequestResponse(c, err.Error())
	default:
		h.log.Error("request failed", logger.Error(err))
		return pkghttp.InternalErrorResponse(c)
	}
}

func benchmarkCacheKey(obs []models.Observation) string {
	b, err := json.Marshal(obs)
	if err != nil {
		return "benchmark:unkeyed"
	}
	sum := sha256.Sum256(b)
	return "benchmark:" + hex.EncodeToString(sum[:])
}
