package middleware

import (
	"strconv"
	"time"

	"QCast/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qcast_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qcast_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"path", "method"},
	)
)

// RequestLogging logs HTTP requests and records request metrics. The
// forecasting endpoints are long-running, hence the wide latency buckets.
func RequestLogging(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)

			res := c.Response()
			latency := time.Since(start)
			status := strconv.Itoa(res.Status)

			httpRequestsTotal.WithLabelValues(c.Path(), req.Method, status).Inc()
			httpRequestDuration.WithLabelValues(c.Path(), req.Method).Observe(latency.Seconds())

			log.Info("http request",
				logger.String("method", req.Method),
				logger.String("path", req.RequestURI),
				logger.String("status", status),
				logger.Duration("latency_ms", latency),
			)

			return err
		}
	}
}
