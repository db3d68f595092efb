package di

import (
	"context"
	"fmt"
	"time"

	"QCast/internal/domain/service"
	"QCast/internal/forecast"
	"QCast/internal/handler/api"
	"QCast/internal/history"
	"QCast/internal/ingest"
	"QCast/internal/quantum"
	internalrepo "QCast/internal/repository"
	"QCast/pkg/cache"
	pkgch "QCast/pkg/clickhouse"
	"QCast/pkg/config"
	xhttp "QCast/pkg/http"
	pkgkafka "QCast/pkg/kafka"
	"QCast/pkg/logger"
	"QCast/pkg/metrics"
	"QCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	l, err := logger.New(&logger.Config{
		Level:  cfg.LogLevel(),
		Format: format,
		Output: "stdout",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() service.Metrics {
	return metrics.New()
}

// ProvideForecaster resolves the execution backend and builds the model
// orchestrator around it. Backend resolution never fails; it degrades to the
// classical path.
func ProvideForecaster(cfg *config.Config, log *logger.Logger, m service.Metrics) *forecast.Forecaster {
	backend, exec := quantum.Resolve(quantum.Preferences{
		Enabled: cfg.Quantum.Enabled,
		Token:   cfg.Quantum.Token,
		APIURL:  cfg.Quantum.APIURL,
		Device:  cfg.Quantum.Device,
		Timeout: cfg.Quantum.Timeout,
	}, log)

	return forecast.New(forecast.Config{
		SequenceLength:  cfg.Model.SequenceLength,
		Features:        cfg.Model.Features,
		HiddenSize:      cfg.Model.HiddenSize,
		NumLayers:       cfg.Model.NumLayers,
		Dropout:         cfg.Model.Dropout,
		LearningRate:    cfg.Model.LearningRate,
		BenchmarkEpochs: cfg.Model.BenchmarkEpochs,
		Seed:            cfg.Model.Seed,
		CircuitTimeout:  cfg.Quantum.Timeout,
	}, backend, exec, log, m)
}

// ProvideHistory creates the bounded observation buffer for streamed data.
func ProvideHistory(cfg *config.Config) *history.Store {
	return history.NewStore(cfg.History.MaxObservations)
}

// ProvideCache selects the benchmark response cache: Redis when configured,
// otherwise in-process TTL, nil when caching is off.
func ProvideCache(cfg *config.Config) cache.BytesCache {
	if !cfg.Cache.Enabled {
		return nil
	}
	if cfg.Cache.Redis.Enabled {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return cache.NewTTLCache()
}

// ProvideClickHouseClient connects to ClickHouse when auditing is enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Audit.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.Audit.ClickHouse.Host),
		pkgch.WithPort(cfg.Audit.ClickHouse.Port),
		pkgch.WithDatabase(cfg.Audit.ClickHouse.Database),
		pkgch.WithCredentials(cfg.Audit.ClickHouse.User, cfg.Audit.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.Audit.ClickHouse.DialTimeout, 10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideAudit creates the forecast audit sink and ensures its schema.
func ProvideAudit(chClient *pkgch.Client, log *logger.Logger) (internalrepo.ForecastAudit, error) {
	if chClient == nil {
		return internalrepo.NopAudit{}, nil
	}

	audit := internalrepo.NewCHForecastAudit(chClient, "forecast_audit", log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := chClient.InitSchema(ctx, audit.SchemaStatements()); err != nil {
		return nil, fmt.Errorf("audit schema: %w", err)
	}
	return audit, nil
}

// ProvideKafkaConsumer creates the observation consumer when Kafka ingestion
// is enabled.
func ProvideKafkaConsumer(cfg *config.Config, store *history.Store, log *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	handler := ingest.NewObservationHandler(cfg.Kafka.Topic, store, log)
	consumer, err := pkgkafka.NewConsumer(handler, log,
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithGroupID(cfg.Kafka.GroupID),
		pkgkafka.WithFetch(cfg.Kafka.MinBytes, cfg.Kafka.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideHTTPHandler composes the API and streaming handlers.
func ProvideHTTPHandler(
	cfg *config.Config,
	fc *forecast.Forecaster,
	store *history.Store,
	bc cache.BytesCache,
	audit internalrepo.ForecastAudit,
	log *logger.Logger,
) xhttp.Handler {
	opts := []api.Option{
		api.WithHistory(store),
		api.WithAudit(audit),
		api.WithTrainEpochs(cfg.Model.TrainEpochs),
	}
	if bc != nil {
		opts = append(opts, api.WithCache(bc, cfg.Cache.TTL))
	}

	return xhttp.Handlers{
		api.NewForecastHandler(fc, log, opts...),
		ingest.NewWSHandler(store, log),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, log, handler, consumer, chClient)
}
