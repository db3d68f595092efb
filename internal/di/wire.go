//go:build wireinject
// +build wireinject

package di

import (
	"QCast/pkg/config"
	"QCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideClickHouseClient,

		// Domain
		ProvideForecaster,
		ProvideHistory,
		ProvideAudit,

		// Ingestion and HTTP surface
		ProvideKafkaConsumer,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
