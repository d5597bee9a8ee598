//go:build wireinject
// +build wireinject

package di

import (
	"OddsFlow/pkg/config"
	"OddsFlow/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideQuoteSource,
		ProvideRawStore,
		ProvideMetricsStore,
		ProvideCursorStore,
		ProvideNotifier,

		// Use cases
		ProvideExtractor,
		ProvideLoader,
		ProvideTransformer,
		ProvideViewBuilder,
		ProvidePipeline,

		// Serving surface
		ProvideRunQueue,
		ProvideOpsHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
