//go:build wireinject
// +build wireinject

package di

import (
	"MemePulse/pkg/config"
	"MemePulse/pkg/server"

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
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Market data and analytics providers
		ProvideYahooClient,
		ProvideOptionsProvider,
		ProvideHistoryProvider,
		ProvideTrendingProvider,
		ProvideNewsProvider,
		ProvideSentimentScorer,

		// Repositories
		ProvideAlertStore,
		ProvideHypeStore,
		ProvideAlertPublisher,

		// Use cases
		ProvideLimiter,
		ProvideDetector,
		ProvideScanner,
		ProvideAlertProcessor,
		ProvideKafkaAlertsHandler,
		ProvideHypeUseCase,

		// Delivery
		ProvideHub,
		ProvideHandler,
		ProvideScheduler,
		ProvideApp,
	)
	return &server.App{}, nil
}
