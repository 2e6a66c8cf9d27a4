//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"TraderBlock/pkg/config"
	"TraderBlock/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Upstream and persistence
		ProvideClickHouseClient,
		ProvideSeriesFetcher,
		ProvideSnapshotStore,
		ProvideCacheManager,
		ProvideInboundLimiter,

		// Event sinks
		ProvideHub,
		ProvideKafkaProducer,
		ProvideAnalysisPublisher,

		// Use cases and transports
		ProvideAnalysisService,
		ProvideAnalysisHandler,
		ProvideHTTPServer,
		ProvideScheduler,
		ProvideKafkaConsumer,
		ProvideRefreshHandler,

		ProvideApp,
	)
	return &server.App{}, nil
}
