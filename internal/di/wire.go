//go:build wireinject
// +build wireinject

package di

import (
	"CardPull/pkg/config"
	"CardPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideLogger,

		// Observability
		ProvideRecorder,
		ProvideMetrics,
		ProvideRunNotifier,

		// Repositories
		ProvideCatalogReader,
		ProvidePriceStore,
		ProvidePriceReader,
		ProvideSnapshotWriter,
		ProvideMLStore,
		ProvidePredictionWriter,
		ProvideRankingWriter,
		ProvideArtifactStore,
		ProvideRankingCache,
		ProvidePriceSource,

		// Use cases
		ProvideTrainer,
		ProvidePredictor,
		ProvideCollector,

		// Application runner
		ProvideApp,
	)
	return &server.App{}, nil
}
