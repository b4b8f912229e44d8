//go:build wireinject
// +build wireinject

package di

import (
	"seatcheck/internal"
	"seatcheck/internal/controllers"
	"seatcheck/internal/models"
	"seatcheck/internal/providers"
	"seatcheck/internal/services"
	"seatcheck/internal/statistic"
	"seatcheck/internal/structures"

	wire "github.com/google/wire"
)

var ledgerSet = wire.NewSet(
	providers.NewPresenceLedgerProvider,
	wire.Bind(new(providers.OpenPresenceCounter), new(*models.PresenceLedger)),
	wire.Bind(new(services.PresenceCounter), new(*models.PresenceLedger)),
	wire.Bind(new(services.PresenceLedgerInterface), new(*models.PresenceLedger)),
	wire.Bind(new(statistic.PresenceSnapshotter), new(*models.PresenceLedger)),
	wire.Bind(new(statistic.PresenceSweeper), new(*models.PresenceLedger)),
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewStorageProvider,
		wire.FieldsOf(new(*providers.StorageProvider), "Ratings", "Driver"),
		ledgerSet,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,
		providers.NewVenueRegistryProvider,
		providers.NewIdentityProvider,

		services.NewAggregationService,
		services.NewOccupancyService,

		controllers.NewResponder,
		controllers.NewPresenceController,
		controllers.NewRatingController,
		controllers.NewVenueController,
		controllers.NewHealthController,

		statistic.NewZstdCompressor,
		statistic.NewFileManager,
		statistic.NewScheduler,

		internal.InitRoutes,
		internal.NewHandler,
		internal.NewApp,
	)

	return nil, nil, nil
}
