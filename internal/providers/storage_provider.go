package providers

import (
	"context"
	"fmt"
	"seatcheck/internal/models"
	"seatcheck/internal/storage/sqlite"
	"seatcheck/internal/structures"
)

const (
	DriverMemory = "memory"
	DriverSqlite = "sqlite"
)

// StorageProvider bundles the venue registry and rating stream chosen by
// storage.driver. Both back onto the same sqlite file for the sqlite driver.
type StorageProvider struct {
	Driver   string
	Registry models.VenueRegistry
	Ratings  models.RatingStream
}

func NewStorageProvider(conf *structures.Config, logger Logger) (*StorageProvider, func(), error) {
	venues := VenuesFromConfig(conf.Venues)

	switch conf.Storage.Driver {
	case DriverSqlite:
		store, err := sqlite.Open(conf.Storage.SqlitePath)
		if err != nil {
			return nil, nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), conf.Storage.Timeout)
		defer cancel()
		if err := store.InitSchema(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("init sqlite schema: %w", err)
		}
		if err := store.UpsertVenues(ctx, venues); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("seed venues: %w", err)
		}

		logger.Infof(TypeStorage, "SQLite storage opened at %s, %d venues seeded", conf.Storage.SqlitePath, len(venues))
		cleanup := func() {
			if err := store.Close(); err != nil {
				logger.Errorf(TypeStorage, "Error closing sqlite storage: %v", err)
			}
		}
		return &StorageProvider{Driver: DriverSqlite, Registry: store, Ratings: store}, cleanup, nil

	case DriverMemory, "":
		logger.Infof(TypeStorage, "In-memory storage with %d venues", len(venues))
		return &StorageProvider{
			Driver:   DriverMemory,
			Registry: models.NewMemoryVenueRegistry(venues),
			Ratings:  models.NewMemoryRatingStream(),
		}, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}

// RatingSnapshotter returns the rating stream when its samples live only in
// process memory and must go into the snapshot file.
func (sp *StorageProvider) RatingSnapshotter() (models.RatingSnapshotter, bool) {
	snapshotter, ok := sp.Ratings.(models.RatingSnapshotter)
	return snapshotter, ok
}

// VenuesFromConfig converts the seed list. A zero capacity means unknown.
func VenuesFromConfig(venues []structures.VenueConfig) []models.Venue {
	out := make([]models.Venue, 0, len(venues))
	for _, v := range venues {
		venue := models.Venue{
			ID:       v.ID,
			Name:     v.Name,
			Category: v.Category,
			Location: models.Location{Lat: v.Lat, Lon: v.Lon},
		}
		if v.Capacity > 0 {
			capacity := v.Capacity
			venue.Capacity = &capacity
		}
		out = append(out, venue)
	}
	return out
}

func NewPresenceLedgerProvider(conf *structures.Config) *models.PresenceLedger {
	return models.NewPresenceLedger(conf.Presence.StalenessTTL, conf.Presence.HistoryRetention)
}
