package providers

import (
	"context"
	"seatcheck/internal/models"

	"github.com/goccy/go-json"
)

const venueListCacheKey = "venues"

// CachedVenueRegistry fronts the storage registry with the byte cache.
// Venue rows are seeded at startup and never change while running.
type CachedVenueRegistry struct {
	inner  models.VenueRegistry
	cache  CacheProviderInterface
	logger Logger
}

func NewVenueRegistryProvider(storage *StorageProvider, cache CacheProviderInterface, logger Logger) models.VenueRegistry {
	return &CachedVenueRegistry{
		inner:  storage.Registry,
		cache:  cache,
		logger: logger,
	}
}

func (c *CachedVenueRegistry) Venue(ctx context.Context, id string) (models.Venue, error) {
	key := "venue:" + id
	if data, ok := c.cache.Get(key); ok {
		var venue models.Venue
		err := json.Unmarshal(data, &venue)
		if err == nil {
			return venue, nil
		}
		c.logger.Warnf(TypeStorage, "Dropping undecodable cache entry %s: %v", key, err)
		c.cache.Del(key)
	}

	venue, err := c.inner.Venue(ctx, id)
	if err != nil {
		return models.Venue{}, err
	}
	c.store(key, venue)
	return venue, nil
}

func (c *CachedVenueRegistry) Venues(ctx context.Context) ([]models.Venue, error) {
	if data, ok := c.cache.Get(venueListCacheKey); ok {
		var venues []models.Venue
		err := json.Unmarshal(data, &venues)
		if err == nil {
			return venues, nil
		}
		c.logger.Warnf(TypeStorage, "Dropping undecodable cache entry %s: %v", venueListCacheKey, err)
		c.cache.Del(venueListCacheKey)
	}

	venues, err := c.inner.Venues(ctx)
	if err != nil {
		return nil, err
	}
	c.store(venueListCacheKey, venues)
	return venues, nil
}

func (c *CachedVenueRegistry) store(key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Errorf(TypeStorage, "Error encoding cache entry %s: %v", key, err)
		return
	}
	c.cache.Set(key, data)
}
