package providers

import (
	"context"
	"path/filepath"
	"seatcheck/internal/apperrors"
	"seatcheck/internal/models"
	"seatcheck/internal/structures"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storageConfig(driver, path string) *structures.Config {
	return &structures.Config{
		Storage: structures.StorageConfig{
			Driver:     driver,
			SqlitePath: path,
			Timeout:    2 * time.Second,
		},
		Venues: []structures.VenueConfig{
			{ID: "bass", Name: "Bass Library", Category: "library", Capacity: 400, Lat: 41.3102, Lon: -72.9276},
			{ID: "atticus", Name: "Atticus Cafe", Category: "cafe"},
		},
	}
}

func TestVenuesFromConfig(t *testing.T) {
	venues := VenuesFromConfig(storageConfig(DriverMemory, "").Venues)
	require.Len(t, venues, 2)

	require.NotNil(t, venues[0].Capacity)
	assert.Equal(t, 400, *venues[0].Capacity)
	assert.Equal(t, 41.3102, venues[0].Location.Lat)
	assert.Nil(t, venues[1].Capacity, "zero capacity means unknown")
}

func TestStorageProvider_Memory(t *testing.T) {
	sp, cleanup, err := NewStorageProvider(storageConfig(DriverMemory, ""), &cacheTestLogger{})
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, DriverMemory, sp.Driver)
	venue, err := sp.Registry.Venue(context.Background(), "bass")
	require.NoError(t, err)
	assert.Equal(t, "Bass Library", venue.Name)

	_, ok := sp.RatingSnapshotter()
	assert.True(t, ok, "memory ratings belong in the snapshot")
}

func TestStorageProvider_Sqlite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seatcheck.db")
	sp, cleanup, err := NewStorageProvider(storageConfig(DriverSqlite, path), &cacheTestLogger{})
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, DriverSqlite, sp.Driver)
	venues, err := sp.Registry.Venues(context.Background())
	require.NoError(t, err)
	assert.Len(t, venues, 2)

	_, err = sp.Ratings.Submit(context.Background(), "bass", 3, 2)
	require.NoError(t, err)

	_, ok := sp.RatingSnapshotter()
	assert.False(t, ok, "sqlite ratings are durable already")
}

func TestStorageProvider_UnknownDriver(t *testing.T) {
	_, _, err := NewStorageProvider(storageConfig("postgres", ""), &cacheTestLogger{})
	assert.Error(t, err)
}

type countingRegistry struct {
	models.VenueRegistry
	venueCalls int
	listCalls  int
}

func (c *countingRegistry) Venue(ctx context.Context, id string) (models.Venue, error) {
	c.venueCalls++
	return c.VenueRegistry.Venue(ctx, id)
}

func (c *countingRegistry) Venues(ctx context.Context) ([]models.Venue, error) {
	c.listCalls++
	return c.VenueRegistry.Venues(ctx)
}

func newCachedRegistry(t *testing.T) (models.VenueRegistry, *countingRegistry, CacheProviderInterface) {
	t.Helper()
	inner := &countingRegistry{
		VenueRegistry: models.NewMemoryVenueRegistry(VenuesFromConfig(storageConfig(DriverMemory, "").Venues)),
	}
	cache := NewCacheProvider(cacheConfig(true, 1, time.Minute), &cacheTestLogger{})
	registry := NewVenueRegistryProvider(&StorageProvider{Registry: inner}, cache, &cacheTestLogger{})
	return registry, inner, cache
}

func TestCachedVenueRegistry_HitsCache(t *testing.T) {
	registry, inner, _ := newCachedRegistry(t)
	ctx := context.Background()

	first, err := registry.Venue(ctx, "bass")
	require.NoError(t, err)
	second, err := registry.Venue(ctx, "bass")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.venueCalls)

	_, err = registry.Venues(ctx)
	require.NoError(t, err)
	list, err := registry.Venues(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 1, inner.listCalls)
}

func TestCachedVenueRegistry_NotFoundIsNotCached(t *testing.T) {
	registry, inner, _ := newCachedRegistry(t)
	ctx := context.Background()

	_, err := registry.Venue(ctx, "nowhere")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	_, err = registry.Venue(ctx, "nowhere")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.Equal(t, 2, inner.venueCalls)
}

func TestCachedVenueRegistry_CorruptEntryFallsThrough(t *testing.T) {
	registry, inner, cache := newCachedRegistry(t)
	cache.Set("venue:bass", []byte("{not json"))

	venue, err := registry.Venue(context.Background(), "bass")
	require.NoError(t, err)
	assert.Equal(t, "Bass Library", venue.Name)
	assert.Equal(t, 1, inner.venueCalls)

	data, ok := cache.Get("venue:bass")
	require.True(t, ok)
	var cached models.Venue
	require.NoError(t, json.Unmarshal(data, &cached))
	assert.Equal(t, "bass", cached.ID)
}
