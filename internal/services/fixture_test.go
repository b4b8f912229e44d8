package services

import (
	"seatcheck/internal/models"
	"seatcheck/internal/structures"
	"seatcheck/internal/testutil"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func intPtr(v int) *int { return &v }

func testConfig() *structures.Config {
	return &structures.Config{
		Presence: structures.PresenceConfig{
			StalenessTTL:  15 * time.Minute,
			SweepInterval: time.Minute,
		},
		Ratings: structures.RatingsConfig{
			DefaultWindow: 120 * time.Minute,
			MaxWindow:     24 * time.Hour,
		},
		Storage: structures.StorageConfig{
			Driver:  "memory",
			Timeout: 2 * time.Second,
		},
	}
}

func testVenues() []models.Venue {
	return []models.Venue{
		{ID: "hall", Name: "Commons Hall", Capacity: intPtr(100)},
		{ID: "atticus", Name: "Atticus Cafe"},
	}
}

type fixture struct {
	clock    *fakeClock
	ledger   *models.PresenceLedger
	ratings  *models.MemoryRatingStream
	registry *models.MemoryVenueRegistry
	agg      *AggregationService
	metrics  *testutil.MockMetrics
	logger   *testutil.MockLogger
	svc      OccupancyServiceInterface
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conf := testConfig()
	clock := &fakeClock{now: time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)}

	ledger := models.NewPresenceLedger(conf.Presence.StalenessTTL, 0)
	ledger.SetClock(clock.Now)
	ratings := models.NewMemoryRatingStream()
	ratings.SetClock(clock.Now)
	registry := models.NewMemoryVenueRegistry(testVenues())

	agg := NewAggregationService(conf, ledger, ratings).(*AggregationService)
	agg.SetClock(clock.Now)

	f := &fixture{
		clock:    clock,
		ledger:   ledger,
		ratings:  ratings,
		registry: registry,
		agg:      agg,
		metrics:  &testutil.MockMetrics{},
		logger:   &testutil.MockLogger{},
	}
	f.svc = NewOccupancyService(conf, ledger, ratings, registry, agg, f.metrics, f.logger)
	return f
}
