package testutil

import (
	"context"
	"seatcheck/internal/models"
	"seatcheck/internal/providers"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockMetrics implements providers.MetricsProviderInterface.
type MockMetrics struct {
	mu             sync.Mutex
	Requests       int
	CacheHits      int
	CacheMisses    int
	CacheEvicted   int
	Persists       int
	PresenceEvents map[string]int
	Ratings        map[string]int
	SweepClosed    int
	SweepPruned    int
	LiveOccupancy  map[string]int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits(_ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}
func (m *MockMetrics) IncCacheMisses(_ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}
func (m *MockMetrics) IncCacheEvictions(_ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheEvicted++
}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persists++
}
func (m *MockMetrics) IncPresenceEvents(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PresenceEvents == nil {
		m.PresenceEvents = make(map[string]int)
	}
	m.PresenceEvents[event]++
}
func (m *MockMetrics) IncRatingsTotal(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Ratings == nil {
		m.Ratings = make(map[string]int)
	}
	m.Ratings[outcome]++
}
func (m *MockMetrics) ObserveSweep(closed, pruned int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SweepClosed += closed
	m.SweepPruned += pruned
}
func (m *MockMetrics) SetLiveOccupancy(venueID string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LiveOccupancy == nil {
		m.LiveOccupancy = make(map[string]int)
	}
	m.LiveOccupancy[venueID] = count
}

// MockOccupancyService implements services.OccupancyServiceInterface with
// overridable funcs. Unset funcs return zero values.
type MockOccupancyService struct {
	CheckInFn           func(ctx context.Context, userID, venueID string) (models.PresenceRecord, bool, error)
	HeartbeatFn         func(ctx context.Context, userID string) (models.PresenceRecord, error)
	CheckOutFn          func(ctx context.Context, userID, venueID string) error
	CurrentPresenceFn   func(ctx context.Context, userID string) (models.PresenceRecord, error)
	PresenceHistoryFn   func(ctx context.Context, userID string) ([]models.PresenceRecord, error)
	SubmitRatingFn      func(ctx context.Context, venueID string, occupancy, noise int) (models.RatingSample, error)
	GetStatsFn          func(ctx context.Context, venueID string, minutes int) (*models.VenueStats, error)
	GetOccupancyRatioFn func(ctx context.Context, venueID string) (*models.OccupancyRatio, error)
	GetStatusFn         func(ctx context.Context, venueID string) (*models.VenueStatus, error)
	ListVenuesFn        func(ctx context.Context, minutes int) ([]models.VenueOverview, error)
	Open                int
}

func (m *MockOccupancyService) CheckIn(ctx context.Context, userID, venueID string) (models.PresenceRecord, bool, error) {
	if m.CheckInFn == nil {
		return models.PresenceRecord{}, false, nil
	}
	return m.CheckInFn(ctx, userID, venueID)
}

func (m *MockOccupancyService) Heartbeat(ctx context.Context, userID string) (models.PresenceRecord, error) {
	if m.HeartbeatFn == nil {
		return models.PresenceRecord{}, nil
	}
	return m.HeartbeatFn(ctx, userID)
}

func (m *MockOccupancyService) CheckOut(ctx context.Context, userID, venueID string) error {
	if m.CheckOutFn == nil {
		return nil
	}
	return m.CheckOutFn(ctx, userID, venueID)
}

func (m *MockOccupancyService) CurrentPresence(ctx context.Context, userID string) (models.PresenceRecord, error) {
	if m.CurrentPresenceFn == nil {
		return models.PresenceRecord{}, nil
	}
	return m.CurrentPresenceFn(ctx, userID)
}

func (m *MockOccupancyService) PresenceHistory(ctx context.Context, userID string) ([]models.PresenceRecord, error) {
	if m.PresenceHistoryFn == nil {
		return []models.PresenceRecord{}, nil
	}
	return m.PresenceHistoryFn(ctx, userID)
}

func (m *MockOccupancyService) SubmitRating(ctx context.Context, venueID string, occupancy, noise int) (models.RatingSample, error) {
	if m.SubmitRatingFn == nil {
		return models.RatingSample{}, nil
	}
	return m.SubmitRatingFn(ctx, venueID, occupancy, noise)
}

func (m *MockOccupancyService) GetStats(ctx context.Context, venueID string, minutes int) (*models.VenueStats, error) {
	if m.GetStatsFn == nil {
		return &models.VenueStats{VenueID: venueID}, nil
	}
	return m.GetStatsFn(ctx, venueID, minutes)
}

func (m *MockOccupancyService) GetOccupancyRatio(ctx context.Context, venueID string) (*models.OccupancyRatio, error) {
	if m.GetOccupancyRatioFn == nil {
		return &models.OccupancyRatio{VenueID: venueID}, nil
	}
	return m.GetOccupancyRatioFn(ctx, venueID)
}

func (m *MockOccupancyService) GetStatus(ctx context.Context, venueID string) (*models.VenueStatus, error) {
	if m.GetStatusFn == nil {
		return &models.VenueStatus{VenueID: venueID}, nil
	}
	return m.GetStatusFn(ctx, venueID)
}

func (m *MockOccupancyService) ListVenues(ctx context.Context, minutes int) ([]models.VenueOverview, error) {
	if m.ListVenuesFn == nil {
		return []models.VenueOverview{}, nil
	}
	return m.ListVenuesFn(ctx, minutes)
}

func (m *MockOccupancyService) OpenPresences() int {
	return m.Open
}

// MockCompressor passes data through unchanged unless an error is set.
type MockCompressor struct {
	CompressErr   error
	DecompressErr error
	Closed        bool
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressErr != nil {
		return nil, m.CompressErr
	}
	return append([]byte(nil), val...), nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressErr != nil {
		return nil, m.DecompressErr
	}
	return append([]byte(nil), val...), nil
}

func (m *MockCompressor) Close() {
	m.Closed = true
}
