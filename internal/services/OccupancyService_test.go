package services

import (
	"context"
	"errors"
	"iter"
	"seatcheck/internal/apperrors"
	"seatcheck/internal/models"
	"seatcheck/internal/testutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccupancyService_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitRating(ctx, "hall", 2, 1)
	require.NoError(t, err)
	f.clock.Advance(30 * time.Second)
	_, err = f.svc.SubmitRating(ctx, "hall", 4, 3)
	require.NoError(t, err)

	stats, err := f.svc.GetStats(ctx, "hall", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.SampleCount)
	assert.InDelta(t, 3.0, *stats.AvgOccupancy, 1e-9)
	assert.InDelta(t, 2.0, *stats.AvgNoise, 1e-9)

	_, created, err := f.svc.CheckIn(ctx, "u1", "hall")
	require.NoError(t, err)
	assert.True(t, created)
	_, _, err = f.svc.CheckIn(ctx, "u2", "hall")
	require.NoError(t, err)

	occupancy, err := f.svc.GetOccupancyRatio(ctx, "hall")
	require.NoError(t, err)
	assert.Equal(t, 2, occupancy.LiveOccupancyCount)
	require.NotNil(t, occupancy.Ratio)
	assert.InDelta(t, 0.02, *occupancy.Ratio, 1e-9)

	require.NoError(t, f.svc.CheckOut(ctx, "u1", "hall"))
	stats, err = f.svc.GetStats(ctx, "hall", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LiveOccupancyCount)
	assert.Equal(t, 1, f.metrics.LiveOccupancy["hall"])
}

func TestOccupancyService_IdempotentCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, created, err := f.svc.CheckIn(ctx, "u1", "hall")
	require.NoError(t, err)
	require.True(t, created)
	second, created, err := f.svc.CheckIn(ctx, "u1", "hall")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	occupancy, err := f.svc.GetOccupancyRatio(ctx, "hall")
	require.NoError(t, err)
	assert.Equal(t, 1, occupancy.LiveOccupancyCount)
	assert.Equal(t, 1, f.metrics.PresenceEvents["checkin"])
	assert.Equal(t, 1, f.metrics.PresenceEvents["refresh"])
}

func TestOccupancyService_MoveAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CheckIn(ctx, "u1", "hall")
	require.NoError(t, err)
	f.clock.Advance(5 * time.Minute)
	_, _, err = f.svc.CheckIn(ctx, "u1", "atticus")
	require.NoError(t, err)

	hall, err := f.svc.GetOccupancyRatio(ctx, "hall")
	require.NoError(t, err)
	assert.Equal(t, 0, hall.LiveOccupancyCount)

	current, err := f.svc.CurrentPresence(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "atticus", current.VenueID)

	history, err := f.svc.PresenceHistory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hall", history[0].VenueID)
	assert.Equal(t, 5*time.Minute, history[0].Duration())

	empty, err := f.svc.PresenceHistory(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestOccupancyService_UnknownVenue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CheckIn(ctx, "u1", "nowhere")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.Equal(t, 0, f.ledger.OpenCount())

	_, err = f.svc.SubmitRating(ctx, "nowhere", 3, 3)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.Equal(t, 0, f.ratings.Len())

	_, err = f.svc.GetStats(ctx, "nowhere", 10)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	_, err = f.svc.GetOccupancyRatio(ctx, "nowhere")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	_, err = f.svc.GetStatus(ctx, "nowhere")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestOccupancyService_EmptyVenueID(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.CheckIn(context.Background(), "u1", "")
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidArgument))
}

func TestOccupancyService_RatingOutOfRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, tc := range []struct{ occupancy, noise int }{{-1, 0}, {6, 0}, {0, -1}, {0, 6}} {
		_, err := f.svc.SubmitRating(ctx, "hall", tc.occupancy, tc.noise)
		var appErr *apperrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apperrors.KindInvalidArgument, appErr.Kind)
	}
	assert.Equal(t, 0, f.ratings.Len())
	assert.Equal(t, 4, f.metrics.Ratings["rejected"])

	stats, err := f.svc.GetStats(ctx, "hall", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.SampleCount)
}

func TestOccupancyService_WindowValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stats, err := f.svc.GetStats(ctx, "hall", 0)
	require.NoError(t, err)
	assert.Equal(t, 120, stats.WindowMinutes)

	_, err = f.svc.GetStats(ctx, "hall", -5)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidArgument))

	_, err = f.svc.GetStats(ctx, "hall", 24*60+1)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidArgument))

	// large enough to wrap a time.Duration when multiplied by a minute
	_, err = f.svc.SubmitRating(ctx, "hall", 3, 3)
	require.NoError(t, err)
	stats, err = f.svc.GetStats(ctx, "hall", 307445734562)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidArgument))
	assert.Nil(t, stats)

	_, err = f.svc.ListVenues(ctx, -1)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidArgument))
}

func TestOccupancyService_WindowExcludesOldRatings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitRating(ctx, "hall", 5, 5)
	require.NoError(t, err)
	f.clock.Advance(30 * time.Minute)
	_, err = f.svc.SubmitRating(ctx, "hall", 1, 1)
	require.NoError(t, err)

	stats, err := f.svc.GetStats(ctx, "hall", 15)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SampleCount)
	assert.InDelta(t, 1.0, *stats.AvgOccupancy, 1e-9)
}

func TestOccupancyService_StalePresence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CheckIn(ctx, "u1", "hall")
	require.NoError(t, err)
	f.clock.Advance(16 * time.Minute)

	stats, err := f.svc.GetStats(ctx, "hall", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.LiveOccupancyCount)

	_, err = f.svc.Heartbeat(ctx, "u1")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	_, err = f.svc.CurrentPresence(ctx, "u1")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestOccupancyService_CheckOutConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CheckIn(ctx, "u1", "hall")
	require.NoError(t, err)

	err = f.svc.CheckOut(ctx, "u1", "atticus")
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	assert.Equal(t, 1, f.ledger.OpenCount())

	require.NoError(t, f.svc.CheckOut(ctx, "u1", ""))
	require.NoError(t, f.svc.CheckOut(ctx, "u1", ""), "nothing open is a no-op")
	assert.Equal(t, 0, f.ledger.OpenCount())
}

func TestOccupancyService_ListVenues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CheckIn(ctx, "u1", "atticus")
	require.NoError(t, err)
	_, err = f.svc.SubmitRating(ctx, "hall", 4, 2)
	require.NoError(t, err)

	list, err := f.svc.ListVenues(ctx, 30)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hall", list[0].ID)
	assert.Equal(t, 1, list[0].Stats.SampleCount)
	assert.Equal(t, 30, list[0].Stats.WindowMinutes)
	assert.Equal(t, "atticus", list[1].ID)
	assert.Equal(t, 1, list[1].Stats.LiveOccupancyCount)
	assert.Equal(t, 1, f.svc.OpenPresences())
}

func TestOccupancyService_GetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.svc.GetStatus(ctx, "hall")
	require.NoError(t, err)
	assert.Nil(t, status.Availability)

	_, err = f.svc.SubmitRating(ctx, "hall", 0, 1)
	require.NoError(t, err)
	status, err = f.svc.GetStatus(ctx, "hall")
	require.NoError(t, err)
	require.NotNil(t, status.Availability)
	assert.InDelta(t, 1.0, *status.Availability, 1e-9)
	assert.Equal(t, 1, status.RecentCount)
}

type blockingRegistry struct {
	models.VenueRegistry
}

func (blockingRegistry) Venue(ctx context.Context, _ string) (models.Venue, error) {
	<-ctx.Done()
	return models.Venue{}, ctx.Err()
}

func TestOccupancyService_StorageTimeout(t *testing.T) {
	conf := testConfig()
	conf.Storage.Timeout = 20 * time.Millisecond
	ledger := models.NewPresenceLedger(conf.Presence.StalenessTTL, 0)
	ratings := models.NewMemoryRatingStream()
	logger := &testutil.MockLogger{}
	svc := NewOccupancyService(conf, ledger, ratings, blockingRegistry{}, NewAggregationService(conf, ledger, ratings), &testutil.MockMetrics{}, logger)

	start := time.Now()
	_, _, err := svc.CheckIn(context.Background(), "u1", "hall")
	assert.True(t, apperrors.Is(err, apperrors.KindTimeout))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 0, ledger.OpenCount())
	assert.Equal(t, 1, logger.Count("error"))
}

type unavailableStream struct{}

func (unavailableStream) Submit(_ context.Context, _ string, _, _ int) (models.RatingSample, error) {
	return models.RatingSample{}, apperrors.Unavailable(errors.New("connection refused"), "ratings store")
}

func (unavailableStream) SamplesSince(_ context.Context, _ string, _ time.Time) iter.Seq2[models.RatingSample, error] {
	return func(yield func(models.RatingSample, error) bool) {
		yield(models.RatingSample{}, apperrors.Unavailable(errors.New("connection refused"), "ratings store"))
	}
}

func TestOccupancyService_StorageUnavailable(t *testing.T) {
	conf := testConfig()
	ledger := models.NewPresenceLedger(conf.Presence.StalenessTTL, 0)
	registry := models.NewMemoryVenueRegistry(testVenues())
	metrics := &testutil.MockMetrics{}
	svc := NewOccupancyService(conf, ledger, unavailableStream{}, registry,
		NewAggregationService(conf, ledger, unavailableStream{}), metrics, &testutil.MockLogger{})

	_, err := svc.SubmitRating(context.Background(), "hall", 3, 3)
	assert.True(t, apperrors.Is(err, apperrors.KindUnavailable))
	assert.Equal(t, 1, metrics.Ratings["failed"])

	_, err = svc.GetStats(context.Background(), "hall", 10)
	assert.True(t, apperrors.Is(err, apperrors.KindUnavailable))
	_, err = svc.GetStatus(context.Background(), "hall")
	assert.True(t, apperrors.Is(err, apperrors.KindUnavailable))
}

func TestOccupancyService_ErrorsAreClassified(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Heartbeat(ctx, "u1")
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.KindUnavailable, appErr.Kind)
}
