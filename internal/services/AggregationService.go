package services

import (
	"context"
	"math"
	"seatcheck/internal/models"
	"seatcheck/internal/structures"
	"time"
)

const (
	defaultHalfLife     = 30 * time.Minute
	defaultDecayHorizon = 2 * time.Hour
	recentWindow        = time.Hour
)

// PresenceCounter is the read side of the presence ledger used for live counts.
type PresenceCounter interface {
	LiveCount(ctx context.Context, venueID string, ttl time.Duration) (int, error)
}

type AggregationServiceInterface interface {
	Stats(ctx context.Context, venue models.Venue, window, ttl time.Duration) (*models.VenueStats, error)
	AllStats(ctx context.Context, venues []models.Venue, window, ttl time.Duration) ([]*models.VenueStats, error)
	Occupancy(ctx context.Context, venue models.Venue, ttl time.Duration) (*models.OccupancyRatio, error)
	OccupancyRatio(ctx context.Context, venue models.Venue, ttl time.Duration) (float64, bool, error)
	Status(ctx context.Context, venue models.Venue) (*models.VenueStatus, error)
}

type AggregationService struct {
	presence PresenceCounter
	ratings  models.RatingStream
	halfLife time.Duration
	horizon  time.Duration
	now      func() time.Time
}

func NewAggregationService(conf *structures.Config, presence PresenceCounter, ratings models.RatingStream) AggregationServiceInterface {
	halfLife := conf.Ratings.HalfLife
	if halfLife <= 0 {
		halfLife = defaultHalfLife
	}
	horizon := conf.Ratings.DecayHorizon
	if horizon <= 0 {
		horizon = defaultDecayHorizon
	}
	return &AggregationService{
		presence: presence,
		ratings:  ratings,
		halfLife: halfLife,
		horizon:  horizon,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (as *AggregationService) SetClock(now func() time.Time) {
	as.now = now
}

// Stats averages the samples of the trailing window. Means stay nil when the
// window holds no samples.
func (as *AggregationService) Stats(ctx context.Context, venue models.Venue, window, ttl time.Duration) (*models.VenueStats, error) {
	now := as.now()

	var count, occupancySum, noiseSum int64
	for sample, err := range as.ratings.SamplesSince(ctx, venue.ID, now.Add(-window)) {
		if err != nil {
			return nil, err
		}
		count++
		occupancySum += int64(sample.Occupancy)
		noiseSum += int64(sample.Noise)
	}

	live, err := as.presence.LiveCount(ctx, venue.ID, ttl)
	if err != nil {
		return nil, err
	}

	stats := &models.VenueStats{
		VenueID:            venue.ID,
		LiveOccupancyCount: live,
		SampleCount:        int(count),
		WindowMinutes:      int(window / time.Minute),
		ComputedAt:         now,
	}
	if count > 0 {
		stats.AvgOccupancy = mean(occupancySum, count)
		stats.AvgNoise = mean(noiseSum, count)
	}
	return stats, nil
}

func (as *AggregationService) AllStats(ctx context.Context, venues []models.Venue, window, ttl time.Duration) ([]*models.VenueStats, error) {
	result := make([]*models.VenueStats, 0, len(venues))
	for _, venue := range venues {
		stats, err := as.Stats(ctx, venue, window, ttl)
		if err != nil {
			return nil, err
		}
		result = append(result, stats)
	}
	return result, nil
}

func (as *AggregationService) Occupancy(ctx context.Context, venue models.Venue, ttl time.Duration) (*models.OccupancyRatio, error) {
	live, err := as.presence.LiveCount(ctx, venue.ID, ttl)
	if err != nil {
		return nil, err
	}
	result := &models.OccupancyRatio{
		VenueID:            venue.ID,
		LiveOccupancyCount: live,
		Capacity:           venue.Capacity,
	}
	if venue.Capacity != nil && *venue.Capacity > 0 {
		ratio := float64(live) / float64(*venue.Capacity)
		result.Ratio = &ratio
	}
	return result, nil
}

// OccupancyRatio reports live/capacity. defined is false when the capacity
// is unknown, which is not the same as an empty venue.
func (as *AggregationService) OccupancyRatio(ctx context.Context, venue models.Venue, ttl time.Duration) (float64, bool, error) {
	occupancy, err := as.Occupancy(ctx, venue, ttl)
	if err != nil {
		return 0, false, err
	}
	if occupancy.Ratio == nil {
		return 0, false, nil
	}
	return *occupancy.Ratio, true, nil
}

// Status weighs each sample of the decay horizon by 2^(-age/halfLife).
func (as *AggregationService) Status(ctx context.Context, venue models.Venue) (*models.VenueStatus, error) {
	now := as.now()
	horizonStart := now.Add(-as.horizon)
	recentStart := now.Add(-recentWindow)
	since := horizonStart
	if recentStart.Before(since) {
		since = recentStart
	}

	status := &models.VenueStatus{
		VenueID:    venue.ID,
		VenueName:  venue.Name,
		ComputedAt: now,
	}

	var totalWeight, availability, occupancy, noise float64
	for sample, err := range as.ratings.SamplesSince(ctx, venue.ID, since) {
		if err != nil {
			return nil, err
		}
		if !sample.CreatedAt.Before(recentStart) {
			status.RecentCount++
		}
		if sample.CreatedAt.Before(horizonStart) {
			continue
		}

		weight := as.decay(now.Sub(sample.CreatedAt))
		availability += weight * (1 - float64(sample.Occupancy)/float64(models.Scale.Max))
		occupancy += weight * float64(sample.Occupancy)
		noise += weight * float64(sample.Noise)
		totalWeight += weight

		if status.LastUpdated == nil || sample.CreatedAt.After(*status.LastUpdated) {
			createdAt := sample.CreatedAt
			status.LastUpdated = &createdAt
		}
	}

	if totalWeight > 0 {
		avail := math.Max(0, math.Min(1, availability/totalWeight))
		avgOccupancy := occupancy / totalWeight
		avgNoise := noise / totalWeight
		status.Availability = &avail
		status.AvgOccupancy = &avgOccupancy
		status.AvgNoise = &avgNoise
	}
	return status, nil
}

func (as *AggregationService) decay(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	return math.Exp2(-age.Seconds() / as.halfLife.Seconds())
}

func mean(sum, count int64) *float64 {
	m := float64(sum) / float64(count)
	return &m
}
