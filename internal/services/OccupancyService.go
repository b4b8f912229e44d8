package services

import (
	"context"
	"math"
	"seatcheck/internal/apperrors"
	"seatcheck/internal/models"
	"seatcheck/internal/providers"
	"seatcheck/internal/structures"
	"time"
)

type PresenceLedgerInterface interface {
	PresenceCounter
	CheckIn(ctx context.Context, userID, venueID string) (models.PresenceRecord, bool, error)
	Heartbeat(ctx context.Context, userID string) (models.PresenceRecord, error)
	CheckOut(ctx context.Context, userID, venueID string) error
	Current(ctx context.Context, userID string) (models.PresenceRecord, error)
	History(userID string) []models.PresenceRecord
	StalenessTTL() time.Duration
	OpenCount() int
}

type OccupancyServiceInterface interface {
	CheckIn(ctx context.Context, userID, venueID string) (models.PresenceRecord, bool, error)
	Heartbeat(ctx context.Context, userID string) (models.PresenceRecord, error)
	CheckOut(ctx context.Context, userID, venueID string) error
	CurrentPresence(ctx context.Context, userID string) (models.PresenceRecord, error)
	PresenceHistory(ctx context.Context, userID string) ([]models.PresenceRecord, error)
	SubmitRating(ctx context.Context, venueID string, occupancy, noise int) (models.RatingSample, error)
	GetStats(ctx context.Context, venueID string, minutes int) (*models.VenueStats, error)
	GetOccupancyRatio(ctx context.Context, venueID string) (*models.OccupancyRatio, error)
	GetStatus(ctx context.Context, venueID string) (*models.VenueStatus, error)
	ListVenues(ctx context.Context, minutes int) ([]models.VenueOverview, error)
	OpenPresences() int
}

// OccupancyService sequences the ledger, rating stream and aggregation
// calls of one request. Every call runs under the storage timeout and
// returns *apperrors.Error on failure.
type OccupancyService struct {
	presence      PresenceLedgerInterface
	ratings       models.RatingStream
	registry      models.VenueRegistry
	stats         AggregationServiceInterface
	metrics       providers.MetricsProviderInterface
	logger        providers.Logger
	timeout       time.Duration
	defaultWindow time.Duration
	maxWindow     time.Duration
}

func NewOccupancyService(
	conf *structures.Config,
	presence PresenceLedgerInterface,
	ratings models.RatingStream,
	registry models.VenueRegistry,
	stats AggregationServiceInterface,
	metrics providers.MetricsProviderInterface,
	logger providers.Logger,
) OccupancyServiceInterface {
	return &OccupancyService{
		presence:      presence,
		ratings:       ratings,
		registry:      registry,
		stats:         stats,
		metrics:       metrics,
		logger:        logger,
		timeout:       conf.Storage.Timeout,
		defaultWindow: conf.Ratings.DefaultWindow,
		maxWindow:     conf.Ratings.MaxWindow,
	}
}

func (s *OccupancyService) CheckIn(ctx context.Context, userID, venueID string) (models.PresenceRecord, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.venue(ctx, venueID); err != nil {
		return models.PresenceRecord{}, false, s.fail("check-in", err)
	}
	rec, created, err := s.presence.CheckIn(ctx, userID, venueID)
	if err != nil {
		return models.PresenceRecord{}, false, s.fail("check-in", err)
	}

	if created {
		s.metrics.IncPresenceEvents("checkin")
		s.logger.Debugf(providers.TypePresence, "User %s checked in at %s (%s)", userID, venueID, rec.ID)
	} else {
		s.metrics.IncPresenceEvents("refresh")
	}
	return rec, created, nil
}

func (s *OccupancyService) Heartbeat(ctx context.Context, userID string) (models.PresenceRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.presence.Heartbeat(ctx, userID)
	if err != nil {
		return models.PresenceRecord{}, s.fail("heartbeat", err)
	}
	s.metrics.IncPresenceEvents("heartbeat")
	return rec, nil
}

func (s *OccupancyService) CheckOut(ctx context.Context, userID, venueID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.presence.CheckOut(ctx, userID, venueID); err != nil {
		return s.fail("checkout", err)
	}
	s.metrics.IncPresenceEvents("checkout")
	s.logger.Debugf(providers.TypePresence, "User %s checked out", userID)
	return nil
}

func (s *OccupancyService) CurrentPresence(ctx context.Context, userID string) (models.PresenceRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.presence.Current(ctx, userID)
	if err != nil {
		return models.PresenceRecord{}, s.fail("current presence", err)
	}
	return rec, nil
}

func (s *OccupancyService) PresenceHistory(ctx context.Context, userID string) ([]models.PresenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, s.fail("presence history", err)
	}
	if userID == "" {
		return nil, s.fail("presence history", apperrors.InvalidArgument("user id is required"))
	}
	history := s.presence.History(userID)
	if history == nil {
		history = []models.PresenceRecord{}
	}
	return history, nil
}

func (s *OccupancyService) SubmitRating(ctx context.Context, venueID string, occupancy, noise int) (models.RatingSample, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := models.ValidateRating(occupancy, noise); err != nil {
		s.metrics.IncRatingsTotal("rejected")
		return models.RatingSample{}, s.fail("submit rating", err)
	}
	if _, err := s.venue(ctx, venueID); err != nil {
		s.metrics.IncRatingsTotal("rejected")
		return models.RatingSample{}, s.fail("submit rating", err)
	}
	sample, err := s.ratings.Submit(ctx, venueID, occupancy, noise)
	if err != nil {
		s.metrics.IncRatingsTotal("failed")
		return models.RatingSample{}, s.fail("submit rating", err)
	}
	s.metrics.IncRatingsTotal("accepted")
	return sample, nil
}

func (s *OccupancyService) GetStats(ctx context.Context, venueID string, minutes int) (*models.VenueStats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	window, err := s.window(minutes)
	if err != nil {
		return nil, s.fail("stats", err)
	}
	venue, err := s.venue(ctx, venueID)
	if err != nil {
		return nil, s.fail("stats", err)
	}
	stats, err := s.stats.Stats(ctx, venue, window, s.presence.StalenessTTL())
	if err != nil {
		return nil, s.fail("stats", err)
	}
	s.metrics.SetLiveOccupancy(venue.ID, stats.LiveOccupancyCount)
	return stats, nil
}

func (s *OccupancyService) GetOccupancyRatio(ctx context.Context, venueID string) (*models.OccupancyRatio, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	venue, err := s.venue(ctx, venueID)
	if err != nil {
		return nil, s.fail("occupancy ratio", err)
	}
	occupancy, err := s.stats.Occupancy(ctx, venue, s.presence.StalenessTTL())
	if err != nil {
		return nil, s.fail("occupancy ratio", err)
	}
	s.metrics.SetLiveOccupancy(venue.ID, occupancy.LiveOccupancyCount)
	return occupancy, nil
}

func (s *OccupancyService) GetStatus(ctx context.Context, venueID string) (*models.VenueStatus, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	venue, err := s.venue(ctx, venueID)
	if err != nil {
		return nil, s.fail("status", err)
	}
	status, err := s.stats.Status(ctx, venue)
	if err != nil {
		return nil, s.fail("status", err)
	}
	return status, nil
}

func (s *OccupancyService) ListVenues(ctx context.Context, minutes int) ([]models.VenueOverview, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	window, err := s.window(minutes)
	if err != nil {
		return nil, s.fail("list venues", err)
	}
	venues, err := s.registry.Venues(ctx)
	if err != nil {
		return nil, s.fail("list venues", err)
	}
	stats, err := s.stats.AllStats(ctx, venues, window, s.presence.StalenessTTL())
	if err != nil {
		return nil, s.fail("list venues", err)
	}

	result := make([]models.VenueOverview, 0, len(venues))
	for i, venue := range venues {
		result = append(result, models.VenueOverview{Venue: venue, Stats: stats[i]})
		s.metrics.SetLiveOccupancy(venue.ID, stats[i].LiveOccupancyCount)
	}
	return result, nil
}

func (s *OccupancyService) OpenPresences() int {
	return s.presence.OpenCount()
}

func (s *OccupancyService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *OccupancyService) venue(ctx context.Context, venueID string) (models.Venue, error) {
	if venueID == "" {
		return models.Venue{}, apperrors.InvalidArgument("venue_id is required")
	}
	return s.registry.Venue(ctx, venueID)
}

// window turns a minutes query into a duration. Zero selects the default.
func (s *OccupancyService) window(minutes int) (time.Duration, error) {
	if minutes == 0 {
		return s.defaultWindow, nil
	}
	maxMinutes := int(s.maxWindow / time.Minute)
	if s.maxWindow <= 0 {
		maxMinutes = int(math.MaxInt64 / int64(time.Minute))
	}
	if minutes < 0 || minutes > maxMinutes {
		return 0, apperrors.InvalidArgument("minutes must be between 1 and %d", maxMinutes)
	}
	return time.Duration(minutes) * time.Minute, nil
}

func (s *OccupancyService) fail(op string, err error) error {
	appErr := apperrors.Classify(err)
	switch appErr.Kind {
	case apperrors.KindTimeout, apperrors.KindUnavailable, apperrors.KindInternal:
		s.logger.Errorf(providers.TypeStorage, "%s failed: %v", op, err)
	default:
		s.logger.Debugf(providers.TypeApp, "%s rejected: %v", op, err)
	}
	return appErr
}
