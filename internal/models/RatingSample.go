package models

import (
	"context"
	"iter"
	"seatcheck/internal/apperrors"
	"time"
)

// RatingScale is the inclusive range accepted for occupancy and noise.
type RatingScale struct {
	Min int
	Max int
}

var Scale = RatingScale{Min: 0, Max: 5}

func (s RatingScale) Contains(v int) bool {
	return v >= s.Min && v <= s.Max
}

type RatingSample struct {
	ID        string    `json:"id"`
	VenueID   string    `json:"venue_id"`
	Occupancy int       `json:"occupancy"`
	Noise     int       `json:"noise"`
	CreatedAt time.Time `json:"created_at"`
}

func ValidateRating(occupancy, noise int) error {
	if !Scale.Contains(occupancy) {
		return apperrors.InvalidArgument("occupancy %d out of range [%d,%d]", occupancy, Scale.Min, Scale.Max)
	}
	if !Scale.Contains(noise) {
		return apperrors.InvalidArgument("noise %d out of range [%d,%d]", noise, Scale.Min, Scale.Max)
	}
	return nil
}

// RatingStream is an append-only store of rating samples.
// SamplesSince yields samples with CreatedAt >= since in ascending order;
// ranging over the sequence again re-reads the store.
type RatingStream interface {
	Submit(ctx context.Context, venueID string, occupancy, noise int) (RatingSample, error)
	SamplesSince(ctx context.Context, venueID string, since time.Time) iter.Seq2[RatingSample, error]
}

// RatingSnapshotter is implemented by streams that live only in memory and
// need to be carried through the snapshot file.
type RatingSnapshotter interface {
	Samples() []RatingSample
	RestoreSamples(samples []RatingSample)
}
