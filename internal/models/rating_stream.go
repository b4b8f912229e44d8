package models

import (
	"context"
	"iter"
	"seatcheck/internal/apperrors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// MemoryRatingStream keeps samples per venue, sorted by CreatedAt.
// Readers capture a length-capped slice, so appends never race with them.
type MemoryRatingStream struct {
	venues sync.Map // venue id -> *venueSamples
	total  atomic.Int64
	now    func() time.Time
}

type venueSamples struct {
	mu      sync.RWMutex
	samples []RatingSample
}

func NewMemoryRatingStream() *MemoryRatingStream {
	return &MemoryRatingStream{
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryRatingStream) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MemoryRatingStream) Submit(ctx context.Context, venueID string, occupancy, noise int) (RatingSample, error) {
	if err := ctx.Err(); err != nil {
		return RatingSample{}, err
	}
	if strings.TrimSpace(venueID) == "" {
		return RatingSample{}, apperrors.InvalidArgument("venue id is required")
	}
	if err := ValidateRating(occupancy, noise); err != nil {
		return RatingSample{}, err
	}

	vs := s.shard(venueID)
	vs.mu.Lock()
	defer vs.mu.Unlock()

	sample := RatingSample{
		ID:        uuid.NewString(),
		VenueID:   venueID,
		Occupancy: occupancy,
		Noise:     noise,
		CreatedAt: s.now(),
	}
	vs.insert(sample)
	s.total.Inc()
	return sample, nil
}

func (s *MemoryRatingStream) SamplesSince(ctx context.Context, venueID string, since time.Time) iter.Seq2[RatingSample, error] {
	return func(yield func(RatingSample, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(RatingSample{}, err)
			return
		}
		v, ok := s.venues.Load(venueID)
		if !ok {
			return
		}
		vs := v.(*venueSamples)

		vs.mu.RLock()
		idx := sort.Search(len(vs.samples), func(i int) bool {
			return !vs.samples[i].CreatedAt.Before(since)
		})
		window := vs.samples[idx:len(vs.samples):len(vs.samples)]
		vs.mu.RUnlock()

		for _, sample := range window {
			if !yield(sample, nil) {
				return
			}
		}
	}
}

func (s *MemoryRatingStream) Len() int {
	return int(s.total.Load())
}

// Samples returns every stored sample, grouped by venue.
func (s *MemoryRatingStream) Samples() []RatingSample {
	var result []RatingSample
	s.venues.Range(func(_, value any) bool {
		vs := value.(*venueSamples)
		vs.mu.RLock()
		result = append(result, vs.samples...)
		vs.mu.RUnlock()
		return true
	})
	return result
}

func (s *MemoryRatingStream) RestoreSamples(samples []RatingSample) {
	s.venues.Clear()
	s.total.Store(0)
	for _, sample := range samples {
		if sample.VenueID == "" || ValidateRating(sample.Occupancy, sample.Noise) != nil {
			continue
		}
		vs := s.shard(sample.VenueID)
		vs.mu.Lock()
		vs.insert(sample)
		vs.mu.Unlock()
		s.total.Inc()
	}
}

func (s *MemoryRatingStream) shard(venueID string) *venueSamples {
	if v, ok := s.venues.Load(venueID); ok {
		return v.(*venueSamples)
	}
	v, _ := s.venues.LoadOrStore(venueID, &venueSamples{})
	return v.(*venueSamples)
}

// insert must be called with vs.mu held. Out-of-order samples go into a
// fresh array because readers may still hold the old one.
func (vs *venueSamples) insert(sample RatingSample) {
	n := len(vs.samples)
	if n == 0 || !sample.CreatedAt.Before(vs.samples[n-1].CreatedAt) {
		vs.samples = append(vs.samples, sample)
		return
	}
	idx := sort.Search(n, func(i int) bool {
		return sample.CreatedAt.Before(vs.samples[i].CreatedAt)
	})
	grown := make([]RatingSample, 0, n+1)
	grown = append(grown, vs.samples[:idx]...)
	grown = append(grown, sample)
	grown = append(grown, vs.samples[idx:]...)
	vs.samples = grown
}
