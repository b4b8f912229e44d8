package models

import (
	"context"
	"seatcheck/internal/apperrors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStream() (*MemoryRatingStream, *testClock) {
	clock := newTestClock()
	s := NewMemoryRatingStream()
	s.SetClock(clock.Now)
	return s, clock
}

func collect(t *testing.T, s RatingStream, venueID string, since time.Time) []RatingSample {
	t.Helper()
	var out []RatingSample
	for sample, err := range s.SamplesSince(context.Background(), venueID, since) {
		require.NoError(t, err)
		out = append(out, sample)
	}
	return out
}

func TestMemoryRatingStream_Submit(t *testing.T) {
	s, clock := newStream()
	sample, err := s.Submit(context.Background(), "bass", 3, 2)
	require.NoError(t, err)

	assert.NotEmpty(t, sample.ID)
	assert.Equal(t, "bass", sample.VenueID)
	assert.Equal(t, 3, sample.Occupancy)
	assert.Equal(t, 2, sample.Noise)
	assert.Equal(t, clock.Now(), sample.CreatedAt)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryRatingStream_RejectsOutOfRange(t *testing.T) {
	s, _ := newStream()
	cases := [][2]int{{-1, 0}, {6, 0}, {0, -1}, {0, 6}, {100, 100}}
	for _, c := range cases {
		_, err := s.Submit(context.Background(), "bass", c[0], c[1])
		assert.True(t, apperrors.Is(err, apperrors.KindInvalidArgument), "occ=%d noise=%d", c[0], c[1])
	}
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, collect(t, s, "bass", time.Time{}))
}

func TestMemoryRatingStream_AcceptsBounds(t *testing.T) {
	s, _ := newStream()
	_, err := s.Submit(context.Background(), "bass", Scale.Min, Scale.Max)
	require.NoError(t, err)
	_, err = s.Submit(context.Background(), "bass", Scale.Max, Scale.Min)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestMemoryRatingStream_SamplesSinceFiltersAndOrders(t *testing.T) {
	s, clock := newStream()
	start := clock.Now()
	for i := 0; i < 5; i++ {
		_, err := s.Submit(context.Background(), "bass", i, 5-i)
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}
	_, err := s.Submit(context.Background(), "sterling", 1, 1)
	require.NoError(t, err)

	samples := collect(t, s, "bass", start.Add(2*time.Minute))
	require.Len(t, samples, 3)
	assert.Equal(t, 2, samples[0].Occupancy)
	assert.Equal(t, 4, samples[2].Occupancy)
	for i := 1; i < len(samples); i++ {
		assert.False(t, samples[i].CreatedAt.Before(samples[i-1].CreatedAt))
	}
}

func TestMemoryRatingStream_SequenceIsRestartable(t *testing.T) {
	s, clock := newStream()
	_, err := s.Submit(context.Background(), "bass", 1, 1)
	require.NoError(t, err)

	seq := s.SamplesSince(context.Background(), "bass", clock.Now().Add(-time.Minute))
	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	assert.Equal(t, 1, count())

	_, err = s.Submit(context.Background(), "bass", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, count())
}

func TestMemoryRatingStream_OutOfOrderClockKeepsOrder(t *testing.T) {
	s, clock := newStream()
	_, err := s.Submit(context.Background(), "bass", 1, 1)
	require.NoError(t, err)
	clock.Advance(-30 * time.Second)
	_, err = s.Submit(context.Background(), "bass", 2, 2)
	require.NoError(t, err)

	samples := collect(t, s, "bass", time.Time{})
	require.Len(t, samples, 2)
	assert.Equal(t, 2, samples[0].Occupancy)
	assert.Equal(t, 1, samples[1].Occupancy)
}

func TestMemoryRatingStream_ContextCanceled(t *testing.T) {
	s, _ := newStream()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Submit(ctx, "bass", 1, 1)
	assert.ErrorIs(t, err, context.Canceled)

	var seqErr error
	for _, err := range s.SamplesSince(ctx, "bass", time.Time{}) {
		seqErr = err
	}
	assert.ErrorIs(t, seqErr, context.Canceled)
}

func TestMemoryRatingStream_ConcurrentSubmit(t *testing.T) {
	s, _ := newStream()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			venue := "bass"
			if i%2 == 0 {
				venue = "sterling"
			}
			_, err := s.Submit(context.Background(), venue, i%6, i%6)
			assert.NoError(t, err)
			for range s.SamplesSince(context.Background(), venue, time.Time{}) {
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, s.Len())
	assert.Len(t, collect(t, s, "bass", time.Time{}), 50)
}

func TestMemoryRatingStream_SamplesRestore(t *testing.T) {
	s, _ := newStream()
	for i := 0; i < 3; i++ {
		_, err := s.Submit(context.Background(), "bass", i, i)
		require.NoError(t, err)
	}
	samples := s.Samples()
	samples = append(samples, RatingSample{ID: "bad", VenueID: "bass", Occupancy: 9})

	restored, _ := newStream()
	restored.RestoreSamples(samples)
	assert.Equal(t, 3, restored.Len())
	assert.Len(t, collect(t, restored, "bass", time.Time{}), 3)
}
