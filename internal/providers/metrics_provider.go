package providers

import (
	"seatcheck/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits(family string)
	IncCacheMisses(family string)
	IncCacheEvictions(family string)
	ObservePersistenceDuration(duration time.Duration)
	IncPresenceEvents(event string)
	IncRatingsTotal(outcome string)
	ObserveSweep(closed, pruned int)
	SetLiveOccupancy(venueID string, count int)
}

// OpenPresenceCounter reports how many presence records are currently open.
type OpenPresenceCounter interface {
	OpenCount() int
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheLookups        *prometheus.CounterVec
	cacheEvictions      *prometheus.CounterVec
	persistenceDuration prometheus.Histogram
	presenceEvents      *prometheus.CounterVec
	ratingsTotal        *prometheus.CounterVec
	sweepClosed         prometheus.Counter
	sweepPruned         prometheus.Counter
	liveOccupancy       *prometheus.GaugeVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits(family string) {
	m.cacheLookups.WithLabelValues(family, "hit").Inc()
}

func (m *MetricsProvider) IncCacheMisses(family string) {
	m.cacheLookups.WithLabelValues(family, "miss").Inc()
}

func (m *MetricsProvider) IncCacheEvictions(family string) {
	m.cacheEvictions.WithLabelValues(family).Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncPresenceEvents(event string) {
	m.presenceEvents.WithLabelValues(event).Inc()
}

func (m *MetricsProvider) IncRatingsTotal(outcome string) {
	m.ratingsTotal.WithLabelValues(outcome).Inc()
}

func (m *MetricsProvider) ObserveSweep(closed, pruned int) {
	m.sweepClosed.Add(float64(closed))
	m.sweepPruned.Add(float64(pruned))
}

func (m *MetricsProvider) SetLiveOccupancy(venueID string, count int) {
	m.liveOccupancy.WithLabelValues(venueID).Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, presence OpenPresenceCounter) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "seatcheck_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seatcheck_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "seatcheck_cache_lookups_total",
			Help: "Venue cache lookups by key family and result",
		}, []string{"family", "result"}),

		cacheEvictions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "seatcheck_cache_evictions_total",
			Help: "Undecodable venue cache entries dropped",
		}, []string{"family"}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "seatcheck_persistence_duration_seconds",
			Help:    "Duration of snapshot operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		presenceEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "seatcheck_presence_events_total",
			Help: "Presence transitions by kind",
		}, []string{"event"}),

		ratingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "seatcheck_ratings_total",
			Help: "Rating submissions by outcome",
		}, []string{"outcome"}),

		sweepClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "seatcheck_sweep_closed_total",
			Help: "Stale presence records closed by the sweeper",
		}),

		sweepPruned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "seatcheck_sweep_pruned_total",
			Help: "Closed presence records pruned past retention",
		}),

		liveOccupancy: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "seatcheck_live_occupancy",
			Help: "Last computed live occupancy count per venue",
		}, []string{"venue"}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "seatcheck_open_presences",
		Help: "Current number of open presence records",
	}, func() float64 {
		return float64(presence.OpenCount())
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits(_ string)                            {}
func (n *noopMetrics) IncCacheMisses(_ string)                          {}
func (n *noopMetrics) IncCacheEvictions(_ string)                       {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncPresenceEvents(_ string)                       {}
func (n *noopMetrics) IncRatingsTotal(_ string)                         {}
func (n *noopMetrics) ObserveSweep(_, _ int)                            {}
func (n *noopMetrics) SetLiveOccupancy(_ string, _ int)                 {}
