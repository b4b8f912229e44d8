package providers

import (
	"seatcheck/internal/structures"
	"strings"
)

// MetricsCacheProvider counts lookups per key family. Keys look like
// "venue:<id>" or "venues"; the part before the colon is the family.
type MetricsCacheProvider struct {
	inner   CacheProviderInterface
	metrics MetricsProviderInterface
}

func cacheKeyFamily(key string) string {
	family, _, _ := strings.Cut(key, ":")
	if family == "" {
		return "unknown"
	}
	return family
}

func (c *MetricsCacheProvider) Get(key string) ([]byte, bool) {
	val, ok := c.inner.Get(key)
	if ok {
		c.metrics.IncCacheHits(cacheKeyFamily(key))
	} else {
		c.metrics.IncCacheMisses(cacheKeyFamily(key))
	}
	return val, ok
}

func (c *MetricsCacheProvider) Set(key string, value []byte) {
	c.inner.Set(key, value)
}

// Del is only issued for entries that failed to decode.
func (c *MetricsCacheProvider) Del(key string) {
	c.metrics.IncCacheEvictions(cacheKeyFamily(key))
	c.inner.Del(key)
}

// NewInstrumentedCacheProvider skips the wrapper when the cache is disabled,
// otherwise every venue lookup would show up as a miss.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if !conf.Cache.Enabled {
		return inner
	}
	return &MetricsCacheProvider{
		inner:   inner,
		metrics: metrics,
	}
}
