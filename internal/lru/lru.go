package lru

import (
	"time"

	"github.com/karlseguin/ccache/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// getsPerPromote is a value that makes the item to be promoted
// it is taken arbitrally as a sane value indicating that the item
// was frequently picked
// promotion moves the item to the front of the LRU list
const getsPerPromote = 64

// itemsToPruneDiv is a value that indicates how much items
// needs to be pruned on OOM, this prunes 1/16 of items
const itemsToPruneDiv = 16

// Cache wraps a ccache and allows setting custom metrics for hits/misses.
type Cache struct {
	op                  string
	duration            time.Duration
	cache               *ccache.Cache
	metricCachedEntries *prometheus.GaugeVec
	metricCacheRequests *prometheus.CounterVec
}

// New creates an LRU cache
func New(op string, maxEntries int64, duration time.Duration, cachedEntriesMetric *prometheus.GaugeVec, cacheRequestsMetric *prometheus.CounterVec) *Cache {
	configuration := ccache.Configure()
	configuration.MaxSize(maxEntries)
	configuration.ItemsToPrune(uint32(maxEntries) / itemsToPruneDiv)
	configuration.GetsPerPromote(getsPerPromote) // if item gets requested frequently promote it
	configuration.OnDelete(func(*ccache.Item) {
		cachedEntriesMetric.WithLabelValues(op).Dec()
	})

	return &Cache{
		op:                  op,
		cache:               ccache.New(configuration),
		duration:            duration,
		metricCachedEntries: cachedEntriesMetric,
		metricCacheRequests: cacheRequestsMetric,
	}
}

// FindOrFetch will try to get the item from the cache if exists and is not expired.
// If it can't find it, it will call fetchFn to retrieve the item and cache it.
func (c *Cache) FindOrFetch(cacheNamespace, key string, fetchFn func() (interface{}, error)) (interface{}, error) {
	item := c.cache.Get(cacheNamespace + key)

	if item != nil && !item.Expired() {
		c.metricCacheRequests.WithLabelValues(c.op, "hit").Inc()
		return item.Value(), nil
	}

	value, err := fetchFn()
	if err != nil {
		c.metricCacheRequests.WithLabelValues(c.op, "error").Inc()
		return nil, err
	}

	c.metricCacheRequests.WithLabelValues(c.op, "miss").Inc()
	c.metricCachedEntries.WithLabelValues(c.op).Inc()

	c.cache.Set(cacheNamespace+key, value, c.duration)

	return value, nil
}

// Get returns the cached value for key, or nil when the key is absent or
// expired. Unlike FindOrFetch it does not count a hit or miss, so callers
// that apply their own freshness check can report the outcome themselves.
func (c *Cache) Get(key string) interface{} {
	item := c.cache.Get(key)
	if item == nil || item.Expired() {
		return nil
	}

	return item.Value()
}

// Set stores a value under key for the cache's configured duration.
func (c *Cache) Set(key string, value interface{}) {
	if c.cache.Get(key) == nil {
		c.metricCachedEntries.WithLabelValues(c.op).Inc()
	}

	c.cache.Set(key, value, c.duration)
}

// Delete evicts key from the cache.
func (c *Cache) Delete(key string) {
	c.cache.Delete(key)
}

// Hit counts a lookup served from a cached value.
func (c *Cache) Hit() {
	c.metricCacheRequests.WithLabelValues(c.op, "hit").Inc()
}

// Miss counts a lookup that had to fetch.
func (c *Cache) Miss() {
	c.metricCacheRequests.WithLabelValues(c.op, "miss").Inc()
}

// Error counts a lookup whose fetch failed.
func (c *Cache) Error() {
	c.metricCacheRequests.WithLabelValues(c.op, "error").Inc()
}
