// Package ratelimiter limits request rates per source IP with a token
// bucket per tracked address.
package ratelimiter

import (
	"time"

	"golang.org/x/time/rate"

	"gitlab.com/caseproxy/caseproxy/internal/lru"
	"gitlab.com/caseproxy/caseproxy/metrics"
)

const (
	// defaultSourceIPItems bounds the number of distinct source IPs tracked
	// at once.
	defaultSourceIPItems              = 5000
	defaultSourceIPExpirationInterval = time.Minute
)

// Option function to configure a RateLimiter
type Option func(*RateLimiter)

// RateLimiter holds an LRU cache of rate.Limiter entries keyed by source
// IP. It also holds a now function that can be mocked in unit tests.
type RateLimiter struct {
	now                    func() time.Time
	sourceIPLimitPerSecond float64
	sourceIPBurstSize      int
	sourceIPCache          *lru.Cache
}

// New creates a RateLimiter allowing limitPerSecond requests per source IP
// with the given burst size.
func New(limitPerSecond float64, burstSize int, opts ...Option) *RateLimiter {
	rl := &RateLimiter{
		now:                    time.Now,
		sourceIPLimitPerSecond: limitPerSecond,
		sourceIPBurstSize:      burstSize,
		sourceIPCache: lru.New(
			"source_ip",
			defaultSourceIPItems,
			defaultSourceIPExpirationInterval,
			metrics.RateLimitSourceIPCachedEntries,
			metrics.RateLimitSourceIPCacheRequests,
		),
	}

	for _, opt := range opts {
		opt(rl)
	}

	return rl
}

// WithNow replaces the RateLimiter now function
func WithNow(now func() time.Time) Option {
	return func(rl *RateLimiter) {
		rl.now = now
	}
}

// Enabled reports whether any limit is configured.
func (rl *RateLimiter) Enabled() bool {
	return rl.sourceIPLimitPerSecond > 0
}

func (rl *RateLimiter) limiter(sourceIP string) *rate.Limiter {
	limiterI, _ := rl.sourceIPCache.FindOrFetch(sourceIP, "limiter", func() (interface{}, error) {
		return rate.NewLimiter(rate.Limit(rl.sourceIPLimitPerSecond), rl.sourceIPBurstSize), nil
	})

	return limiterI.(*rate.Limiter)
}

// SourceIPAllowed checks whether a request from this source IP may pass.
func (rl *RateLimiter) SourceIPAllowed(sourceIP string) bool {
	if !rl.Enabled() {
		return true
	}

	return rl.limiter(sourceIP).AllowN(rl.now(), 1)
}
