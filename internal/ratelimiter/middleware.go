package ratelimiter

import (
	"net/http"

	"gitlab.com/caseproxy/caseproxy/internal/httperrors"
	"gitlab.com/caseproxy/caseproxy/internal/logging"
	"gitlab.com/caseproxy/caseproxy/internal/request"
	"gitlab.com/caseproxy/caseproxy/metrics"
)

// SourceIPLimiter returns middleware for rate-limiting clients based on their IP
func (rl *RateLimiter) SourceIPLimiter(handler http.Handler) http.Handler {
	if !rl.Enabled() {
		return handler
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sourceIP := request.GetRemoteAddrWithoutPort(r)
		if !rl.SourceIPAllowed(sourceIP) {
			metrics.RateLimitSourceIPBlockedCount.Inc()
			logging.LogRequest(r).WithField("source_ip", sourceIP).Info("source IP hit rate limit")
			httperrors.Serve429(w)
			return
		}

		handler.ServeHTTP(w, r)
	})
}
