// Package handlers routes incoming requests into the resolver and maps
// its outcomes onto the HTTP contract.
package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gitlab.com/gitlab-org/labkit/errortracking"

	"gitlab.com/caseproxy/caseproxy/internal/httperrors"
	"gitlab.com/caseproxy/caseproxy/internal/logging"
	"gitlab.com/caseproxy/caseproxy/internal/resolver"
	"gitlab.com/caseproxy/caseproxy/internal/serving"
	"gitlab.com/caseproxy/caseproxy/metrics"
)

var errPrefixMismatch = errors.New("request path does not start with the configured prefix")

// Handler resolves request paths and serves the result.
type Handler struct {
	urlPrefix string
	resolver  *resolver.Resolver
	serving   serving.Serving
}

func New(urlPrefix string, res *resolver.Resolver, srv serving.Serving) *Handler {
	return &Handler{
		urlPrefix: urlPrefix,
		resolver:  res,
		serving:   srv,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		httperrors.Serve405(w)
		return
	}

	started := time.Now()
	defer func() {
		metrics.ServingTime.Observe(time.Since(started).Seconds())
	}()

	segments, err := splitRequestPath(h.urlPrefix, r.URL.EscapedPath())
	switch {
	case errors.Is(err, errPrefixMismatch):
		metrics.ResolutionsTotal.WithLabelValues("not_found").Inc()
		httperrors.Serve404(w)
		return
	case err != nil:
		metrics.ResolutionsTotal.WithLabelValues("invalid").Inc()
		httperrors.Serve400(w)
		return
	}

	res, err := h.resolver.Resolve(r.Context(), segments)
	switch {
	case err == nil:
		// fall through to serving
	case errors.Is(err, resolver.ErrNotFound):
		metrics.ResolutionsTotal.WithLabelValues("not_found").Inc()
		httperrors.Serve404(w)
		return
	case resolver.IsInvalidPath(err):
		metrics.ResolutionsTotal.WithLabelValues("invalid").Inc()
		httperrors.Serve400(w)
		return
	default:
		metrics.ResolutionsTotal.WithLabelValues("error").Inc()
		logging.LogRequest(r).WithError(err).Error("resolution failed")
		errortracking.Capture(err, errortracking.WithRequest(r))
		httperrors.Serve500(w)
		return
	}

	if err := h.serving.ServeResolvedHTTP(w, r, res); err != nil {
		metrics.ResolutionsTotal.WithLabelValues("error").Inc()
		logging.LogRequest(r).WithError(err).Error("serving resolved file failed")
		errortracking.Capture(err, errortracking.WithRequest(r))
		httperrors.Serve500(w)
		return
	}

	metrics.ResolutionsTotal.WithLabelValues("found").Inc()
}

// splitRequestPath strips the configured prefix from the escaped request
// path and percent-decodes the remaining segments one by one, so an
// encoded separator inside a segment cannot smuggle extra path components.
func splitRequestPath(prefix, escapedPath string) ([]string, error) {
	if !strings.HasPrefix(escapedPath, prefix) {
		return nil, errPrefixMismatch
	}

	rest := strings.TrimPrefix(escapedPath, prefix)

	// the prefix must end on a segment boundary: /files must not match
	// /filesystem.txt
	if !strings.HasSuffix(prefix, "/") && rest != "" && !strings.HasPrefix(rest, "/") {
		return nil, errPrefixMismatch
	}

	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return nil, nil
	}

	rawSegments := strings.Split(rest, "/")
	segments := make([]string, len(rawSegments))
	for i, raw := range rawSegments {
		segment, err := url.PathUnescape(raw)
		if err != nil {
			return nil, err
		}
		segments[i] = segment
	}

	return segments, nil
}
