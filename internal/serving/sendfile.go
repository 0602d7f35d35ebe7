package serving

import (
	"net/http"
	"net/url"
	"strings"

	"gitlab.com/caseproxy/caseproxy/internal/resolver"
)

type sendfile struct{}

func (sendfile) ServeResolvedHTTP(w http.ResponseWriter, r *http.Request, res *resolver.Resolution) error {
	w.Header().Set("X-Sendfile", res.Path)
	w.WriteHeader(http.StatusOK)
	return nil
}

type accelRedirect struct {
	prefix string
}

func (a *accelRedirect) ServeResolvedHTTP(w http.ResponseWriter, r *http.Request, res *resolver.Resolution) error {
	// nginx treats the header value as a URI, so every segment must be
	// percent-encoded; no query string is ever appended
	encoded := make([]string, len(res.RelSegments))
	for i, segment := range res.RelSegments {
		encoded[i] = url.PathEscape(segment)
	}

	w.Header().Set("X-Accel-Redirect", a.prefix+strings.Join(encoded, "/"))
	w.WriteHeader(http.StatusOK)
	return nil
}
