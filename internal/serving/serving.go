// Package serving turns a resolved path into an HTTP response, either by
// streaming the file or by delegating the transfer to an upstream httpd
// via X-Sendfile / X-Accel-Redirect headers.
package serving

import (
	"net/http"

	"gitlab.com/caseproxy/caseproxy/internal/resolver"
)

// Serving is a strategy for answering a request once resolution succeeded.
// Implementations must not write to w when returning a non-nil error, so
// the caller can still produce an error status.
type Serving interface {
	ServeResolvedHTTP(w http.ResponseWriter, r *http.Request, res *resolver.Resolution) error
}

// NewDirect streams the resolved file's bytes.
func NewDirect() Serving {
	return &direct{}
}

// NewSendfile emits an X-Sendfile header carrying the absolute resolved
// path; the upstream httpd performs the actual transfer.
func NewSendfile() Serving {
	return &sendfile{}
}

// NewAccelRedirect emits an X-Accel-Redirect header for nginx, prefixing
// the percent-encoded path relative to the root.
func NewAccelRedirect(prefix string) Serving {
	return &accelRedirect{prefix: prefix}
}
