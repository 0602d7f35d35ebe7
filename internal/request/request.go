// Package request has small helpers for reading client information from an
// incoming request.
package request

import (
	"net"
	"net/http"
)

// GetRemoteAddrWithoutPort strips the port from the request's remote
// address. Falls back to the raw value when it carries no port.
func GetRemoteAddrWithoutPort(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}
