// Package httperrors writes the error statuses of the HTTP contract. All
// error responses carry an empty body; the proxy resolves paths, it does
// not render pages.
package httperrors

import (
	"net/http"
)

func serveError(w http.ResponseWriter, status int) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
}

// Serve400 rejects a malformed or traversal request path.
func Serve400(w http.ResponseWriter) {
	serveError(w, http.StatusBadRequest)
}

// Serve404 answers a request whose path has no case-insensitive match.
func Serve404(w http.ResponseWriter) {
	serveError(w, http.StatusNotFound)
}

// Serve405 rejects methods other than GET and HEAD.
func Serve405(w http.ResponseWriter) {
	w.Header().Set("Allow", "GET, HEAD")
	serveError(w, http.StatusMethodNotAllowed)
}

// Serve429 answers a rate-limited request.
func Serve429(w http.ResponseWriter) {
	serveError(w, http.StatusTooManyRequests)
}

// Serve500 answers a request that failed on a filesystem error.
func Serve500(w http.ResponseWriter) {
	serveError(w, http.StatusInternalServerError)
}
