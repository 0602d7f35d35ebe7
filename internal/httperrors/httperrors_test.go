package httperrors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorResponsesAreEmpty(t *testing.T) {
	tests := map[string]struct {
		serve  func(http.ResponseWriter)
		status int
	}{
		"400": {Serve400, http.StatusBadRequest},
		"404": {Serve404, http.StatusNotFound},
		"405": {Serve405, http.StatusMethodNotAllowed},
		"429": {Serve429, http.StatusTooManyRequests},
		"500": {Serve500, http.StatusInternalServerError},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tc.serve(w)

			require.Equal(t, tc.status, w.Code)
			require.Empty(t, w.Body.Bytes())
			require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestServe405SetsAllow(t *testing.T) {
	w := httptest.NewRecorder()
	Serve405(w)
	require.Equal(t, "GET, HEAD", w.Header().Get("Allow"))
}
