package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/caseproxy/caseproxy/internal/dircache"
	"gitlab.com/caseproxy/caseproxy/internal/resolver"
	"gitlab.com/caseproxy/caseproxy/internal/serving"
	"gitlab.com/caseproxy/caseproxy/internal/vfs"
	"gitlab.com/caseproxy/caseproxy/internal/vfs/local"
)

func newTestHandler(t *testing.T, prefix string, srv func(root string) serving.Serving) (*Handler, string) {
	t.Helper()

	root, err := local.Root(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Image.PNG"), []byte("png bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "Image.PNG"), []byte("nested png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "File.txt"), []byte("upper"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.txt"), []byte("lower"), 0o644))

	fs := vfs.FS(local.FS{})
	res := resolver.New(root, fs, dircache.New(fs, 0, 0))

	return New(prefix, res, srv(root)), root
}

func doRequest(t *testing.T, h http.Handler, method, target string) *http.Response {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))

	return w.Result()
}

func TestServesCaseVariantPath(t *testing.T) {
	// Scenario A: root contains Image.PNG; /image.png streams its bytes
	h, _ := newTestHandler(t, "/", func(string) serving.Serving { return serving.NewDirect() })

	resp := doRequest(t, h, http.MethodGet, "/image.png")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "png bytes", string(body))
}

func TestRejectsTraversal(t *testing.T) {
	// Scenario B: /../etc/passwd is a client error, not a lookup
	h, _ := newTestHandler(t, "/", func(string) serving.Serving { return serving.NewDirect() })

	for _, target := range []string{
		"/../etc/passwd",
		"/%2e%2e/etc/passwd",
		"/sub/%2e%2e/%2e%2e/etc/passwd",
		"/sub%2fImage.PNG",
	} {
		resp := doRequest(t, h, http.MethodGet, target)
		resp.Body.Close()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "target %q", target)

		body, _ := io.ReadAll(resp.Body)
		require.Empty(t, body)
	}
}

func TestSendfileMode(t *testing.T) {
	// Scenario C: X-Sendfile carries the absolute resolved path
	h, root := newTestHandler(t, "/", func(string) serving.Serving { return serving.NewSendfile() })

	resp := doRequest(t, h, http.MethodGet, "/image.png")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, filepath.Join(root, "Image.PNG"), resp.Header.Get("X-Sendfile"))

	body, _ := io.ReadAll(resp.Body)
	require.Empty(t, body)
}

func TestAccelRedirectMode(t *testing.T) {
	// Scenario D: X-Accel-Redirect carries prefix + encoded relative path
	h, _ := newTestHandler(t, "/", func(string) serving.Serving {
		return serving.NewAccelRedirect("/files/_caseproxied/")
	})

	resp := doRequest(t, h, http.MethodGet, "/SUB/image.png")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/files/_caseproxied/sub/Image.PNG", resp.Header.Get("X-Accel-Redirect"))
}

func TestAmbiguousSiblingsAreDeterministic(t *testing.T) {
	// Scenario E: File.txt and file.txt collide; FILE.TXT picks the
	// lexicographically smallest on every run
	h, _ := newTestHandler(t, "/", func(string) serving.Serving { return serving.NewDirect() })

	for i := 0; i < 10; i++ {
		resp := doRequest(t, h, http.MethodGet, "/FILE.TXT")

		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		require.Equal(t, "upper", string(body))
	}
}

func TestNotFound(t *testing.T) {
	h, _ := newTestHandler(t, "/", func(string) serving.Serving { return serving.NewDirect() })

	for _, target := range []string{"/missing.png", "/sub", "/"} {
		resp := doRequest(t, h, http.MethodGet, target)
		resp.Body.Close()

		require.Equal(t, http.StatusNotFound, resp.StatusCode, "target %q", target)
	}
}

func TestPrefixHandling(t *testing.T) {
	h, _ := newTestHandler(t, "/files/", func(string) serving.Serving { return serving.NewDirect() })

	resp := doRequest(t, h, http.MethodGet, "/files/image.png")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// paths outside the prefix 404 without resolving
	for _, target := range []string{"/image.png", "/other/image.png"} {
		resp := doRequest(t, h, http.MethodGet, target)
		resp.Body.Close()

		require.Equal(t, http.StatusNotFound, resp.StatusCode, "target %q", target)
	}
}

func TestRejectsOtherMethods(t *testing.T) {
	h, _ := newTestHandler(t, "/", func(string) serving.Serving { return serving.NewDirect() })

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		resp := doRequest(t, h, method, "/image.png")
		resp.Body.Close()

		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, "method %s", method)
	}
}

func TestHeadRequest(t *testing.T) {
	h, _ := newTestHandler(t, "/", func(string) serving.Serving { return serving.NewDirect() })

	resp := doRequest(t, h, http.MethodHead, "/image.png")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "9", resp.Header.Get("Content-Length"))

	body, _ := io.ReadAll(resp.Body)
	require.Empty(t, body)
}

func TestSplitRequestPath(t *testing.T) {
	tests := map[string]struct {
		prefix   string
		path     string
		expected []string
		invalid  bool
		noMatch  bool
	}{
		"root prefix":           {"/", "/a/b.txt", []string{"a", "b.txt"}, false, false},
		"decodes per segment":   {"/", "/my%20docs/A%20File.txt", []string{"my docs", "A File.txt"}, false, false},
		"empty after prefix":    {"/", "/", nil, false, false},
		"custom prefix":         {"/files/", "/files/x.txt", []string{"x.txt"}, false, false},
		"prefix boundary":       {"/files", "/filesystem.txt", nil, false, true},
		"prefix without slash":  {"/files", "/files/x.txt", []string{"x.txt"}, false, false},
		"missing prefix":        {"/files/", "/x.txt", nil, false, true},
		"invalid percent":       {"/", "/bad%zz", nil, true, false},
		"encoded dots preserved": {"/", "/%2e%2e/x", []string{"..", "x"}, false, false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			segments, err := splitRequestPath(tc.prefix, tc.path)
			switch {
			case tc.noMatch:
				require.ErrorIs(t, err, errPrefixMismatch)
			case tc.invalid:
				require.Error(t, err)
			default:
				require.NoError(t, err)
				require.Equal(t, tc.expected, segments)
			}
		})
	}
}
