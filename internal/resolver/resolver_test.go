package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/caseproxy/caseproxy/internal/dircache"
	"gitlab.com/caseproxy/caseproxy/internal/vfs"
	"gitlab.com/caseproxy/caseproxy/internal/vfs/fake"
	"gitlab.com/caseproxy/caseproxy/internal/vfs/local"
)

func newFakeResolver(fs vfs.FS) *Resolver {
	return New("/root", fs, dircache.New(fs, 0, 0))
}

func TestResolveCaseInsensitiveMatch(t *testing.T) {
	fs := fake.New()
	fs.AddDir("/root", time.Unix(100, 0))
	fs.AddDir("/root/Sub", time.Unix(100, 0))
	fs.AddFile("/root/Sub/Image.PNG", 10)

	r := newFakeResolver(fs)

	tests := map[string][]string{
		"all lowercase":   {"sub", "image.png"},
		"all uppercase":   {"SUB", "IMAGE.PNG"},
		"mixed":           {"sUb", "iMaGe.pNg"},
		"already correct": {"Sub", "Image.PNG"},
	}

	for name, segments := range tests {
		t.Run(name, func(t *testing.T) {
			res, err := r.Resolve(context.Background(), segments)
			require.NoError(t, err)
			require.Equal(t, "/root/Sub/Image.PNG", res.Path)
			require.Equal(t, "Sub/Image.PNG", res.RelPath())
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	fs := fake.New()
	fs.AddDir("/root", time.Unix(100, 0))
	fs.AddFile("/root/Image.PNG", 10)

	r := newFakeResolver(fs)

	variant, err := r.Resolve(context.Background(), []string{"image.png"})
	require.NoError(t, err)

	corrected, err := r.Resolve(context.Background(), variant.RelSegments)
	require.NoError(t, err)
	require.Equal(t, variant.Path, corrected.Path)
}

func TestResolveNotFound(t *testing.T) {
	fs := fake.New()
	fs.AddDir("/root", time.Unix(100, 0))
	fs.AddFile("/root/present.txt", 1)

	r := newFakeResolver(fs)

	_, err := r.Resolve(context.Background(), []string{"absent.txt"})
	require.ErrorIs(t, err, ErrNotFound)

	// a directory as the final segment is not served
	fs.AddDir("/root/docs", time.Unix(100, 0))
	_, err = r.Resolve(context.Background(), []string{"docs"})
	require.ErrorIs(t, err, ErrNotFound)

	// descending through a regular file is a miss, not an I/O failure
	_, err = r.Resolve(context.Background(), []string{"present.txt", "deeper"})
	require.ErrorIs(t, err, ErrNotFound)

	// zero segments address the root directory itself
	_, err = r.Resolve(context.Background(), nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveInvalidSegments(t *testing.T) {
	fs := fake.New()
	fs.AddDir("/root", time.Unix(100, 0))
	fs.AddFile("/root/file.txt", 1)

	r := newFakeResolver(fs)

	for _, segments := range [][]string{
		{".."},
		{"..", "etc", "passwd"},
		{"."},
		{""},
		{"a/b"},
		{`a\b`},
	} {
		_, err := r.Resolve(context.Background(), segments)
		require.True(t, IsInvalidPath(err), "segments %q", segments)
	}

	// a leading invalid segment rejects before any filesystem access
	require.Equal(t, 0, fs.ReadDirCalls("/root"))

	// an invalid segment later in the path still rejects
	_, err := r.Resolve(context.Background(), []string{"file.txt", ".."})
	require.True(t, IsInvalidPath(err))
}

func TestResolveAmbiguousTieBreak(t *testing.T) {
	fs := fake.New()
	fs.AddDir("/root", time.Unix(100, 0))
	fs.AddFile("/root/File.txt", 1)
	fs.AddFile("/root/file.txt", 1)

	r := newFakeResolver(fs)

	// deterministic across repeated runs
	for i := 0; i < 10; i++ {
		res, err := r.Resolve(context.Background(), []string{"FILE.TXT"})
		require.NoError(t, err)
		require.Equal(t, "/root/File.txt", res.Path)
	}

	// the exact-case sibling still wins for its own spelling
	res, err := r.Resolve(context.Background(), []string{"file.txt"})
	require.NoError(t, err)
	require.Equal(t, "/root/file.txt", res.Path)
}

func TestResolveIoFailureIsNotNotFound(t *testing.T) {
	fs := fake.New()
	fs.AddDir("/root", time.Unix(100, 0))
	fs.AddDir("/root/sub", time.Unix(100, 0))
	fs.AddFile("/root/sub/file.txt", 1)

	r := newFakeResolver(fs)

	readErr := errors.New("input/output error")
	fs.FailReadDir("/root/sub", readErr)

	_, err := r.Resolve(context.Background(), []string{"sub", "file.txt"})
	require.ErrorIs(t, err, readErr)
	require.False(t, errors.Is(err, ErrNotFound))
	require.False(t, IsInvalidPath(err))
}

func TestResolveFollowsSymlinksWithinRoot(t *testing.T) {
	fs := fake.New()
	fs.AddDir("/root", time.Unix(100, 0))
	fs.AddFile("/root/Target.txt", 1)
	fs.AddSymlink("/root/Link.txt", "/root/Target.txt")

	r := newFakeResolver(fs)

	res, err := r.Resolve(context.Background(), []string{"link.txt"})
	require.NoError(t, err)
	require.Equal(t, "/root/Link.txt", res.Path)
	require.Equal(t, "/root/Target.txt", res.RealPath)
}

func TestResolveSymlinkEscapeIsInvalid(t *testing.T) {
	fs := fake.New()
	fs.AddDir("/root", time.Unix(100, 0))
	fs.AddFile("/outside/secret.txt", 1)
	fs.AddSymlink("/root/escape.txt", "/outside/secret.txt")

	r := newFakeResolver(fs)

	_, err := r.Resolve(context.Background(), []string{"escape.txt"})
	require.True(t, IsInvalidPath(err))
}

// TestResolveOnDisk runs the same walk against the real filesystem
// implementation inside a temporary directory.
func TestResolveOnDisk(t *testing.T) {
	tmpDir := t.TempDir()

	// /tmp can be a symlink on some systems
	root, err := local.Root(tmpDir)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "Sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Sub", "Image.PNG"), []byte("png bytes"), 0o644))

	outside := t.TempDir()
	outsideFile := filepath.Join(outside, "secret.txt")
	require.NoError(t, os.WriteFile(outsideFile, []byte("secret"), 0o644))
	require.NoError(t, os.Symlink(outsideFile, filepath.Join(root, "Sub", "escape.txt")))

	fs := vfs.FS(local.FS{})
	r := New(root, fs, dircache.New(fs, 0, 0))

	res, err := r.Resolve(context.Background(), []string{"sub", "image.png"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "Sub", "Image.PNG"), res.Path)

	_, err = r.Resolve(context.Background(), []string{"sub", "Escape.TXT"})
	require.True(t, IsInvalidPath(err))

	_, err = r.Resolve(context.Background(), []string{"sub", "missing.png"})
	require.ErrorIs(t, err, ErrNotFound)
}
