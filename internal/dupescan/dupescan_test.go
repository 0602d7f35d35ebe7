package dupescan

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	return root
}

func TestFindFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt":         "a",
		"sub/b.txt":     "b",
		"sub/sub/c.txt": "c",
	})

	files, err := FindFiles(root)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "sub/b.txt"),
		filepath.Join(root, "sub/sub/c.txt"),
	}, files)
}

func TestFindFilesRejectsFile(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "a"})

	_, err := FindFiles(filepath.Join(root, "a.txt"))
	require.ErrorIs(t, err, errNotDirectory)
}

func TestCollisionSets(t *testing.T) {
	sets := CollisionSets([]string{
		"/d/File.txt",
		"/d/file.TXT",
		"/d/unique.txt",
		"/d/Sub/x",
		"/d/sub/X",
	})

	require.Len(t, sets, 2)
	require.Equal(t, "/d/file.txt", sets[0].Key)
	require.Equal(t, []string{"/d/File.txt", "/d/file.TXT"}, sets[0].Paths)
	require.Equal(t, "/d/sub/x", sets[1].Key)
	require.Equal(t, []string{"/d/Sub/x", "/d/sub/X"}, sets[1].Paths)
}

func TestHashFile(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "abc"})

	digest, err := HashFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	// SHA3-256 of "abc"
	require.Equal(t, "3A985DA74FE225B2045C172D6BD390BD855F086E3E9D525B46BFE24511431532", digest)
}

func TestHashAllTolerantOfUnreadableFiles(t *testing.T) {
	root := writeTree(t, map[string]string{"File.txt": "x", "file.TXT": "x"})

	missing := filepath.Join(root, "gone.txt")
	sets := []Set{{Key: "k", Paths: []string{filepath.Join(root, "File.txt"), missing}}}

	var failed []string
	hashes := HashAll(sets, func(path string, err error) {
		failed = append(failed, path)
	})

	require.Equal(t, []string{missing}, failed)
	require.Equal(t, "error", hashes[missing])
	require.Len(t, hashes[filepath.Join(root, "File.txt")], 64)
}

func TestWriteTextReport(t *testing.T) {
	sets := []Set{{Key: "/d/file.txt", Paths: []string{"/d/File.txt", "/d/file.TXT"}}}
	hashes := map[string]string{"/d/File.txt": "ABCD"}

	var buf bytes.Buffer
	WriteTextReport(&buf, sets, hashes)

	require.Equal(t, "/d/file.txt\n => /d/File.txt ABCD\n => /d/file.TXT missing\n", buf.String())
}

func TestWriteHTMLReport(t *testing.T) {
	sets := []Set{{Key: "/d/file.txt", Paths: []string{"/d/File.txt"}}}
	hashes := map[string]string{"/d/File.txt": "ABCD"}

	var buf bytes.Buffer
	require.NoError(t, WriteHTMLReport(&buf, sets, hashes))

	out := buf.String()
	require.Contains(t, out, "<h3>/d/file.txt</h3>")
	require.Contains(t, out, "<td>/d/File.txt</td><td>ABCD</td>")
	require.Contains(t, out, "border-collapse")
}
