// Package fake provides an in-memory filesystem capability for tests. It
// counts operations and can inject failures, so resolver and cache behavior
// can be verified deterministically without touching a real disk.
package fake

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"
)

type node struct {
	mode    fs.FileMode
	modTime time.Time
	size    int64
}

// FS is an in-memory FS implementation. Paths are slash-separated and
// absolute, e.g. "/root/sub/file.txt".
type FS struct {
	mu       sync.Mutex
	nodes    map[string]*node
	symlinks map[string]string

	readDirErr map[string]error
	statErr    map[string]error

	readDirCalls map[string]int

	// ReadDirHook, when set, runs at the start of every ReadDir call. Tests
	// use it to coordinate concurrent callers.
	ReadDirHook func(path string)
}

func New() *FS {
	return &FS{
		nodes:        map[string]*node{},
		symlinks:     map[string]string{},
		readDirErr:   map[string]error{},
		statErr:      map[string]error{},
		readDirCalls: map[string]int{},
	}
}

// AddDir creates a directory and all missing parents.
func (f *FS) AddDir(path string, modTime time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mkdirAll(path, modTime)
}

// AddFile creates a regular file, including missing parent directories.
func (f *FS) AddFile(path string, size int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path = filepath.Clean(path)
	f.mkdirAll(filepath.Dir(path), time.Unix(0, 0))
	f.nodes[path] = &node{mode: 0, modTime: time.Unix(0, 0), size: size}
}

// AddSymlink creates a symlink pointing at target, which must be an
// absolute path within the fake.
func (f *FS) AddSymlink(path, target string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path = filepath.Clean(path)
	f.mkdirAll(filepath.Dir(path), time.Unix(0, 0))
	f.nodes[path] = &node{mode: fs.ModeSymlink, modTime: time.Unix(0, 0)}
	f.symlinks[path] = filepath.Clean(target)
}

func (f *FS) mkdirAll(path string, modTime time.Time) {
	path = filepath.Clean(path)
	if path != "/" {
		f.mkdirAll(filepath.Dir(path), modTime)
	}
	if _, ok := f.nodes[path]; !ok {
		f.nodes[path] = &node{mode: fs.ModeDir, modTime: modTime}
	}
}

// Touch updates a directory's modification time, simulating a rename or a
// created/removed entry.
func (f *FS) Touch(path string, modTime time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.nodes[filepath.Clean(path)]; ok {
		n.modTime = modTime
	}
}

// Remove deletes a node and everything beneath it.
func (f *FS) Remove(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path = filepath.Clean(path)
	for p := range f.nodes {
		if p == path || within(path, p) {
			delete(f.nodes, p)
			delete(f.symlinks, p)
		}
	}
}

// FailReadDir makes ReadDir of path return err until cleared with a nil err.
func (f *FS) FailReadDir(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.readDirErr, filepath.Clean(path))
		return
	}
	f.readDirErr[filepath.Clean(path)] = err
}

// FailStat makes Stat of path return err until cleared with a nil err.
func (f *FS) FailStat(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.statErr, filepath.Clean(path))
		return
	}
	f.statErr[filepath.Clean(path)] = err
}

// ReadDirCalls reports how many times ReadDir ran for a directory.
func (f *FS) ReadDirCalls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readDirCalls[filepath.Clean(path)]
}

func (f *FS) ReadDir(ctx context.Context, path string) ([]fs.DirEntry, error) {
	if hook := f.ReadDirHook; hook != nil {
		hook(path)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	path = filepath.Clean(path)
	f.readDirCalls[path]++

	if err := f.readDirErr[path]; err != nil {
		return nil, err
	}

	path, n, err := f.resolveLocked(path)
	if err != nil {
		return nil, err
	}
	if !n.mode.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: syscall.ENOTDIR}
	}

	var entries []fs.DirEntry
	for p, child := range f.nodes {
		if p != path && filepath.Dir(p) == path {
			entries = append(entries, dirEntry{name: filepath.Base(p), node: child})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	return entries, nil
}

func (f *FS) Stat(ctx context.Context, path string) (os.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path = filepath.Clean(path)
	if err := f.statErr[path]; err != nil {
		return nil, err
	}

	path, n, err := f.resolveLocked(path)
	if err != nil {
		return nil, err
	}

	return fileInfo{name: filepath.Base(path), node: n}, nil
}

func (f *FS) EvalSymlinks(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path, _, err := f.resolveLocked(filepath.Clean(path))
	return path, err
}

// resolveLocked follows symlinks until it hits a concrete node.
func (f *FS) resolveLocked(path string) (string, *node, error) {
	for i := 0; i < 40; i++ {
		n, ok := f.nodes[path]
		if !ok {
			return "", nil, &fs.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
		}
		if n.mode&fs.ModeSymlink == 0 {
			return path, n, nil
		}
		path = f.symlinks[path]
	}
	return "", nil, &fs.PathError{Op: "stat", Path: path, Err: os.ErrInvalid}
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && rel != "." && !isDotDotPrefixed(rel)
}

func isDotDotPrefixed(rel string) bool {
	return len(rel) >= 3 && rel[:3] == "../"
}

type dirEntry struct {
	name string
	node *node
}

func (d dirEntry) Name() string               { return d.name }
func (d dirEntry) IsDir() bool                { return d.node.mode.IsDir() }
func (d dirEntry) Type() fs.FileMode          { return d.node.mode.Type() }
func (d dirEntry) Info() (fs.FileInfo, error) { return fileInfo{name: d.name, node: d.node}, nil }

type fileInfo struct {
	name string
	node *node
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return fi.node.size }
func (fi fileInfo) Mode() fs.FileMode  { return fi.node.mode }
func (fi fileInfo) ModTime() time.Time { return fi.node.modTime }
func (fi fileInfo) IsDir() bool        { return fi.node.mode.IsDir() }
func (fi fileInfo) Sys() interface{}   { return nil }
