package vfs

import (
	"context"
	"io/fs"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"

	"gitlab.com/caseproxy/caseproxy/metrics"
)

// FS abstracts the filesystem operations the resolver and the directory
// entry cache need. It is the only point of contact with the real disk and
// can be swapped for an in-memory implementation in tests.
type FS interface {
	// ReadDir lists the entries of a directory.
	ReadDir(ctx context.Context, path string) ([]fs.DirEntry, error)
	// Stat follows symlinks and returns file information for a path.
	Stat(ctx context.Context, path string) (os.FileInfo, error)
	// EvalSymlinks returns the real path after resolving all symlinks.
	EvalSymlinks(ctx context.Context, path string) (string, error)
}

// Instrumented wraps an FS with operation counters and trace logging.
func Instrumented(fs FS, name string) FS {
	return &instrumentedFS{fs: fs, name: name}
}

type instrumentedFS struct {
	fs   FS
	name string
}

func (i *instrumentedFS) increment(operation string, err error) {
	metrics.VFSOperations.WithLabelValues(i.name, operation, strconv.FormatBool(err == nil)).Inc()
}

func (i *instrumentedFS) ReadDir(ctx context.Context, path string) ([]fs.DirEntry, error) {
	entries, err := i.fs.ReadDir(ctx, path)
	i.increment("ReadDir", err)

	log.WithField("vfs", i.name).
		WithField("path", path).
		WithError(err).
		Traceln("ReadDir call")

	return entries, err
}

func (i *instrumentedFS) Stat(ctx context.Context, path string) (os.FileInfo, error) {
	fi, err := i.fs.Stat(ctx, path)
	i.increment("Stat", err)

	log.WithField("vfs", i.name).
		WithField("path", path).
		WithError(err).
		Traceln("Stat call")

	return fi, err
}

func (i *instrumentedFS) EvalSymlinks(ctx context.Context, path string) (string, error) {
	target, err := i.fs.EvalSymlinks(ctx, path)
	i.increment("EvalSymlinks", err)

	log.WithField("vfs", i.name).
		WithField("path", path).
		WithField("ret-target", target).
		WithError(err).
		Traceln("EvalSymlinks call")

	return target, err
}
