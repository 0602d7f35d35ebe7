// Package resolver walks a request path against a case-sensitive
// filesystem, matching each segment case-insensitively.
package resolver

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"gitlab.com/caseproxy/caseproxy/internal/dircache"
	"gitlab.com/caseproxy/caseproxy/internal/vfs"
	"gitlab.com/caseproxy/caseproxy/metrics"
)

// Resolution is the outcome of a successful walk. Path is the
// case-corrected path under the root, suitable for handing to an upstream
// httpd; RealPath additionally has symlinks resolved and is the path to
// open when streaming. Both exist at resolution time.
type Resolution struct {
	Path        string
	RealPath    string
	RelSegments []string
	FileInfo    os.FileInfo
}

// RelPath is the resolved path relative to the root, with the on-disk
// casing.
func (r *Resolution) RelPath() string {
	return strings.Join(r.RelSegments, "/")
}

// Resolver resolves request segments beneath a single root directory. The
// root must already be absolute and symlink-canonicalized.
type Resolver struct {
	root  string
	fs    vfs.FS
	cache *dircache.Cache
}

func New(root string, fsys vfs.FS, cache *dircache.Cache) *Resolver {
	return &Resolver{root: root, fs: fsys, cache: cache}
}

// Resolve walks the segments in order, descending through the directory
// entry cache. It returns ErrNotFound when any segment has no
// case-insensitive match or the final segment is not a regular file, an
// InvalidPathError for malformed or escaping paths, and the underlying
// error for filesystem failures.
func (r *Resolver) Resolve(ctx context.Context, segments []string) (*Resolution, error) {
	if len(segments) == 0 {
		return nil, ErrNotFound
	}

	actual := make([]string, 0, len(segments))
	current := r.root

	for _, segment := range segments {
		if err := validateSegment(segment); err != nil {
			return nil, err
		}

		index, err := r.cache.IndexFor(ctx, current)
		if err != nil {
			return nil, classifyWalkError(err)
		}

		entry, candidates, ok := index.Match(segment)
		if !ok {
			return nil, ErrNotFound
		}

		if len(candidates) > 1 {
			metrics.AmbiguousMatchesTotal.Inc()
			log.WithFields(log.Fields{
				"dir":        current,
				"segment":    segment,
				"candidates": candidates,
				"chosen":     entry.Name,
			}).Debug("case-variant sibling collision")
		}

		actual = append(actual, entry.Name)
		current = filepath.Join(current, entry.Name)
	}

	realPath, err := r.fs.EvalSymlinks(ctx, current)
	if err != nil {
		return nil, classifyWalkError(err)
	}

	if err := r.validateUnderRoot(realPath); err != nil {
		return nil, err
	}

	fi, err := r.fs.Stat(ctx, realPath)
	if err != nil {
		return nil, classifyWalkError(err)
	}

	if !fi.Mode().IsRegular() {
		// directories and special files are not served
		return nil, ErrNotFound
	}

	return &Resolution{
		Path:        current,
		RealPath:    realPath,
		RelSegments: actual,
		FileInfo:    fi,
	}, nil
}

func validateSegment(segment string) error {
	switch segment {
	case "":
		return &InvalidPathError{Segment: segment, Reason: "empty segment"}
	case ".", "..":
		return &InvalidPathError{Segment: segment, Reason: "relative segment"}
	}

	if strings.ContainsAny(segment, "/\\") {
		return &InvalidPathError{Segment: segment, Reason: "segment contains a path separator"}
	}

	return nil
}

// validateUnderRoot guards against symlinks pointing outside the root.
func (r *Resolver) validateUnderRoot(realPath string) error {
	if realPath == r.root || strings.HasPrefix(realPath, r.root+string(filepath.Separator)) {
		return nil
	}

	return &InvalidPathError{Segment: realPath, Reason: "resolves outside the root directory"}
}

// classifyWalkError keeps missing entries apart from real I/O failures.
// A path component that does not exist, or one that turns out not to be a
// directory, is a lookup miss; everything else surfaces as-is.
func classifyWalkError(err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return ErrNotFound
	}

	return err
}
