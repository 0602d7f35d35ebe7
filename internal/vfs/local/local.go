// Package local implements the filesystem capability against the real disk.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var errNotDirectory = errors.New("root path needs to be a directory")

// FS reads from the local disk. The zero value is ready to use.
type FS struct{}

func (FS) Name() string {
	return "local"
}

func (FS) ReadDir(ctx context.Context, path string) ([]fs.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadDir(path)
}

func (FS) Stat(ctx context.Context, path string) (os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Stat(path)
}

func (FS) EvalSymlinks(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(path)
}

// Root canonicalizes a configured root directory. The returned path is
// absolute with all symlinks resolved, so resolved request paths can be
// checked against it with a plain prefix comparison.
func Root(path string) (string, error) {
	rootPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	rootPath, err = filepath.EvalSymlinks(rootPath)
	if err != nil {
		return "", fmt.Errorf("could not evaluate symlinks: %w", err)
	}

	fi, err := os.Lstat(rootPath)
	if err != nil {
		return "", err
	}

	if !fi.Mode().IsDir() {
		return "", errNotDirectory
	}

	return rootPath, nil
}
