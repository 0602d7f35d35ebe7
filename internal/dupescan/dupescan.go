// Package dupescan finds files whose paths collide once letter case is
// ignored. Such files are unreachable through case-insensitive resolution:
// only one member of each set can ever be served.
package dupescan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/crypto/sha3"

	"gitlab.com/caseproxy/caseproxy/internal/casefold"
)

var errNotDirectory = errors.New("given root path must be a directory")

// Set is a group of paths that are identical under case folding.
type Set struct {
	// Key is the folded form shared by all members.
	Key string
	// Paths holds the on-disk spellings, sorted.
	Paths []string
}

// FindFiles walks the tree below root breadth-first and returns every
// non-directory entry.
func FindFiles(root string) ([]string, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, errNotDirectory
	}

	var files []string
	queue := []string{root}

	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				queue = append(queue, path)
			} else {
				files = append(files, path)
			}
		}
	}

	return files, nil
}

// CollisionSets groups paths by their folded form and keeps the groups
// with more than one member. Sets come back ordered by key, members
// ordered by spelling.
func CollisionSets(files []string) []Set {
	groups := make(map[string][]string)
	for _, file := range files {
		key := casefold.Path(file)
		groups[key] = append(groups[key], file)
	}

	var sets []Set
	for key, paths := range groups {
		if len(paths) < 2 {
			continue
		}
		sort.Strings(paths)
		sets = append(sets, Set{Key: key, Paths: paths})
	}

	sort.Slice(sets, func(i, j int) bool { return sets[i].Key < sets[j].Key })

	return sets
}

// HashFile returns the uppercase hex SHA3-256 digest of the file's
// contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha3.New256()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%X", hasher.Sum(nil)), nil
}

// HashAll hashes every member of every set. A file that cannot be read
// does not abort the scan; its digest is reported as "error".
func HashAll(sets []Set, onError func(path string, err error)) map[string]string {
	hashes := make(map[string]string)

	for _, set := range sets {
		for _, path := range set.Paths {
			digest, err := HashFile(path)
			if err != nil {
				if onError != nil {
					onError(path, err)
				}
				hashes[path] = "error"
				continue
			}
			hashes[path] = digest
		}
	}

	return hashes
}
