// Package dircache memoizes per-directory indexes that map case-folded
// entry names to the actual on-disk names sharing that fold.
package dircache

import (
	"context"
	"io/fs"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"gitlab.com/caseproxy/caseproxy/internal/casefold"
	"gitlab.com/caseproxy/caseproxy/internal/lru"
	"gitlab.com/caseproxy/caseproxy/internal/vfs"
	"gitlab.com/caseproxy/caseproxy/metrics"
)

const (
	// DefaultMaxEntries bounds the number of directories indexed at once.
	DefaultMaxEntries = 1024
	// DefaultExpiry is a backstop TTL. Freshness is normally decided by the
	// directory's modification time, not by this interval.
	DefaultExpiry = 5 * time.Minute
)

// Entry is one directory entry as seen at index build time.
type Entry struct {
	Name string
	Mode fs.FileMode
}

// Index is an immutable snapshot of one directory. It is built once and
// never mutated, so it may be read concurrently without locking.
type Index struct {
	modTime time.Time
	byName  map[string]Entry
	byFold  map[string][]Entry
}

// Match finds the entry for a request segment. The exact-case match wins
// and never reports ambiguity. Otherwise the segment's fold is looked up:
// with several candidates the lexicographically smallest actual name is
// chosen, and the full candidate list is returned so the caller can record
// the collision.
func (ix *Index) Match(segment string) (Entry, []string, bool) {
	if entry, ok := ix.byName[segment]; ok {
		return entry, nil, true
	}

	group := ix.byFold[casefold.Name(segment)]
	switch len(group) {
	case 0:
		return Entry{}, nil, false
	case 1:
		return group[0], nil, true
	default:
		names := make([]string, len(group))
		for i, e := range group {
			names[i] = e.Name
		}
		return group[0], names, true
	}
}

// Cache hands out directory indexes, reading each directory at most once
// per change. It is safe for concurrent use.
type Cache struct {
	fs    vfs.FS
	store *lru.Cache
	group singleflight.Group
}

// New creates a Cache over fs holding at most maxEntries directory indexes.
func New(fs vfs.FS, maxEntries int64, expiry time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	return &Cache{
		fs:    fs,
		store: lru.New("dircache", maxEntries, expiry, metrics.CacheCachedEntries, metrics.CacheRequests),
	}
}

// IndexFor returns the index for a directory, rebuilding it when the
// directory's modification time no longer matches the cached snapshot.
// Concurrent callers that miss on the same directory share a single
// rebuild; the rebuild itself is detached from the caller's context so it
// completes for the waiters even if the initiating request goes away.
func (c *Cache) IndexFor(ctx context.Context, dir string) (*Index, error) {
	fi, err := c.fs.Stat(ctx, dir)
	if err != nil {
		c.store.Error()
		return nil, err
	}

	if idx := c.fresh(dir, fi.ModTime()); idx != nil {
		c.store.Hit()
		return idx, nil
	}

	v, err, _ := c.group.Do(dir, func() (interface{}, error) {
		// A waiter queued behind the rebuild that refreshed the entry
		// arrives here after the fact; the entry it wants is already in
		// place.
		if idx := c.fresh(dir, fi.ModTime()); idx != nil {
			return idx, nil
		}

		idx, err := c.build(context.WithoutCancel(ctx), dir)
		if err != nil {
			c.store.Delete(dir)
			return nil, err
		}

		c.store.Set(dir, idx)
		return idx, nil
	})
	if err != nil {
		c.store.Error()
		return nil, err
	}

	c.store.Miss()
	return v.(*Index), nil
}

// fresh returns the cached index when its snapshot still matches modTime.
func (c *Cache) fresh(dir string, modTime time.Time) *Index {
	idx, ok := c.store.Get(dir).(*Index)
	if !ok || !idx.modTime.Equal(modTime) {
		return nil
	}
	return idx
}

func (c *Cache) build(ctx context.Context, dir string) (*Index, error) {
	fi, err := c.fs.Stat(ctx, dir)
	if err != nil {
		return nil, err
	}

	entries, err := c.fs.ReadDir(ctx, dir)
	if err != nil {
		return nil, err
	}

	metrics.DirectoryReadsTotal.Inc()

	idx := &Index{
		modTime: fi.ModTime(),
		byName:  make(map[string]Entry, len(entries)),
		byFold:  make(map[string][]Entry, len(entries)),
	}

	for _, entry := range entries {
		e := Entry{Name: entry.Name(), Mode: entry.Type()}
		idx.byName[e.Name] = e

		fold := casefold.Name(e.Name)
		idx.byFold[fold] = append(idx.byFold[fold], e)
	}

	for _, group := range idx.byFold {
		sort.Slice(group, func(i, j int) bool { return group[i].Name < group[j].Name })
	}

	return idx, nil
}
