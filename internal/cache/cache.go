// Package cache memoises encoded comparison responses. Entries are keyed
// by each input file's path, modification time and size, so an edited or
// re-uploaded file never hits a stale entry.
package cache

import (
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/banshee-data/flightcompare/internal/fsutil"
	"github.com/banshee-data/flightcompare/internal/monitoring"
)

type Cache struct {
	cache *ttlcache.Cache[string, []byte]
}

// New returns a cache whose entries live for ttl, holding at most capacity
// entries. Call Start to expire entries in the background.
func New(ttl time.Duration, capacity uint64) *Cache {
	return &Cache{
		cache: ttlcache.New(
			ttlcache.WithTTL[string, []byte](ttl),
			ttlcache.WithCapacity[string, []byte](capacity),
		),
	}
}

// Start runs the expiry loop until Stop is called. It blocks.
func (c *Cache) Start() { c.cache.Start() }

func (c *Cache) Stop() { c.cache.Stop() }

// Get returns the cached bytes for key, recording a hit or miss.
func (c *Cache) Get(key string) ([]byte, bool) {
	item := c.cache.Get(key, ttlcache.WithDisableTouchOnHit[string, []byte]())
	if item == nil {
		monitoring.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	monitoring.CacheLookups.WithLabelValues("hit").Inc()
	return item.Value(), true
}

func (c *Cache) Set(key string, value []byte) {
	c.cache.Set(key, value, ttlcache.DefaultTTL)
}

// Clear drops every entry and returns how many there were.
func (c *Cache) Clear() int {
	n := c.cache.Len()
	c.cache.DeleteAll()
	return n
}

func (c *Cache) Len() int { return c.cache.Len() }

// Key builds the cache key for a request of the given kind over two track
// files and an optional window. It fails if either file cannot be stat'd.
func Key(fsys fsutil.FileSystem, kind, pathA, pathB, start, end string) (string, error) {
	a, err := fileStamp(fsys, pathA)
	if err != nil {
		return "", err
	}
	b, err := fileStamp(fsys, pathB)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s_%s_%s_%s", kind, a, b, start, end), nil
}

func fileStamp(fsys fsutil.FileSystem, path string) (string, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return fmt.Sprintf("%s_%d_%d", path, info.ModTime().UnixNano(), info.Size()), nil
}
