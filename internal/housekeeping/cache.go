package housekeeping

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// cacheEntry tracks one locally cached document. Invariant: refCount > 0
// implies closedAt is unset.
type cacheEntry struct {
	refCount int
	closedAt time.Time
	closed   bool
}

// CacheIndex tracks which cached documents are held open by sessions and,
// once fully closed, when the last session let go. The session layer is the
// only external writer, through Open and Close; all mutations of a single
// entry happen under one lock.
type CacheIndex struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

func NewCacheIndex() *CacheIndex {
	return &CacheIndex{
		entries: make(map[string]*cacheEntry),
	}
}

// Open records a session opening the cached copy of a document. Reopening a
// document that was waiting for eviction clears its close stamp.
func (c *CacheIndex) Open(docID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[docID]
	if !ok {
		entry = &cacheEntry{}
		c.entries[docID] = entry
	}
	entry.refCount++
	entry.closed = false
	entry.closedAt = time.Time{}
}

// Close records a session closing the cached copy at now. The refcount never
// goes negative; the close time is stamped when the last session closes.
func (c *CacheIndex) Close(docID string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[docID]
	if !ok {
		logrus.Warnf("cache index: close of untracked document %s", docID)
		return
	}
	if entry.refCount > 0 {
		entry.refCount--
	}
	if entry.refCount == 0 {
		entry.closed = true
		entry.closedAt = now
	}
}

// Refs reports the current refcount for a document; zero for untracked ones.
func (c *CacheIndex) Refs(docID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[docID]; ok {
		return entry.refCount
	}
	return 0
}

// Tracked reports whether the index holds an entry for a document.
func (c *CacheIndex) Tracked(docID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[docID]
	return ok
}

// sweep calls evict for every entry closed for at least grace at now, and
// drops the entries evict accepts. The lock is held across the callback so
// a concurrent Open cannot race a file removal.
func (c *CacheIndex) sweep(now time.Time, grace time.Duration, evict func(docID string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for docID, entry := range c.entries {
		if entry.refCount > 0 || !entry.closed {
			continue
		}
		if now.Sub(entry.closedAt) < grace {
			continue
		}
		if evict(docID) {
			delete(c.entries, docID)
			evicted++
		}
	}
	return evicted
}

// CacheEvictor removes on-disk cached copies of documents that every session
// has closed and whose grace period has elapsed.
type CacheEvictor struct {
	index *CacheIndex
	dir   string
	grace time.Duration
}

func NewCacheEvictor(index *CacheIndex, dir string, grace time.Duration) *CacheEvictor {
	return &CacheEvictor{
		index: index,
		dir:   dir,
		grace: grace,
	}
}

func (e *CacheEvictor) cachePath(docID string) string {
	return filepath.Join(e.dir, docID+".grist")
}

// Cleanup evicts every eligible cached copy at now and returns how many were
// removed. A pass with nothing to do is a no-op.
func (e *CacheEvictor) Cleanup(now time.Time) int {
	return e.index.sweep(now, e.grace, func(docID string) bool {
		removed, err := DeleteFile(e.cachePath(docID))
		if err != nil {
			logrus.Errorf("cache evictor: failed to remove cached copy of %s: %v", docID, err)
			return false
		}
		if removed {
			logrus.Infof("cache evictor: evicted cached copy of %s", docID)
		}
		return true
	})
}
