package housekeeping

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/betagouv/grist-core/internal/tester"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const testGrace = time.Hour

func newEvictor() (*CacheIndex, *CacheEvictor) {
	index := NewCacheIndex()
	return index, NewCacheEvictor(index, tester.CacheDir(), testGrace)
}

func writeCachedCopy(t *testing.T, docID string) string {
	t.Helper()
	path := filepath.Join(tester.CacheDir(), docID+".grist")
	assert.NoError(t, os.WriteFile(path, []byte("cached "+docID), 0o644))
	return path
}

func TestCacheEvictor_OpenDocumentNeverEvicted(t *testing.T) {
	index, evictor := newEvictor()
	docID := uuid.New().String()
	path := writeCachedCopy(t, docID)

	index.Open(docID)

	for _, now := range []time.Time{
		time.Now(),
		time.Now().Add(100 * testGrace),
		time.Now().Add(10000 * testGrace),
	} {
		assert.Equal(t, 0, evictor.Cleanup(now))
		assert.True(t, PathExists(path))
	}
	assert.Equal(t, 1, index.Refs(docID))
}

func TestCacheEvictor_GraceAndReopen(t *testing.T) {
	index, evictor := newEvictor()
	docID := uuid.New().String()
	path := writeCachedCopy(t, docID)
	t0 := time.Now()

	index.Open(docID)
	index.Close(docID, t0)

	// Half the grace period: too early.
	assert.Equal(t, 0, evictor.Cleanup(t0.Add(testGrace/2)))
	assert.True(t, PathExists(path))

	// Reopen and close again later: eviction time resets relative to the
	// new close, not the first one.
	t1 := t0.Add(testGrace)
	index.Open(docID)
	index.Close(docID, t1)

	assert.Equal(t, 0, evictor.Cleanup(t0.Add(2*testGrace-time.Minute)))
	assert.True(t, PathExists(path))

	assert.Equal(t, 1, evictor.Cleanup(t1.Add(2*testGrace)))
	assert.False(t, PathExists(path))
	assert.False(t, index.Tracked(docID))
}

func TestCacheEvictor_EvictsPastGrace(t *testing.T) {
	index, evictor := newEvictor()
	docID := uuid.New().String()
	path := writeCachedCopy(t, docID)
	t0 := time.Now()

	index.Open(docID)
	index.Close(docID, t0)

	assert.Equal(t, 1, evictor.Cleanup(t0.Add(2*testGrace)))
	assert.False(t, PathExists(path))

	// Nothing left: cleanup is a no-op, never an error.
	assert.Equal(t, 0, evictor.Cleanup(t0.Add(4*testGrace)))
}

func TestCacheIndex_RefCountNeverNegative(t *testing.T) {
	index := NewCacheIndex()
	docID := uuid.New().String()

	index.Open(docID)
	index.Close(docID, time.Now())
	index.Close(docID, time.Now())
	index.Close(docID, time.Now())

	index.Open(docID)
	assert.Equal(t, 1, index.Refs(docID))
}

func TestCacheIndex_ConcurrentOpenClose(t *testing.T) {
	index := NewCacheIndex()
	docID := uuid.New().String()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			index.Open(docID)
			index.Close(docID, time.Now())
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, index.Refs(docID))
}
