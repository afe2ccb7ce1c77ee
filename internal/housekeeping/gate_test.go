package housekeeping

import (
	"context"
	"testing"
	"time"

	"github.com/betagouv/grist-core/internal/store"
	"github.com/betagouv/grist-core/internal/tester"
	"github.com/stretchr/testify/assert"
)

func TestMemoryGate_Exclusivity(t *testing.T) {
	ctx := context.TODO()
	gate := NewMemoryGate()

	first, err := gate.TryAcquire(ctx, "housekeeping")
	assert.NoError(t, err)
	assert.True(t, first)

	second, err := gate.TryAcquire(ctx, "housekeeping")
	assert.NoError(t, err)
	assert.False(t, second)

	// Different names do not contend.
	other, err := gate.TryAcquire(ctx, "other")
	assert.NoError(t, err)
	assert.True(t, other)

	assert.NoError(t, gate.Release(ctx, "housekeeping"))

	again, err := gate.TryAcquire(ctx, "housekeeping")
	assert.NoError(t, err)
	assert.True(t, again)
}

func TestHousekeeper_ContendedRunDoesNoWork(t *testing.T) {
	tester.Reset()
	ctx := context.TODO()
	s := store.NewGormStore(tester.TestDB())
	now := time.Now()

	gate := NewMemoryGate()
	index := NewCacheIndex()
	keeper := NewHousekeeper(gate,
		newCollector(s),
		NewCacheEvictor(index, tester.CacheDir(), testGrace))

	// A removed, expired workspace is waiting; a contended call must not
	// touch it.
	ws := createWorkspace(t, s, "contended")
	assert.NoError(t, s.RemoveWorkspace(ctx, ws.ID, daysAgo(now, 40)))

	held, err := gate.TryAcquire(ctx, trashLock)
	assert.NoError(t, err)
	assert.True(t, held)

	ran, err := keeper.RunTrashCollectionExclusively(ctx, now)
	assert.NoError(t, err)
	assert.False(t, ran)
	_, err = s.GetWorkspace(ctx, ws.ID)
	assert.NoError(t, err)

	// After the lock is cleared a subsequent call performs the pass.
	assert.NoError(t, keeper.ClearExclusivity(ctx))

	ran, err = keeper.RunTrashCollectionExclusively(ctx, now)
	assert.NoError(t, err)
	assert.True(t, ran)
	_, err = s.GetWorkspace(ctx, ws.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The lock is released once the pass finishes.
	ran, err = keeper.RunTrashCollectionExclusively(ctx, now)
	assert.NoError(t, err)
	assert.True(t, ran)
}

func TestHousekeeper_CacheCleanupUnderGate(t *testing.T) {
	ctx := context.TODO()
	now := time.Now()

	gate := NewMemoryGate()
	index := NewCacheIndex()
	keeper := NewHousekeeper(gate,
		newCollector(store.NewGormStore(tester.TestDB())),
		NewCacheEvictor(index, tester.CacheDir(), testGrace))

	docID := "cached-doc"
	writeCachedCopy(t, docID)
	index.Open(docID)
	index.Close(docID, now.Add(-2*testGrace))

	held, err := gate.TryAcquire(ctx, cacheLock)
	assert.NoError(t, err)
	assert.True(t, held)

	evicted, err := keeper.RunCacheCleanup(ctx, now)
	assert.NoError(t, err)
	assert.Equal(t, 0, evicted)

	assert.NoError(t, gate.Release(ctx, cacheLock))

	evicted, err = keeper.RunCacheCleanup(ctx, now)
	assert.NoError(t, err)
	assert.Equal(t, 1, evicted)
}
