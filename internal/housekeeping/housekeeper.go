package housekeeping

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	trashLock = "trash"
	cacheLock = "cache"
)

// Housekeeper composes the maintenance passes under the exclusivity gate and
// exposes the entry points the scheduler and the API layer call.
type Housekeeper struct {
	gate  Gate
	trash *TrashCollector
	cache *CacheEvictor
}

func NewHousekeeper(gate Gate, trash *TrashCollector, cache *CacheEvictor) *Housekeeper {
	return &Housekeeper{
		gate:  gate,
		trash: trash,
		cache: cache,
	}
}

// RunTrashCollectionExclusively runs one trash collection pass if no other
// replica is running one. It reports whether this call performed the pass;
// a contended call returns false immediately without doing any work.
func (h *Housekeeper) RunTrashCollectionExclusively(ctx context.Context, now time.Time) (bool, error) {
	acquired, err := h.gate.TryAcquire(ctx, trashLock)
	if err != nil {
		return false, err
	}
	if !acquired {
		logrus.Info("housekeeper: trash collection already running elsewhere, skipping")
		return false, nil
	}
	defer func() {
		if err := h.gate.Release(ctx, trashLock); err != nil {
			logrus.Errorf("housekeeper: releasing trash lock: %v", err)
		}
	}()

	if _, err := h.trash.Collect(ctx, now); err != nil {
		return true, err
	}
	return true, nil
}

// RunCacheCleanup evicts eligible cached copies under its own lock and
// returns how many were removed. A contended call is a no-op.
func (h *Housekeeper) RunCacheCleanup(ctx context.Context, now time.Time) (int, error) {
	acquired, err := h.gate.TryAcquire(ctx, cacheLock)
	if err != nil {
		return 0, err
	}
	if !acquired {
		return 0, nil
	}
	defer func() {
		if err := h.gate.Release(ctx, cacheLock); err != nil {
			logrus.Errorf("housekeeper: releasing cache lock: %v", err)
		}
	}()

	return h.cache.Cleanup(now), nil
}

// ClearExclusivity unconditionally drops both housekeeping locks.
// Administrative and test use only.
func (h *Housekeeper) ClearExclusivity(ctx context.Context) error {
	if err := h.gate.Clear(ctx, trashLock); err != nil {
		return err
	}
	return h.gate.Clear(ctx, cacheLock)
}
