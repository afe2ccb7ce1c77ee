package housekeeping

import (
	"context"
	"sync"
)

// Gate is a cross-process mutex over named resources. TryAcquire never
// blocks: a false result means another holder is active, which is a normal
// outcome, not an error.
type Gate interface {
	TryAcquire(ctx context.Context, name string) (bool, error)
	// Release releases the lock if this gate owns it.
	Release(ctx context.Context, name string) error
	// Clear drops the lock unconditionally. Administrative and test use.
	Clear(ctx context.Context, name string) error
}

var _ Gate = (*MemoryGate)(nil)

// MemoryGate is an in-process gate with no lease. It is only correct for
// single-process deployments and tests: a crashed holder's lock is never
// reclaimed, unlike RedisGate.
type MemoryGate struct {
	mu    sync.Mutex
	locks map[string]bool
}

func NewMemoryGate() *MemoryGate {
	return &MemoryGate{
		locks: make(map[string]bool),
	}
}

func (g *MemoryGate) TryAcquire(ctx context.Context, name string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.locks[name] {
		return false, nil
	}
	g.locks[name] = true
	return true, nil
}

func (g *MemoryGate) Release(ctx context.Context, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.locks, name)
	return nil
}

func (g *MemoryGate) Clear(ctx context.Context, name string) error {
	return g.Release(ctx, name)
}
