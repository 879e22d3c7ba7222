package panel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dmelton/deckhand/internal/models"
	"github.com/dmelton/deckhand/internal/services"
	"github.com/dmelton/deckhand/internal/shared"
)

// SnapshotStore persists library snapshots between runs so a surface can
// show the last known library before the first refresh completes.
type SnapshotStore interface {
	ReplaceSnapshot(snapshot *models.LibrarySnapshot) error
	LoadSnapshot() (*models.LibrarySnapshot, error)
}

// LibraryCache owns the last known library snapshot. Refreshes replace
// the snapshot wholesale; entities are never patched in place by
// operation results. A failed refresh keeps the previous snapshot and
// raises a banner error instead.
type LibraryCache struct {
	mu      sync.Mutex
	backend services.Backend
	store   SnapshotStore
	logger  *log.Logger

	snapshot   *models.LibrarySnapshot
	lastErr    error
	refreshing int

	// Refreshes are numbered so a response that lands after a newer
	// refresh has already been applied is dropped instead of clobbering
	// the fresher snapshot.
	generation uint64
	applied    uint64
}

// NewLibraryCache creates an empty cache. The store may be nil, in which
// case snapshots are held in memory only.
func NewLibraryCache(backend services.Backend, store SnapshotStore, logger *log.Logger) *LibraryCache {
	return &LibraryCache{
		backend: backend,
		store:   store,
		logger:  logger,
	}
}

// Prime loads the persisted snapshot from the store, if any. Used once
// at startup before the first refresh; a primed snapshot is treated as
// generation zero and replaced by any completed refresh.
func (c *LibraryCache) Prime() {
	if c.store == nil {
		return
	}
	snapshot, err := c.store.LoadSnapshot()
	if err != nil {
		c.logger.Warn("failed to load cached snapshot", "error", err)
		return
	}
	if snapshot == nil || len(snapshot.Games) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.applied == 0 && c.snapshot == nil {
		c.snapshot = snapshot
	}
}

// Snapshot returns the current snapshot. The boolean distinguishes "no
// data yet" from a valid empty library.
func (c *LibraryCache) Snapshot() (*models.LibrarySnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot, c.snapshot != nil
}

// Err returns the banner error from the most recent failed refresh, or
// nil after a successful one.
func (c *LibraryCache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Refreshing reports whether any refresh is in flight.
func (c *LibraryCache) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing > 0
}

// Refresh fetches a new snapshot from the backend and replaces the
// cached one atomically. On failure the previous snapshot is retained
// and the error is kept for [LibraryCache.Err].
func (c *LibraryCache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.refreshing++
	c.mu.Unlock()

	snapshot, err := c.backend.LoadGames(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshing--

	if err != nil {
		wrapped := err
		if !errors.Is(err, shared.ErrRefresh) {
			wrapped = fmt.Errorf("%w: %v", shared.ErrRefresh, err)
		}
		c.lastErr = wrapped
		c.logger.Error("library refresh failed", "error", err)
		return wrapped
	}

	if gen <= c.applied {
		// A newer refresh already landed; drop this response.
		c.logger.Debug("dropping stale refresh response", "generation", gen, "applied", c.applied)
		return nil
	}

	c.snapshot = snapshot
	c.applied = gen
	c.lastErr = nil

	if c.store != nil {
		if err := c.store.ReplaceSnapshot(snapshot); err != nil {
			c.logger.Warn("failed to persist snapshot", "error", err)
		}
	}
	return nil
}
