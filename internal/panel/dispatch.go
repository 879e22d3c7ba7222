package panel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dmelton/deckhand/internal/models"
	"github.com/dmelton/deckhand/internal/shared"
)

// OpKind names a long-running backend operation.
type OpKind string

const (
	OpInstall OpKind = "install"
	OpRemove  OpKind = "remove"
	OpSync    OpKind = "sync"
	OpSyncAll OpKind = "sync-all"
)

// OpKey identifies one in-flight operation: an operation kind plus the
// game it targets. Whole-library operations leave Game empty.
type OpKey struct {
	Kind OpKind
	Game string
}

// InstallKey returns the key for installing a game.
func InstallKey(game string) OpKey { return OpKey{Kind: OpInstall, Game: game} }

// RemoveKey returns the key for removing a game.
func RemoveKey(game string) OpKey { return OpKey{Kind: OpRemove, Game: game} }

// SyncKey returns the key for syncing one game's saves.
func SyncKey(game string) OpKey { return OpKey{Kind: OpSync, Game: game} }

// SyncAllKey returns the singleton key for the whole-library sync.
func SyncAllKey() OpKey { return OpKey{Kind: OpSyncAll} }

func (k OpKey) String() string {
	if k.Game == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + ":" + k.Game
}

// Title returns the notification title for this key.
func (k OpKey) Title() string {
	switch k.Kind {
	case OpInstall:
		return "Install " + k.Game
	case OpRemove:
		return "Remove " + k.Game
	case OpSync:
		return "Sync " + k.Game
	case OpSyncAll:
		return "Sync all saves"
	default:
		return string(k.Kind)
	}
}

// defaultMessage is used when the backend result carries no message.
func (k OpKey) defaultMessage() string {
	switch k.Kind {
	case OpInstall:
		return "Install completed"
	case OpRemove:
		return "Remove completed"
	case OpSync:
		return "Saves synced"
	case OpSyncAll:
		return "All saves synced"
	default:
		return "Operation completed"
	}
}

// Invoke performs exactly one backend call and returns its result.
type Invoke func(ctx context.Context) (*models.OperationResult, error)

// Dispatcher runs operations against the backend, tracking in-flight
// state per key. At most one operation per key runs at a time; a second
// dispatch for a claimed key fails immediately with
// [shared.ErrOperationInFlight] instead of duplicating the call.
type Dispatcher struct {
	mu   sync.Mutex
	busy map[OpKey]struct{}

	cache    *LibraryCache
	notifier Notifier
	logger   *log.Logger
}

// NewDispatcher creates a dispatcher refreshing cache after every
// operation and forwarding outcomes to notifier.
func NewDispatcher(cache *LibraryCache, notifier Notifier, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		busy:     make(map[OpKey]struct{}),
		cache:    cache,
		notifier: notifier,
		logger:   logger,
	}
}

// Busy reports whether an operation for key is in flight.
func (d *Dispatcher) Busy(key OpKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.busy[key]
	return ok
}

// AnyBusy reports whether any operation is in flight.
func (d *Dispatcher) AnyBusy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.busy) > 0
}

// InFlight returns the keys of all in-flight operations.
func (d *Dispatcher) InFlight() []OpKey {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := make([]OpKey, 0, len(d.busy))
	for key := range d.busy {
		keys = append(keys, key)
	}
	return keys
}

// Dispatch runs one operation: claim the key, invoke the call, notify
// the outcome, release the key, refresh the library. The release and
// refresh run unconditionally, on every path out of the invoke.
func (d *Dispatcher) Dispatch(ctx context.Context, key OpKey, invoke Invoke) (*models.OperationResult, error) {
	if err := d.claim(key); err != nil {
		return nil, err
	}

	defer func() {
		d.release(key)
		// Re-observe ground truth even after a failure. Refresh errors
		// land in the cache's banner, not on the operation's caller.
		if err := d.cache.Refresh(ctx); err != nil {
			d.logger.Warn("post-operation refresh failed", "key", key.String(), "error", err)
		}
	}()

	result, err := invoke(ctx)
	if err != nil {
		d.notifier.Notify(key.Title(), fmt.Sprintf("Failed: %v", err), true)
		return nil, fmt.Errorf("%s failed: %w", key.String(), err)
	}

	message := result.Message
	if message == "" {
		message = key.defaultMessage()
	}
	d.notifier.Notify(key.Title(), message, !result.OK)

	if len(result.Steps) > 0 {
		d.notifier.Notify(key.Title(), strings.Join(result.Steps, "; "), false)
	}
	if len(result.Failures) > 0 {
		d.notifier.Notify(key.Title(), strings.Join(result.Failures, "; "), true)
	}

	return result, nil
}

// claim atomically marks key busy, failing when it already is.
func (d *Dispatcher) claim(key OpKey) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.busy[key]; ok {
		return fmt.Errorf("%w: %s", shared.ErrOperationInFlight, key.String())
	}
	d.busy[key] = struct{}{}
	return nil
}

func (d *Dispatcher) release(key OpKey) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.busy, key)
}
