// package services defines interface Backend for managing the game library
//
// Local (rsync + filesystem), Remote (deckhand daemon over HTTP)
package services

import (
	"context"

	"github.com/dmelton/deckhand/internal/models"
)

// Backend defines the interface for library backends. The local backend
// talks to rsync and the filesystem directly; the remote backend proxies
// the same operations to a running deckhand daemon.
type Backend interface {
	// GetSettings returns the persisted settings tree, merged over defaults.
	GetSettings(ctx context.Context) (models.Settings, error)

	// SaveSettings persists the full settings tree and returns the value
	// as the backend stored it, which callers must treat as authoritative.
	SaveSettings(ctx context.Context, settings models.Settings) (models.Settings, error)

	// LoadGames fetches the remote library manifest and decorates each
	// entry with local install and backup state.
	LoadGames(ctx context.Context) (*models.LibrarySnapshot, error)

	// InstallGame downloads a game, prepares its compatibility prefix and
	// imports any backed-up saves. Partial progress is reported in the
	// result's Steps.
	InstallGame(ctx context.Context, name string) (*models.OperationResult, error)

	// RemoveGame backs up saves, then deletes the game folder and prefix.
	RemoveGame(ctx context.Context, name string) (*models.OperationResult, error)

	// SyncSaves backs up one game's save paths locally and uploads the
	// backup to the remote host.
	SyncSaves(ctx context.Context, name string) (*models.OperationResult, error)

	// SyncAllSaves runs SyncSaves for every installed game, collecting
	// per-game failures instead of stopping at the first.
	SyncAllSaves(ctx context.Context) (*models.OperationResult, error)

	// Name returns the backend name (e.g., "local", "remote")
	Name() string
}
