package panel

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dmelton/deckhand/internal/models"
	"github.com/dmelton/deckhand/internal/services"
	"github.com/dmelton/deckhand/internal/shared"
)

// Panel wires the settings store, library cache and dispatcher together
// behind one facade. Every surface (CLI, TUI, daemon) drives a Panel.
type Panel struct {
	backend    services.Backend
	settings   *SettingsStore
	library    *LibraryCache
	dispatcher *Dispatcher
	logger     *log.Logger
}

// PanelOpts contains optional dependencies for [NewPanel]. Backend is
// required; everything else has a working default.
type PanelOpts struct {
	Backend  services.Backend
	Store    SnapshotStore // Snapshot persistence (default: memory only)
	Notifier Notifier      // Notification sink (default: log-backed)
	Logger   *log.Logger   // Logger (default: stderr)
}

// NewPanel assembles a control panel over the given backend.
func NewPanel(opts PanelOpts) *Panel {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}

	settings := NewSettingsStore(opts.Backend, notifier, logger)
	library := NewLibraryCache(opts.Backend, opts.Store, logger)

	return &Panel{
		backend:    opts.Backend,
		settings:   settings,
		library:    library,
		dispatcher: NewDispatcher(library, notifier, logger),
		logger:     logger,
	}
}

// Settings returns the settings store.
func (p *Panel) Settings() *SettingsStore { return p.settings }

// Library returns the library cache.
func (p *Panel) Library() *LibraryCache { return p.library }

// Dispatcher returns the operation dispatcher.
func (p *Panel) Dispatcher() *Dispatcher { return p.dispatcher }

// Init loads settings and performs the initial library refresh. A failed
// settings load blocks the refresh: nothing downstream runs against an
// unloaded configuration. A failed refresh is not fatal here - the
// banner error carries it and a cached snapshot may still be shown.
func (p *Panel) Init(ctx context.Context) error {
	if err := p.settings.Load(ctx); err != nil {
		return err
	}

	p.library.Prime()
	if err := p.library.Refresh(ctx); err != nil {
		p.logger.Warn("initial library refresh failed", "error", err)
	}
	return nil
}

// GloballyBusy reports whether a settings load, a commit or a library
// refresh is outstanding. While true, every action control is disabled.
func (p *Panel) GloballyBusy() bool {
	return p.settings.Loading() || p.settings.Committing() || p.library.Refreshing()
}

// Busy reports whether the control for key should be disabled: the
// global gate ORed with the key's own in-flight state.
func (p *Panel) Busy(key OpKey) bool {
	return p.GloballyBusy() || p.dispatcher.Busy(key)
}

// Refresh re-fetches the library snapshot. Requires loaded settings.
func (p *Panel) Refresh(ctx context.Context) error {
	if !p.settings.Loaded() {
		return shared.ErrSettingsLoad
	}
	return p.library.Refresh(ctx)
}

// Install dispatches the install pipeline for a game. Games the remote
// does not serve are rejected before the dispatcher is ever invoked.
func (p *Panel) Install(ctx context.Context, name string) (*models.OperationResult, error) {
	if game, ok := p.lookup(name); ok && !game.RemoteAvailable {
		return nil, fmt.Errorf("%w: %s is not available from the remote", shared.ErrRemoteUnconfigured, name)
	}
	return p.dispatcher.Dispatch(ctx, InstallKey(name), func(ctx context.Context) (*models.OperationResult, error) {
		return p.backend.InstallGame(ctx, name)
	})
}

// Remove dispatches the remove pipeline for a game.
func (p *Panel) Remove(ctx context.Context, name string) (*models.OperationResult, error) {
	return p.dispatcher.Dispatch(ctx, RemoveKey(name), func(ctx context.Context) (*models.OperationResult, error) {
		return p.backend.RemoveGame(ctx, name)
	})
}

// Sync dispatches a save sync for one game.
func (p *Panel) Sync(ctx context.Context, name string) (*models.OperationResult, error) {
	return p.dispatcher.Dispatch(ctx, SyncKey(name), func(ctx context.Context) (*models.OperationResult, error) {
		return p.backend.SyncSaves(ctx, name)
	})
}

// SyncAll dispatches the whole-library save sync.
func (p *Panel) SyncAll(ctx context.Context) (*models.OperationResult, error) {
	return p.dispatcher.Dispatch(ctx, SyncAllKey(), func(ctx context.Context) (*models.OperationResult, error) {
		return p.backend.SyncAllSaves(ctx)
	})
}

func (p *Panel) lookup(name string) (models.Game, bool) {
	snapshot, ok := p.library.Snapshot()
	if !ok {
		return models.Game{}, false
	}
	return snapshot.Lookup(name)
}
