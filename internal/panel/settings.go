package panel

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dmelton/deckhand/internal/models"
	"github.com/dmelton/deckhand/internal/services"
	"github.com/dmelton/deckhand/internal/shared"
)

// SettingsStore owns the persisted settings value, an editable draft and
// the dirty flag. All mutation flows through [SettingsStore.Apply],
// [SettingsStore.Commit] and [SettingsStore.Discard]; nothing else can
// touch the draft.
type SettingsStore struct {
	mu       sync.Mutex
	backend  services.Backend
	notifier Notifier
	logger   *log.Logger

	persisted  models.Settings
	draft      models.Settings
	loaded     bool
	dirty      bool
	loading    bool
	committing bool
}

// NewSettingsStore creates an empty store. Nothing is usable until
// [SettingsStore.Load] succeeds.
func NewSettingsStore(backend services.Backend, notifier Notifier, logger *log.Logger) *SettingsStore {
	return &SettingsStore{
		backend:  backend,
		notifier: notifier,
		logger:   logger,
	}
}

// Load fetches the persisted settings. On success both persisted and
// draft adopt the fetched value and the dirty flag clears. On failure
// the store stays unloaded and everything that needs settings remains
// blocked until a retry succeeds.
func (s *SettingsStore) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()

	settings, err := s.backend.GetSettings(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.logger.Error("settings load failed", "error", err)
		return fmt.Errorf("%w: %v", shared.ErrSettingsLoad, err)
	}

	s.persisted = settings
	s.draft = settings.Clone()
	s.loaded = true
	s.dirty = false
	return nil
}

// Loaded reports whether a load has succeeded.
func (s *SettingsStore) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Loading reports whether a load is in flight.
func (s *SettingsStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Committing reports whether a commit is in flight.
func (s *SettingsStore) Committing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committing
}

// Persisted returns the last loaded or committed settings value.
func (s *SettingsStore) Persisted() (models.Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persisted, s.loaded
}

// Draft returns the current draft.
func (s *SettingsStore) Draft() (models.Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft, s.loaded
}

// Dirty reports whether the draft has uncommitted edits.
func (s *SettingsStore) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Apply runs one typed mutation against the draft. The dirty flag is set
// unconditionally, even when the new leaf value equals the old one.
// Fails with [shared.ErrNoDraft] before the first successful load.
func (s *SettingsStore) Apply(m Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return shared.ErrNoDraft
	}

	next := s.draft.Clone()
	m.apply(&next)
	s.draft = next
	s.dirty = true
	return nil
}

// Commit sends the draft to the backend. A commit is a no-op when the
// store is unloaded, clean, or already committing. On success persisted
// and draft both adopt the value the backend stored (which may be a
// normalized form of the draft) and the dirty flag clears. On failure
// the draft and dirty flag are left exactly as they were.
func (s *SettingsStore) Commit(ctx context.Context) error {
	s.mu.Lock()
	if !s.loaded || !s.dirty || s.committing {
		s.mu.Unlock()
		return nil
	}
	s.committing = true
	draft := s.draft
	s.mu.Unlock()

	stored, err := s.backend.SaveSettings(ctx, draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.committing = false

	if err != nil {
		s.logger.Error("settings commit failed", "error", err)
		s.notifier.Notify("Settings", fmt.Sprintf("Save failed: %v", err), true)
		return fmt.Errorf("%w: %v", shared.ErrSettingsCommit, err)
	}

	s.persisted = stored
	s.draft = stored.Clone()
	s.dirty = false
	s.notifier.Notify("Settings", "Settings saved", false)
	return nil
}

// Discard resets the draft to the persisted value and clears the dirty flag.
func (s *SettingsStore) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return
	}
	s.draft = s.persisted.Clone()
	s.dirty = false
}
