package panel

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/dmelton/deckhand/internal/models"
	"github.com/dmelton/deckhand/internal/shared"
	mock "github.com/dmelton/deckhand/internal/testing"
)

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification
}

type notification struct {
	title    string
	body     string
	critical bool
}

func (n *recordingNotifier) Notify(title, body string, critical bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, notification{title: title, body: body, critical: critical})
}

func (n *recordingNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification{}, n.messages...)
}

func (n *recordingNotifier) criticalCount() int {
	count := 0
	for _, m := range n.all() {
		if m.critical {
			count++
		}
	}
	return count
}

func testLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

func baseSettings() models.Settings {
	return models.Settings{
		Connection: models.ConnectionSettings{
			RemoteHost:       "deck@server",
			RemoteConfigPath: "/srv/games/games.json",
		},
		Paths: models.PathSettings{
			LocalGamesPath: "/home/deck/Games",
			SaveBackupPath: "/home/deck/.local/share/deckhand/saves",
		},
		Proton: models.ProtonSettings{
			CompatdataPath: "/home/deck/.local/share/Steam/steamapps/compatdata",
			DefaultVersion: "GE-Proton10-25",
		},
		Sync: models.SyncSettings{RsyncFlags: "-avz"},
	}
}

func loadedStore(t *testing.T, backend *mock.MockBackend, notifier Notifier) *SettingsStore {
	t.Helper()
	store := NewSettingsStore(backend, notifier, testLogger())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return store
}

func TestSettingsStoreLoad(t *testing.T) {
	t.Run("success adopts value and clears dirty", func(t *testing.T) {
		backend := &mock.MockBackend{
			GetSettingsFunc: func(ctx context.Context) (models.Settings, error) {
				return baseSettings(), nil
			},
		}
		store := loadedStore(t, backend, &recordingNotifier{})

		persisted, ok := store.Persisted()
		if !ok || !persisted.Equal(baseSettings()) {
			t.Errorf("expected persisted to match backend value")
		}
		draft, _ := store.Draft()
		if !draft.Equal(persisted) {
			t.Errorf("expected draft to equal persisted after load")
		}
		if store.Dirty() {
			t.Error("expected clean store after load")
		}
	})

	t.Run("failure leaves store unloaded", func(t *testing.T) {
		backend := &mock.MockBackend{
			GetSettingsFunc: func(ctx context.Context) (models.Settings, error) {
				return models.Settings{}, errors.New("daemon down")
			},
		}
		store := NewSettingsStore(backend, &recordingNotifier{}, testLogger())

		err := store.Load(context.Background())
		if !errors.Is(err, shared.ErrSettingsLoad) {
			t.Errorf("expected ErrSettingsLoad, got %v", err)
		}
		if store.Loaded() {
			t.Error("expected store to stay unloaded")
		}
		if err := store.Apply(SetRemoteHost("x")); !errors.Is(err, shared.ErrNoDraft) {
			t.Errorf("expected ErrNoDraft before load, got %v", err)
		}
	})
}

func TestSettingsStoreApply(t *testing.T) {
	mutations := []struct {
		name     string
		mutation Mutation
		check    func(models.Settings) bool
	}{
		{
			name:     "remote host",
			mutation: SetRemoteHost("new@host"),
			check:    func(s models.Settings) bool { return s.Connection.RemoteHost == "new@host" },
		},
		{
			name:     "remote config path",
			mutation: SetRemoteConfigPath("/new/games.json"),
			check:    func(s models.Settings) bool { return s.Connection.RemoteConfigPath == "/new/games.json" },
		},
		{
			name:     "local games path",
			mutation: SetLocalGamesPath("/mnt/sdcard/Games"),
			check:    func(s models.Settings) bool { return s.Paths.LocalGamesPath == "/mnt/sdcard/Games" },
		},
		{
			name:     "save backup path",
			mutation: SetSaveBackupPath("/backups"),
			check:    func(s models.Settings) bool { return s.Paths.SaveBackupPath == "/backups" },
		},
		{
			name:     "compatdata path",
			mutation: SetCompatdataPath("/compat"),
			check:    func(s models.Settings) bool { return s.Proton.CompatdataPath == "/compat" },
		},
		{
			name:     "default proton version",
			mutation: SetDefaultProtonVersion("GE-Proton11-1"),
			check:    func(s models.Settings) bool { return s.Proton.DefaultVersion == "GE-Proton11-1" },
		},
		{
			name:     "rsync flags",
			mutation: SetRsyncFlags("-avz --partial"),
			check:    func(s models.Settings) bool { return s.Sync.RsyncFlags == "-avz --partial" },
		},
	}

	for _, tt := range mutations {
		t.Run(tt.name+" changes only its leaf", func(t *testing.T) {
			backend := &mock.MockBackend{
				GetSettingsFunc: func(ctx context.Context) (models.Settings, error) {
					return baseSettings(), nil
				},
			}
			store := loadedStore(t, backend, &recordingNotifier{})

			if err := store.Apply(tt.mutation); err != nil {
				t.Fatalf("Apply failed: %v", err)
			}

			draft, _ := store.Draft()
			if !tt.check(draft) {
				t.Error("expected the addressed leaf to change")
			}
			if !store.Dirty() {
				t.Error("expected dirty flag after mutation")
			}

			// Reverting the leaf must restore exactly the base value,
			// proving no sibling changed.
			base := baseSettings()
			tt.mutation.apply(&base)
			if !draft.Equal(base) {
				t.Errorf("mutation touched a sibling leaf: %+v", draft)
			}

			persisted, _ := store.Persisted()
			if !persisted.Equal(baseSettings()) {
				t.Error("mutation must never touch the persisted value")
			}
		})
	}

	t.Run("same value still sets dirty", func(t *testing.T) {
		backend := &mock.MockBackend{
			GetSettingsFunc: func(ctx context.Context) (models.Settings, error) {
				return baseSettings(), nil
			},
		}
		store := loadedStore(t, backend, &recordingNotifier{})

		if err := store.Apply(SetRemoteHost(baseSettings().Connection.RemoteHost)); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if !store.Dirty() {
			t.Error("expected dirty flag even when the value is unchanged")
		}
	})
}

func TestSettingsStoreDiscard(t *testing.T) {
	backend := &mock.MockBackend{
		GetSettingsFunc: func(ctx context.Context) (models.Settings, error) {
			return baseSettings(), nil
		},
	}
	store := loadedStore(t, backend, &recordingNotifier{})

	store.Apply(SetRemoteHost("a"))
	store.Apply(SetRsyncFlags("-r"))
	store.Apply(SetLocalGamesPath("/elsewhere"))
	store.Discard()

	draft, _ := store.Draft()
	if !draft.Equal(baseSettings()) {
		t.Errorf("expected draft restored to persisted value, got %+v", draft)
	}
	if store.Dirty() {
		t.Error("expected clean store after discard")
	}
}

func TestSettingsStoreCommit(t *testing.T) {
	t.Run("clean store is a no-op", func(t *testing.T) {
		backend := &mock.MockBackend{
			GetSettingsFunc: func(ctx context.Context) (models.Settings, error) {
				return baseSettings(), nil
			},
		}
		store := loadedStore(t, backend, &recordingNotifier{})

		if err := store.Commit(context.Background()); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		for _, call := range backend.Calls() {
			if call == "SaveSettings" {
				t.Error("clean commit must not hit the backend")
			}
		}
	})

	t.Run("success adopts normalized value", func(t *testing.T) {
		normalized := baseSettings()
		normalized.Connection.RemoteHost = "deck@server"
		normalized.Sync.RsyncFlags = "-avz"

		backend := &mock.MockBackend{
			GetSettingsFunc: func(ctx context.Context) (models.Settings, error) {
				return baseSettings(), nil
			},
			SaveSettingsFunc: func(ctx context.Context, settings models.Settings) (models.Settings, error) {
				return normalized, nil
			},
		}
		notifier := &recordingNotifier{}
		store := loadedStore(t, backend, notifier)

		store.Apply(SetRemoteHost("  deck@server  "))
		if err := store.Commit(context.Background()); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}

		persisted, _ := store.Persisted()
		draft, _ := store.Draft()
		if !persisted.Equal(normalized) || !draft.Equal(normalized) {
			t.Error("expected both persisted and draft to adopt the normalized value")
		}
		if store.Dirty() {
			t.Error("expected clean store after successful commit")
		}
		if notifier.criticalCount() != 0 {
			t.Error("expected no critical notification on success")
		}
	})

	t.Run("failure preserves draft and dirty flag", func(t *testing.T) {
		backend := &mock.MockBackend{
			GetSettingsFunc: func(ctx context.Context) (models.Settings, error) {
				return baseSettings(), nil
			},
			SaveSettingsFunc: func(ctx context.Context, settings models.Settings) (models.Settings, error) {
				return models.Settings{}, errors.New("disk full")
			},
		}
		notifier := &recordingNotifier{}
		store := loadedStore(t, backend, notifier)

		store.Apply(SetRemoteHost("edited@host"))
		draftBefore, _ := store.Draft()

		err := store.Commit(context.Background())
		if !errors.Is(err, shared.ErrSettingsCommit) {
			t.Errorf("expected ErrSettingsCommit, got %v", err)
		}

		draftAfter, _ := store.Draft()
		if !draftAfter.Equal(draftBefore) {
			t.Error("expected draft preserved exactly after a failed commit")
		}
		if !store.Dirty() {
			t.Error("expected dirty flag preserved after a failed commit")
		}
		persisted, _ := store.Persisted()
		if !persisted.Equal(baseSettings()) {
			t.Error("expected persisted value untouched by a failed commit")
		}
		if notifier.criticalCount() != 1 {
			t.Errorf("expected one critical notification, got %d", notifier.criticalCount())
		}
	})
}
