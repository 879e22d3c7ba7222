package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dmelton/deckhand/internal/models"
	"github.com/dmelton/deckhand/internal/shared"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func sampleGame(name string, installed bool) models.Game {
	return models.Game{
		Name:               name,
		Path:               "/home/deck/Games/" + name,
		DefinedPath:        name,
		SteamAppID:         1145360,
		ProtonVersion:      "GE-Proton10-25",
		ProtonDependencies: []string{"vcrun2019"},
		ProtonSyncPaths:    []string{"%USERPROFILE%/Documents/" + name},
		Installed:          installed,
		PrefixPath:         "/compat/1145360",
		BackupPath:         "/saves/" + name,
		RemoteAvailable:    true,
	}
}

func sampleSnapshot(refreshed time.Time, names ...string) *models.LibrarySnapshot {
	snapshot := &models.LibrarySnapshot{
		Source:      "/tmp/games.json",
		SavesPath:   "/srv/saves",
		RefreshedAt: refreshed,
	}
	for _, name := range names {
		snapshot.Games = append(snapshot.Games, sampleGame(name, false))
	}
	return snapshot
}

func TestGameRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		repo := NewGameRepository(newTestDB(t))

		cached := models.NewCachedGame(0, "/tmp/games.json", time.Now().UTC(), sampleGame("Hades", true))
		if err := repo.Create(cached); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if cached.ID() == "" {
			t.Fatal("expected generated ID")
		}

		got, err := repo.Get(cached.ID())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Game().Name != "Hades" {
			t.Errorf("unexpected name: %s", got.Game().Name)
		}
		if len(got.Game().ProtonDependencies) != 1 || got.Game().ProtonDependencies[0] != "vcrun2019" {
			t.Errorf("expected dependencies round-trip, got %v", got.Game().ProtonDependencies)
		}
		if !got.Game().Installed {
			t.Error("expected installed flag to round-trip")
		}
	})

	t.Run("GetByName", func(t *testing.T) {
		repo := NewGameRepository(newTestDB(t))

		cached := models.NewCachedGame(0, "src", time.Now().UTC(), sampleGame("Dredge", false))
		if err := repo.Create(cached); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		got, err := repo.GetByName("Dredge")
		if err != nil {
			t.Fatalf("GetByName failed: %v", err)
		}
		if got.ID() != cached.ID() {
			t.Error("expected the same row")
		}

		if _, err := repo.GetByName("Celeste"); err == nil {
			t.Error("expected error for unknown name")
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewGameRepository(newTestDB(t))

		game := sampleGame("Hades", false)
		cached := models.NewCachedGame(0, "src", time.Now().UTC(), game)
		if err := repo.Create(cached); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		game.Installed = true
		now := time.Now().UTC().Truncate(time.Second)
		game.LastBackup = &now
		updated := models.NewCachedGame(cached.Sequence(), "src", time.Now().UTC(), game)
		updated.SetID(cached.ID())

		if err := repo.Update(updated); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		got, _ := repo.Get(cached.ID())
		if !got.Game().Installed {
			t.Error("expected installed flag updated")
		}
		if got.Game().LastBackup == nil {
			t.Error("expected last backup recorded")
		}
	})

	t.Run("List filters by installed", func(t *testing.T) {
		repo := NewGameRepository(newTestDB(t))

		for _, g := range []models.Game{sampleGame("Hades", true), sampleGame("Dredge", false)} {
			if err := repo.Create(models.NewCachedGame(0, "src", time.Now().UTC(), g)); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		installed, err := repo.List(map[string]any{"installed": true})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(installed) != 1 || installed[0].Game().Name != "Hades" {
			t.Errorf("unexpected installed list: %v", installed)
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 games, got %d", len(all))
		}
		if all[0].Game().Name != "Dredge" {
			t.Error("expected list ordered by name")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewGameRepository(newTestDB(t))

		cached := models.NewCachedGame(0, "src", time.Now().UTC(), sampleGame("Hades", false))
		if err := repo.Create(cached); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := repo.Delete(cached.ID()); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := repo.Get(cached.ID()); err == nil {
			t.Error("expected deleted row to be gone")
		}
		if err := repo.Delete(cached.ID()); err == nil {
			t.Error("expected error deleting a missing row")
		}
	})

	t.Run("validation rejects unnamed games", func(t *testing.T) {
		repo := NewGameRepository(newTestDB(t))

		cached := models.NewCachedGame(0, "src", time.Now().UTC(), models.Game{})
		if err := repo.Create(cached); err == nil {
			t.Error("expected validation error")
		}
	})
}

func TestSnapshotPersistence(t *testing.T) {
	t.Run("ReplaceSnapshot swaps rows wholesale", func(t *testing.T) {
		repo := NewGameRepository(newTestDB(t))

		first := sampleSnapshot(time.Now().UTC(), "Hades", "Dredge")
		if err := repo.ReplaceSnapshot(first); err != nil {
			t.Fatalf("ReplaceSnapshot failed: %v", err)
		}

		second := sampleSnapshot(time.Now().UTC(), "Celeste")
		if err := repo.ReplaceSnapshot(second); err != nil {
			t.Fatalf("ReplaceSnapshot failed: %v", err)
		}

		loaded, err := repo.LoadSnapshot()
		if err != nil {
			t.Fatalf("LoadSnapshot failed: %v", err)
		}
		if len(loaded.Games) != 1 || loaded.Games[0].Name != "Celeste" {
			t.Errorf("expected only the new snapshot's rows, got %+v", loaded.Games)
		}
	})

	t.Run("LoadSnapshot distinguishes empty from missing", func(t *testing.T) {
		repo := NewGameRepository(newTestDB(t))

		loaded, err := repo.LoadSnapshot()
		if err != nil {
			t.Fatalf("LoadSnapshot failed: %v", err)
		}
		if loaded != nil {
			t.Error("expected nil snapshot before any replace")
		}
	})

	t.Run("snapshot round-trips decorated fields", func(t *testing.T) {
		repo := NewGameRepository(newTestDB(t))

		refreshed := time.Now().UTC().Truncate(time.Second)
		snapshot := sampleSnapshot(refreshed, "Hades")
		snapshot.Games[0].Installed = true
		last := refreshed.Add(-time.Hour)
		snapshot.Games[0].LastBackup = &last

		if err := repo.ReplaceSnapshot(snapshot); err != nil {
			t.Fatalf("ReplaceSnapshot failed: %v", err)
		}

		loaded, err := repo.LoadSnapshot()
		if err != nil {
			t.Fatalf("LoadSnapshot failed: %v", err)
		}
		game := loaded.Games[0]
		if !game.Installed || game.LastBackup == nil {
			t.Errorf("expected decorated state to round-trip, got %+v", game)
		}
		if loaded.Source != "/tmp/games.json" {
			t.Errorf("expected snapshot source to round-trip, got %s", loaded.Source)
		}
	})
}
