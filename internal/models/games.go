package models

import (
	"fmt"
	"time"
)

// Game is a single library entry as decorated by the backend. Name is
// the identity within a snapshot; the descriptive fields (versions,
// dependency and path lists) are opaque payload the panel never
// mutates locally.
type Game struct {
	Name               string     `json:"name"`
	Path               string     `json:"path"`
	DefinedPath        string     `json:"defined_path"`
	SteamAppID         int        `json:"steam_appid"`
	ProtonVersion      string     `json:"proton_version"`
	ProtonDependencies []string   `json:"proton_dependencies"`
	ProtonSyncPaths    []string   `json:"proton_sync_paths"`
	RemotePath         string     `json:"remote_path,omitempty"`
	Executable         string     `json:"executable,omitempty"`
	Categories         []string   `json:"categories,omitempty"`
	Installed          bool       `json:"installed"`
	PrefixReady        bool       `json:"prefix_ready"`
	PrefixPath         string     `json:"prefix_path"`
	BackupPath         string     `json:"backup_path"`
	LastBackup         *time.Time `json:"last_backup,omitempty"`
	RemoteAvailable    bool       `json:"remote_available"`
	MetadataPath       string     `json:"metadata_path,omitempty"`
}

// LibrarySnapshot is the atomically-replaced view of the whole library.
// Games are sorted by name for presentation; the sort order is derived
// on refresh, never persisted by the backend.
type LibrarySnapshot struct {
	Games       []Game    `json:"games"`
	Source      string    `json:"source"`
	SavesPath   string    `json:"savesPath"`
	RefreshedAt time.Time `json:"refreshedAt"`
}

// Lookup returns the game with the given name, if present.
func (s *LibrarySnapshot) Lookup(name string) (Game, bool) {
	for _, g := range s.Games {
		if g.Name == name {
			return g, true
		}
	}
	return Game{}, false
}

// OperationResult is the outcome of one long-running backend operation.
// Only Backend implementations produce these; the panel never
// synthesizes one.
type OperationResult struct {
	OK         bool       `json:"ok"`
	Message    string     `json:"message"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	Failures   []string   `json:"failures,omitempty"`
	Steps      []string   `json:"steps,omitempty"`
	PrefixPath string     `json:"prefix_path,omitempty"`
}

// CachedGame is a snapshot row persisted to the local database so the
// panel can display the last known library before the first refresh
// completes. Rows are replaced wholesale with their snapshot.
type CachedGame struct {
	id        string
	sequence  int
	game      Game
	source    string
	refreshed time.Time
	createdAt time.Time
	updatedAt time.Time
}

// NewCachedGame wraps a decorated Game for persistence.
func NewCachedGame(sequence int, source string, refreshed time.Time, game Game) *CachedGame {
	now := time.Now()
	return &CachedGame{
		sequence:  sequence,
		game:      game,
		source:    source,
		refreshed: refreshed,
		createdAt: now,
		updatedAt: now,
	}
}

func (c *CachedGame) ID() string            { return c.id }
func (c *CachedGame) CreatedAt() time.Time  { return c.createdAt }
func (c *CachedGame) UpdatedAt() time.Time  { return c.updatedAt }
func (c *CachedGame) Sequence() int         { return c.sequence }
func (c *CachedGame) Game() Game            { return c.game }
func (c *CachedGame) Source() string        { return c.source }
func (c *CachedGame) Refreshed() time.Time  { return c.refreshed }
func (c *CachedGame) SetID(id string)       { c.id = id }
func (c *CachedGame) SetUpdatedAt(t time.Time) {
	c.updatedAt = t
}

// Validate checks the invariants a snapshot row must hold before it is
// written to the database.
func (c *CachedGame) Validate() error {
	if c.game.Name == "" {
		return fmt.Errorf("cached game requires a name")
	}
	if c.refreshed.IsZero() {
		return fmt.Errorf("cached game requires a refresh timestamp")
	}
	return nil
}
