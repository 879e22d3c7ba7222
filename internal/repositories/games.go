package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmelton/deckhand/internal/models"
	"github.com/dmelton/deckhand/internal/shared"
)

// GameRepository persists library snapshot rows.
//
// Rows mirror the decorated games of the most recent snapshot and are
// replaced wholesale whenever a refresh lands; individual row mutation
// exists for completeness but the snapshot methods are the hot path.
// Implements panel.SnapshotStore.
type GameRepository struct {
	db *sql.DB
}

// NewGameRepository creates a new GameRepository with the given database connection
func NewGameRepository(db *sql.DB) *GameRepository {
	return &GameRepository{db: db}
}

const gameColumns = `id, sequence, name, path, defined_path, steam_appid, proton_version,
	proton_dependencies, proton_sync_paths, remote_path, executable, categories,
	installed, prefix_ready, prefix_path, backup_path, last_backup, remote_available,
	metadata_path, source, refreshed_at, created_at, updated_at`

// Create inserts a new [models.CachedGame] into the database with generated ID and sequence
func (r *GameRepository) Create(game *models.CachedGame) error {
	sequence, err := NextSequence(r.db, "games")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	game.SetID(shared.GenerateID())

	if err := game.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return r.insert(r.db, game, sequence)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (r *GameRepository) insert(db execer, game *models.CachedGame, sequence int) error {
	g := game.Game()

	deps, err := json.Marshal(orEmpty(g.ProtonDependencies))
	if err != nil {
		return fmt.Errorf("failed to encode dependencies: %w", err)
	}
	syncPaths, err := json.Marshal(orEmpty(g.ProtonSyncPaths))
	if err != nil {
		return fmt.Errorf("failed to encode sync paths: %w", err)
	}
	categories, err := json.Marshal(orEmpty(g.Categories))
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO games (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, gameColumns)

	var lastBackup any
	if g.LastBackup != nil {
		lastBackup = *g.LastBackup
	}

	_, err = db.Exec(query,
		game.ID(),
		sequence,
		g.Name,
		g.Path,
		g.DefinedPath,
		g.SteamAppID,
		g.ProtonVersion,
		string(deps),
		string(syncPaths),
		g.RemotePath,
		g.Executable,
		string(categories),
		g.Installed,
		g.PrefixReady,
		g.PrefixPath,
		g.BackupPath,
		lastBackup,
		g.RemoteAvailable,
		g.MetadataPath,
		game.Source(),
		game.Refreshed(),
		game.CreatedAt(),
		game.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

// Get retrieves a cached game by ID
func (r *GameRepository) Get(id string) (*models.CachedGame, error) {
	query := fmt.Sprintf("SELECT %s FROM games WHERE id = ?", gameColumns)
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByName retrieves a cached game by its library name
func (r *GameRepository) GetByName(name string) (*models.CachedGame, error) {
	query := fmt.Sprintf("SELECT %s FROM games WHERE name = ?", gameColumns)
	return r.scanOne(r.db.QueryRow(query, name))
}

// Update modifies an existing cached game in the database
func (r *GameRepository) Update(game *models.CachedGame) error {
	if err := game.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	game.SetUpdatedAt(now)
	g := game.Game()

	query := `
		UPDATE games
		SET installed = ?, prefix_ready = ?, last_backup = ?, refreshed_at = ?, updated_at = ?
		WHERE id = ?
	`

	var lastBackup any
	if g.LastBackup != nil {
		lastBackup = *g.LastBackup
	}

	result, err := r.db.Exec(query, g.Installed, g.PrefixReady, lastBackup, game.Refreshed(), now, game.ID())
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("game not found: %s", game.ID())
	}

	return nil
}

// Delete removes a cached game by ID
func (r *GameRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM games WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("game not found: %s", id)
	}

	return nil
}

// List retrieves all cached games matching the given criteria
func (r *GameRepository) List(criteria map[string]any) ([]*models.CachedGame, error) {
	query := fmt.Sprintf("SELECT %s FROM games WHERE 1=1", gameColumns)
	args := []any{}

	if installed, ok := criteria["installed"].(bool); ok {
		query += " AND installed = ?"
		args = append(args, installed)
	}

	query += " ORDER BY name ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []*models.CachedGame
	for rows.Next() {
		game, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return games, nil
}

// ReplaceSnapshot swaps the whole table for the games of one snapshot in
// a single transaction. Rows from the previous snapshot never survive a
// replace, and a failed replace leaves the previous rows intact.
func (r *GameRepository) ReplaceSnapshot(snapshot *models.LibrarySnapshot) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM games"); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	for i, g := range snapshot.Games {
		cached := models.NewCachedGame(i+1, snapshot.Source, snapshot.RefreshedAt, g)
		cached.SetID(shared.GenerateID())
		if err := cached.Validate(); err != nil {
			return fmt.Errorf("validation failed for %s: %w", g.Name, err)
		}
		if err := r.insert(tx, cached, i+1); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reconstructs the persisted snapshot. Returns nil when no
// rows exist (no snapshot has ever been persisted).
func (r *GameRepository) LoadSnapshot() (*models.LibrarySnapshot, error) {
	cached, err := r.List(map[string]any{})
	if err != nil {
		return nil, err
	}
	if len(cached) == 0 {
		return nil, nil
	}

	snapshot := &models.LibrarySnapshot{
		Games:       make([]models.Game, 0, len(cached)),
		Source:      cached[0].Source(),
		RefreshedAt: cached[0].Refreshed(),
	}
	for _, c := range cached {
		snapshot.Games = append(snapshot.Games, c.Game())
	}
	return snapshot, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *GameRepository) scanOne(row *sql.Row) (*models.CachedGame, error) {
	game, err := r.scan(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w", shared.ErrGameNotFound)
	}
	return game, err
}

func (r *GameRepository) scanRow(rows *sql.Rows) (*models.CachedGame, error) {
	return r.scan(rows)
}

func (r *GameRepository) scan(row rowScanner) (*models.CachedGame, error) {
	var (
		id            string
		sequence      int
		name          string
		path          string
		definedPath   string
		steamAppID    int
		protonVersion string
		depsJSON      string
		syncJSON      string
		remotePath    string
		executable    string
		catJSON       string
		installed     bool
		prefixReady   bool
		prefixPath    string
		backupPath    string
		lastBackup    sql.NullTime
		remoteAvail   bool
		metadataPath  string
		source        string
		refreshedAt   time.Time
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := row.Scan(&id, &sequence, &name, &path, &definedPath, &steamAppID, &protonVersion,
		&depsJSON, &syncJSON, &remotePath, &executable, &catJSON,
		&installed, &prefixReady, &prefixPath, &backupPath, &lastBackup, &remoteAvail,
		&metadataPath, &source, &refreshedAt, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan game: %w", err)
	}

	g := models.Game{
		Name:            name,
		Path:            path,
		DefinedPath:     definedPath,
		SteamAppID:      steamAppID,
		ProtonVersion:   protonVersion,
		RemotePath:      remotePath,
		Executable:      executable,
		Installed:       installed,
		PrefixReady:     prefixReady,
		PrefixPath:      prefixPath,
		BackupPath:      backupPath,
		RemoteAvailable: remoteAvail,
		MetadataPath:    metadataPath,
	}
	if err := json.Unmarshal([]byte(depsJSON), &g.ProtonDependencies); err != nil {
		return nil, fmt.Errorf("failed to decode dependencies: %w", err)
	}
	if err := json.Unmarshal([]byte(syncJSON), &g.ProtonSyncPaths); err != nil {
		return nil, fmt.Errorf("failed to decode sync paths: %w", err)
	}
	if err := json.Unmarshal([]byte(catJSON), &g.Categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	if lastBackup.Valid {
		t := lastBackup.Time
		g.LastBackup = &t
	}

	cached := models.NewCachedGame(sequence, source, refreshedAt, g)
	cached.SetID(id)
	cached.SetUpdatedAt(updatedAt)
	return cached, nil
}

// orEmpty keeps list columns as JSON arrays rather than null.
func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
