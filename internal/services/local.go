// Local filesystem implementation of [Backend]
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dmelton/deckhand/internal/models"
	"github.com/dmelton/deckhand/internal/proton"
	"github.com/dmelton/deckhand/internal/shared"
	"golang.org/x/time/rate"
)

const (
	settingsFile   = "settings.json"
	gamesCacheFile = "games.json"
	savesDirName   = "saves"
	lastSyncMarker = ".last_sync"
)

// LocalBackend manages the game library directly: the remote manifest is
// fetched over rsync, install/remove/sync pipelines run against the
// filesystem and the Proton compatibility layer.
type LocalBackend struct {
	mu      sync.Mutex
	dataDir string
	logger  *log.Logger
	run     CommandRunner

	settings        models.Settings
	cachedGames     []models.Game
	configSavesPath string
}

// LocalBackendOpts contains optional dependencies for [NewLocalBackend].
type LocalBackendOpts struct {
	DataDir string         // State directory (default: ~/.local/share/deckhand)
	Logger  *log.Logger    // Logger (default: stderr)
	Runner  CommandRunner  // External command runner (default: ExecRunner)
}

// NewLocalBackend creates a local backend, loading (and normalizing)
// persisted settings from the data directory.
func NewLocalBackend(opts LocalBackendOpts) (*LocalBackend, error) {
	dataDir := opts.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share", "deckhand")
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	run := opts.Runner
	if run == nil {
		run = ExecRunner
	}

	b := &LocalBackend{
		dataDir: dataDir,
		logger:  logger,
		run:     run,
	}

	if err := os.MkdirAll(b.savesDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	settings, err := b.loadSettings()
	if err != nil {
		return nil, err
	}
	b.settings = settings

	return b, nil
}

// Name returns "local"
func (b *LocalBackend) Name() string { return "local" }

func (b *LocalBackend) settingsPath() string   { return filepath.Join(b.dataDir, settingsFile) }
func (b *LocalBackend) gamesCachePath() string { return filepath.Join(b.dataDir, gamesCacheFile) }
func (b *LocalBackend) savesDir() string       { return filepath.Join(b.dataDir, savesDirName) }

// DefaultSettings returns the settings tree used before the user saves
// anything, anchored to the given data directory.
func DefaultSettings(dataDir string) models.Settings {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/home/deck"
	}
	return models.Settings{
		Paths: models.PathSettings{
			LocalGamesPath: filepath.Join(home, "Games"),
			SaveBackupPath: filepath.Join(dataDir, savesDirName),
		},
		Proton: models.ProtonSettings{
			CompatdataPath: filepath.Join(home, ".local", "share", "Steam", "steamapps", "compatdata"),
			DefaultVersion: "GE-Proton10-25",
		},
		Sync: models.SyncSettings{
			RsyncFlags: "-avz",
		},
	}
}

// normalize fills structural leaves that must never be empty. Connection
// leaves stay as given; everything else falls back to the default.
func (b *LocalBackend) normalize(settings models.Settings) models.Settings {
	defaults := DefaultSettings(b.dataDir)
	if settings.Paths.LocalGamesPath == "" {
		settings.Paths.LocalGamesPath = defaults.Paths.LocalGamesPath
	}
	if settings.Paths.SaveBackupPath == "" {
		settings.Paths.SaveBackupPath = defaults.Paths.SaveBackupPath
	}
	if settings.Proton.CompatdataPath == "" {
		settings.Proton.CompatdataPath = defaults.Proton.CompatdataPath
	}
	if settings.Proton.DefaultVersion == "" {
		settings.Proton.DefaultVersion = defaults.Proton.DefaultVersion
	}
	if settings.Sync.RsyncFlags == "" {
		settings.Sync.RsyncFlags = defaults.Sync.RsyncFlags
	}
	settings.Connection.RemoteHost = strings.TrimSpace(settings.Connection.RemoteHost)
	settings.Connection.RemoteConfigPath = strings.TrimSpace(settings.Connection.RemoteConfigPath)
	return settings
}

// loadSettings reads settings.json, merging stored values over defaults
// and writing the normalized result back. Unknown keys are dropped.
func (b *LocalBackend) loadSettings() (models.Settings, error) {
	settings := DefaultSettings(b.dataDir)

	data, err := os.ReadFile(b.settingsPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return settings, fmt.Errorf("%w: %v", shared.ErrSettingsLoad, err)
		}
		if err := b.persistSettings(settings); err != nil {
			return settings, err
		}
		return settings, nil
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("%w: %v", shared.ErrSettingsLoad, err)
	}

	settings = b.normalize(settings)
	if err := b.persistSettings(settings); err != nil {
		return settings, err
	}
	return settings, nil
}

func (b *LocalBackend) persistSettings(settings models.Settings) error {
	data, err := shared.MarshalJSON(settings, true)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrSettingsCommit, err)
	}
	if err := os.MkdirAll(b.dataDir, 0755); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrSettingsCommit, err)
	}
	if err := os.WriteFile(b.settingsPath(), data, 0644); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrSettingsCommit, err)
	}
	return nil
}

// GetSettings returns the current settings tree.
func (b *LocalBackend) GetSettings(ctx context.Context) (models.Settings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings, nil
}

// SaveSettings replaces the settings tree, persisting the normalized
// value and returning it.
func (b *LocalBackend) SaveSettings(ctx context.Context, settings models.Settings) (models.Settings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	normalized := b.normalize(settings)
	if err := b.persistSettings(normalized); err != nil {
		return b.settings, err
	}
	b.settings = normalized
	b.logger.Info("settings saved")
	return normalized, nil
}

// manifestEntry is one game definition in the remote manifest.
type manifestEntry struct {
	Name               string   `json:"name"`
	Path               string   `json:"path"`
	SteamAppID         int      `json:"steam_appid"`
	ProtonVersion      string   `json:"proton_version"`
	ProtonDependencies []string `json:"proton_dependencies"`
	ProtonSyncPaths    []string `json:"proton_sync_paths"`
	RemotePath         string   `json:"remote_path"`
	Executable         string   `json:"executable"`
	Categories         []string `json:"categories"`
}

// manifest is the root of the remote games file.
type manifest struct {
	Games     []manifestEntry `json:"games"`
	SavesPath string          `json:"savesPath"`
}

// LoadGames fetches the remote manifest over rsync and decorates each
// entry with local install and backup state.
func (b *LocalBackend) LoadGames(ctx context.Context) (*models.LibrarySnapshot, error) {
	b.mu.Lock()
	settings := b.settings
	b.mu.Unlock()

	if !settings.RemoteConfigured() {
		return nil, fmt.Errorf("%w: set remote host and config path in settings", shared.ErrRemoteUnconfigured)
	}

	rsync := NewRsync(settings.Connection.RemoteHost, settings.Sync.RsyncFlags, b.logger, b.run)
	if err := rsync.PullFile(ctx, settings.Connection.RemoteConfigPath, b.gamesCachePath()); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefresh, err)
	}

	data, err := os.ReadFile(b.gamesCachePath())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefresh, err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: invalid games file: %v", shared.ErrRefresh, err)
	}

	games := make([]models.Game, 0, len(m.Games))
	for _, entry := range m.Games {
		games = append(games, b.decorate(entry, settings))
	}
	sort.Slice(games, func(i, j int) bool { return games[i].Name < games[j].Name })

	b.mu.Lock()
	b.cachedGames = games
	b.configSavesPath = m.SavesPath
	b.mu.Unlock()

	return &models.LibrarySnapshot{
		Games:       games,
		Source:      b.gamesCachePath(),
		SavesPath:   m.SavesPath,
		RefreshedAt: time.Now().UTC(),
	}, nil
}

// decorate fills a manifest entry with local state: resolved paths,
// install and prefix status, and the last backup timestamp.
func (b *LocalBackend) decorate(entry manifestEntry, settings models.Settings) models.Game {
	localPath := b.resolveLocalPath(entry.Path, settings)
	manager := proton.NewManager(settings.Proton.CompatdataPath, settings.Proton.DefaultVersion, b.logger, proton.CommandRunner(b.run))
	prefixPath := manager.PrefixPath(entry.SteamAppID)
	backupPath := filepath.Join(settings.Paths.SaveBackupPath, shared.Slugify(entry.Name))

	game := models.Game{
		Name:               entry.Name,
		Path:               localPath,
		DefinedPath:        entry.Path,
		SteamAppID:         entry.SteamAppID,
		ProtonVersion:      manager.Version(entry.ProtonVersion),
		ProtonDependencies: entry.ProtonDependencies,
		ProtonSyncPaths:    entry.ProtonSyncPaths,
		RemotePath:         entry.RemotePath,
		Executable:         entry.Executable,
		Categories:         entry.Categories,
		PrefixPath:         prefixPath,
		BackupPath:         backupPath,
		RemoteAvailable:    settings.RemoteConfigured(),
	}

	if _, err := os.Stat(localPath); err == nil {
		game.Installed = true
	}
	game.PrefixReady = manager.PrefixReady(entry.SteamAppID)
	if path, ok := manager.MetadataPath(entry.SteamAppID); ok {
		game.MetadataPath = path
	}
	game.LastBackup = readLastBackup(backupPath)

	return game
}

func (b *LocalBackend) resolveLocalPath(candidate string, settings models.Settings) string {
	if candidate == "" {
		return settings.Paths.LocalGamesPath
	}
	expanded := shared.ExpandHome(candidate)
	if filepath.IsAbs(expanded) {
		return expanded
	}
	return filepath.Join(settings.Paths.LocalGamesPath, candidate)
}

func readLastBackup(backupPath string) *time.Time {
	data, err := os.ReadFile(filepath.Join(backupPath, lastSyncMarker))
	if err != nil {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return nil
	}
	return &ts
}

// requireGame returns the cached game with the given name, refreshing
// the cache first when it is empty.
func (b *LocalBackend) requireGame(ctx context.Context, name string) (models.Game, error) {
	b.mu.Lock()
	cached := b.cachedGames
	b.mu.Unlock()

	if len(cached) == 0 {
		if _, err := b.LoadGames(ctx); err != nil {
			return models.Game{}, err
		}
		b.mu.Lock()
		cached = b.cachedGames
		b.mu.Unlock()
	}

	for _, game := range cached {
		if game.Name == name {
			return game, nil
		}
	}
	return models.Game{}, fmt.Errorf("%w: %s", shared.ErrGameNotFound, name)
}

// InstallGame runs the install pipeline: download, prefix setup,
// dependency installation, save import and Steam registration. The
// dependency and save steps degrade to warnings; the rest abort.
func (b *LocalBackend) InstallGame(ctx context.Context, name string) (*models.OperationResult, error) {
	game, err := b.requireGame(ctx, name)
	if err != nil {
		return nil, err
	}
	if game.Installed {
		return nil, fmt.Errorf("%w: %s", shared.ErrGameInstalled, name)
	}

	b.mu.Lock()
	settings := b.settings
	savesPath := b.configSavesPath
	b.mu.Unlock()

	if !settings.RemoteConfigured() {
		return nil, shared.ErrRemoteUnconfigured
	}

	rsync := NewRsync(settings.Connection.RemoteHost, settings.Sync.RsyncFlags, b.logger, b.run)
	manager := proton.NewManager(settings.Proton.CompatdataPath, settings.Proton.DefaultVersion, b.logger, proton.CommandRunner(b.run))

	var steps []string

	// Download game files
	remoteSubpath := game.RemotePath
	if remoteSubpath == "" {
		defined := game.DefinedPath
		if defined == "" {
			defined = game.Path
		}
		remoteSubpath = filepath.Base(defined)
	}
	remoteTarget := filepath.Join(filepath.Dir(settings.Connection.RemoteConfigPath), remoteSubpath)
	if err := rsync.PullDir(ctx, remoteTarget, game.Path, false); err != nil {
		return nil, fmt.Errorf("failed to download game: %w", err)
	}
	steps = append(steps, "Downloaded game files")

	// Prepare compatibility prefix
	if _, err := manager.SetupPrefix(game.Name, game.SteamAppID, game.ProtonVersion); err != nil {
		return nil, fmt.Errorf("failed to setup prefix: %w", err)
	}
	steps = append(steps, "Created Proton prefix")

	// Dependencies are best-effort
	if len(game.ProtonDependencies) > 0 {
		if err := manager.InstallDependencies(ctx, game.SteamAppID, game.ProtonDependencies); err != nil {
			b.logger.Warn("dependency installation had issues", "game", name, "error", err)
			steps = append(steps, fmt.Sprintf("Dependency installation had issues: %v", err))
		} else {
			steps = append(steps, fmt.Sprintf("Installed dependencies: %s", strings.Join(game.ProtonDependencies, ", ")))
		}
	}

	// Save import is best-effort
	if savesPath != "" {
		if err := b.importSaves(ctx, game, settings, savesPath); err != nil {
			b.logger.Warn("save import had issues", "game", name, "error", err)
			steps = append(steps, fmt.Sprintf("Save import had issues: %v", err))
		} else {
			steps = append(steps, "Imported saves from remote")
		}
	}

	// Register with Steam
	if err := b.addToSteam(game, settings); err != nil {
		return nil, fmt.Errorf("failed to add to Steam: %w", err)
	}
	steps = append(steps, "Added to Steam library")

	now := time.Now().UTC()
	return &models.OperationResult{
		OK:        true,
		Message:   fmt.Sprintf("Game '%s' installed successfully", name),
		Steps:     steps,
		Timestamp: &now,
	}, nil
}

// RemoveGame backs up saves, then deletes the game folder and prefix.
// Only the folder deletion aborts the pipeline; everything else degrades
// to a warning step.
func (b *LocalBackend) RemoveGame(ctx context.Context, name string) (*models.OperationResult, error) {
	game, err := b.requireGame(ctx, name)
	if err != nil {
		return nil, err
	}
	if !game.Installed {
		return nil, fmt.Errorf("%w: %s", shared.ErrGameNotInstalled, name)
	}

	b.mu.Lock()
	settings := b.settings
	b.mu.Unlock()

	manager := proton.NewManager(settings.Proton.CompatdataPath, settings.Proton.DefaultVersion, b.logger, proton.CommandRunner(b.run))

	var steps []string

	if _, err := b.SyncSaves(ctx, name); err != nil {
		b.logger.Warn("save backup had issues", "game", name, "error", err)
		steps = append(steps, fmt.Sprintf("Save backup warning: %v", err))
	} else {
		steps = append(steps, "Backed up saves")
	}

	if err := b.removeFromSteam(game); err != nil {
		b.logger.Warn("steam removal had issues", "game", name, "error", err)
		steps = append(steps, fmt.Sprintf("Steam removal warning: %v", err))
	} else {
		steps = append(steps, "Removed from Steam library")
	}

	if _, err := os.Stat(game.Path); err == nil {
		if err := os.RemoveAll(game.Path); err != nil {
			return nil, fmt.Errorf("failed to delete game folder: %w", err)
		}
		steps = append(steps, "Deleted game folder")
	}

	if err := manager.RemovePrefix(game.SteamAppID); err != nil {
		b.logger.Warn("prefix deletion had issues", "game", name, "error", err)
		steps = append(steps, fmt.Sprintf("Prefix deletion warning: %v", err))
	} else if game.PrefixReady {
		steps = append(steps, "Deleted Proton prefix")
	}

	now := time.Now().UTC()
	return &models.OperationResult{
		OK:        true,
		Message:   fmt.Sprintf("Game '%s' removed successfully", name),
		Steps:     steps,
		Timestamp: &now,
	}, nil
}

// SyncSaves copies a game's configured save paths into the local backup
// root, stamps the sync marker and uploads the backup when the remote is
// configured.
func (b *LocalBackend) SyncSaves(ctx context.Context, name string) (*models.OperationResult, error) {
	game, err := b.requireGame(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(game.ProtonSyncPaths) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoSyncPaths, name)
	}

	b.mu.Lock()
	settings := b.settings
	savesPath := b.configSavesPath
	b.mu.Unlock()

	backupRoot := filepath.Join(settings.Paths.SaveBackupPath, shared.Slugify(game.Name))
	if err := os.MkdirAll(backupRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	var copied []string
	for _, relative := range game.ProtonSyncPaths {
		resolved := proton.ResolvePrefixPath(game.PrefixPath, relative)
		if _, err := os.Stat(resolved); err != nil {
			b.logger.Warn("save path missing", "game", name, "path", relative)
			continue
		}
		target := filepath.Join(backupRoot, shared.SanitizeRelative(relative))
		if err := copyAny(resolved, target); err != nil {
			return nil, fmt.Errorf("failed to copy save path %s: %w", relative, err)
		}
		copied = append(copied, target)
	}

	if len(copied) == 0 {
		return nil, fmt.Errorf("%w: no save paths for %s were copied, ensure the prefix exists", shared.ErrOperation, name)
	}

	now := time.Now().UTC()
	marker := filepath.Join(backupRoot, lastSyncMarker)
	if err := os.WriteFile(marker, []byte(now.Format(time.RFC3339)), 0644); err != nil {
		return nil, fmt.Errorf("failed to write sync marker: %w", err)
	}

	if settings.Connection.RemoteHost != "" && savesPath != "" {
		rsync := NewRsync(settings.Connection.RemoteHost, settings.Sync.RsyncFlags, b.logger, b.run)
		remoteTarget := filepath.Join(savesPath, shared.Slugify(game.Name))
		if err := rsync.PushDir(ctx, backupRoot, remoteTarget, false); err != nil {
			return nil, fmt.Errorf("failed to upload saves: %w", err)
		}
	}

	return &models.OperationResult{
		OK:        true,
		Message:   fmt.Sprintf("Saves for %s copied to %s", name, backupRoot),
		Timestamp: &now,
	}, nil
}

// SyncAllSaves runs SyncSaves for every installed game, collecting
// failures per game instead of stopping at the first.
func (b *LocalBackend) SyncAllSaves(ctx context.Context) (*models.OperationResult, error) {
	b.mu.Lock()
	cached := b.cachedGames
	b.mu.Unlock()

	if len(cached) == 0 {
		if _, err := b.LoadGames(ctx); err != nil {
			return nil, err
		}
		b.mu.Lock()
		cached = b.cachedGames
		b.mu.Unlock()
	}

	// Space out rsync sessions so a large library doesn't hammer the host.
	limiter := rate.NewLimiter(rate.Limit(1), 1)

	successes := 0
	var failures []string
	for _, game := range cached {
		if !game.Installed {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if _, err := b.SyncSaves(ctx, game.Name); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", game.Name, err))
			continue
		}
		successes++
	}

	now := time.Now().UTC()
	return &models.OperationResult{
		OK:        len(failures) == 0,
		Message:   fmt.Sprintf("Synced %d games", successes),
		Failures:  failures,
		Timestamp: &now,
	}, nil
}

// importSaves pulls a game's remote save backup down and restores the
// configured paths into its prefix.
func (b *LocalBackend) importSaves(ctx context.Context, game models.Game, settings models.Settings, savesPath string) error {
	if settings.Connection.RemoteHost == "" {
		return nil
	}

	slug := shared.Slugify(game.Name)
	remoteSavePath := filepath.Join(savesPath, slug)
	localBackupPath := filepath.Join(settings.Paths.SaveBackupPath, slug)

	if err := os.RemoveAll(localBackupPath); err != nil {
		return fmt.Errorf("failed to clear backup directory: %w", err)
	}
	if err := os.MkdirAll(localBackupPath, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	rsync := NewRsync(settings.Connection.RemoteHost, settings.Sync.RsyncFlags, b.logger, b.run)
	if err := rsync.PullDir(ctx, remoteSavePath, localBackupPath, false); err != nil {
		return err
	}

	for _, relative := range game.ProtonSyncPaths {
		source := filepath.Join(localBackupPath, shared.SanitizeRelative(relative))
		if _, err := os.Stat(source); err != nil {
			continue
		}
		target := proton.ResolvePrefixPath(game.PrefixPath, relative)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create save target: %w", err)
		}
		if err := copyAny(source, target); err != nil {
			return fmt.Errorf("failed to restore save path %s: %w", relative, err)
		}
	}
	return nil
}

// addToSteam registers the game as a non-Steam shortcut.
//
// TODO: write the shortcut into shortcuts.vdf once a VDF codec is wired
// in; for now registration is recorded in the log only, matching what
// the install pipeline reports.
func (b *LocalBackend) addToSteam(game models.Game, settings models.Settings) error {
	executable := game.Executable
	if executable == "" {
		for _, candidate := range []string{"game.exe", "Game.exe", game.Name + ".exe"} {
			if _, err := os.Stat(filepath.Join(game.Path, candidate)); err == nil {
				executable = candidate
				break
			}
		}
		if executable == "" {
			return fmt.Errorf("no executable found and none specified")
		}
	}

	exePath := filepath.Join(game.Path, executable)
	b.logger.Info("registering Steam shortcut",
		"game", game.Name,
		"exe", exePath,
		"proton", game.ProtonVersion,
		"categories", strings.Join(game.Categories, ","),
	)
	return nil
}

// removeFromSteam drops the game's shortcut registration.
func (b *LocalBackend) removeFromSteam(game models.Game) error {
	b.logger.Info("removing Steam shortcut", "game", game.Name, "appid", game.SteamAppID)
	return nil
}

// copyAny copies a file or directory tree. Directory targets are
// replaced wholesale.
func copyAny(source, destination string) error {
	info, err := os.Stat(source)
	if err != nil {
		return err
	}

	if info.IsDir() {
		if err := os.RemoveAll(destination); err != nil {
			return err
		}
		return copyTree(source, destination)
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return err
	}
	return copyFile(source, destination, info.Mode())
}

func copyTree(source, destination string) error {
	return filepath.WalkDir(source, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		target := filepath.Join(destination, relative)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(source, destination string, mode os.FileMode) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(destination, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
