// Package proton manages Proton compatibility prefixes for installed games.
//
// A prefix lives under the Steam compatdata root, keyed by steam app id,
// and holds a minimal Windows-like directory tree plus a deckhand.json
// metadata file recording which Proton version prepared it.
package proton

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ErrProtontricksUnavailable is returned when the protontricks binary
// cannot be found on PATH.
var ErrProtontricksUnavailable = errors.New("protontricks is not installed")

// MetadataFile is the per-prefix metadata filename.
const MetadataFile = "deckhand.json"

// CommandRunner executes an external command and returns its stdout and stderr.
type CommandRunner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// Metadata records how a prefix was prepared.
type Metadata struct {
	Name          string    `json:"name"`
	ProtonVersion string    `json:"proton_version"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Manager creates and inspects prefixes under one compatdata root.
type Manager struct {
	compatdataRoot string
	defaultVersion string
	logger         *log.Logger
	run            CommandRunner
}

// NewManager creates a prefix manager. A nil runner defaults to exec.
func NewManager(compatdataRoot, defaultVersion string, logger *log.Logger, run CommandRunner) *Manager {
	if run == nil {
		run = func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
			cmd := exec.CommandContext(ctx, name, args...)
			var out, errBuf strings.Builder
			cmd.Stdout = &out
			cmd.Stderr = &errBuf
			err := cmd.Run()
			return []byte(out.String()), []byte(errBuf.String()), err
		}
	}
	return &Manager{
		compatdataRoot: compatdataRoot,
		defaultVersion: defaultVersion,
		logger:         logger,
		run:            run,
	}
}

// PrefixPath returns the prefix directory for a steam app id.
func (m *Manager) PrefixPath(appID int) string {
	return filepath.Join(m.compatdataRoot, strconv.Itoa(appID))
}

// PrefixReady reports whether the prefix's pfx directory exists.
func (m *Manager) PrefixReady(appID int) bool {
	_, err := os.Stat(filepath.Join(m.PrefixPath(appID), "pfx"))
	return err == nil
}

// MetadataPath returns the metadata file path for a prefix, and whether
// the file exists.
func (m *Manager) MetadataPath(appID int) (string, bool) {
	path := filepath.Join(m.PrefixPath(appID), MetadataFile)
	_, err := os.Stat(path)
	return path, err == nil
}

// Version returns the version to prepare a prefix with: the game's own
// when set, the configured default otherwise.
func (m *Manager) Version(gameVersion string) string {
	if gameVersion != "" {
		return gameVersion
	}
	return m.defaultVersion
}

// SetupPrefix creates the minimal prefix directory tree for a game and
// writes its metadata file. Returns the prefix path.
func (m *Manager) SetupPrefix(name string, appID int, gameVersion string) (string, error) {
	prefixPath := m.PrefixPath(appID)
	pfx := filepath.Join(prefixPath, "pfx")
	driveC := filepath.Join(pfx, "drive_c")
	userProfile := filepath.Join(driveC, "users", "steamuser")

	dirs := []string{
		prefixPath,
		pfx,
		driveC,
		filepath.Join(userProfile, "Documents"),
		filepath.Join(userProfile, "AppData", "Local"),
		filepath.Join(userProfile, "AppData", "Roaming"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create prefix directory %s: %w", dir, err)
		}
	}

	metadata := Metadata{
		Name:          name,
		ProtonVersion: m.Version(gameVersion),
		UpdatedAt:     time.Now().UTC(),
	}
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode prefix metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(prefixPath, MetadataFile), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write prefix metadata: %w", err)
	}

	if m.logger != nil {
		m.logger.Info("prepared proton prefix", "game", name, "prefix", prefixPath)
	}
	return prefixPath, nil
}

// RemovePrefix deletes a game's prefix directory tree.
func (m *Manager) RemovePrefix(appID int) error {
	prefixPath := m.PrefixPath(appID)
	if _, err := os.Stat(prefixPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.RemoveAll(prefixPath)
}

// InstallDependencies installs each dependency into a prefix with
// protontricks. Individual failures are logged and skipped; a missing
// protontricks binary aborts with [ErrProtontricksUnavailable].
func (m *Manager) InstallDependencies(ctx context.Context, appID int, dependencies []string) error {
	prefixPath := m.PrefixPath(appID)
	if _, err := os.Stat(prefixPath); err != nil {
		return fmt.Errorf("prefix not found: %s", prefixPath)
	}

	for _, dep := range dependencies {
		_, stderr, err := m.run(ctx, "protontricks", strconv.Itoa(appID), dep)
		if err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				return ErrProtontricksUnavailable
			}
			if m.logger != nil {
				m.logger.Warn("protontricks failed", "dependency", dep, "error", strings.TrimSpace(string(stderr)))
			}
		}
	}
	return nil
}
