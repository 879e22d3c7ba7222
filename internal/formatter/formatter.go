// package formatter provides functions to export library data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmelton/deckhand/internal/models"
	"github.com/dmelton/deckhand/internal/shared"
)

// ExportToCSV converts a LibrarySnapshot to CSV format with columns: Name, AppID, Proton, Installed, PrefixReady, RemoteAvailable, LastBackup
func ExportToCSV(snapshot *models.LibrarySnapshot) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Name", "AppID", "Proton", "Installed", "PrefixReady", "RemoteAvailable", "LastBackup"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, game := range snapshot.Games {
		record := []string{
			game.Name,
			strconv.Itoa(game.SteamAppID),
			game.ProtonVersion,
			strconv.FormatBool(game.Installed),
			strconv.FormatBool(game.PrefixReady),
			strconv.FormatBool(game.RemoteAvailable),
			formatBackupTime(game.LastBackup),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a LibrarySnapshot to Markdown format
func ExportToMarkdown(snapshot *models.LibrarySnapshot) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Game Library\n\n")
	buf.WriteString(fmt.Sprintf("**Games**: %d\n", len(snapshot.Games)))
	if !snapshot.RefreshedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Refreshed**: %s\n", snapshot.RefreshedAt.Format(time.RFC3339)))
	}
	buf.WriteString("\n## Games\n\n")

	for i, game := range snapshot.Games {
		protonPart := ""
		if game.ProtonVersion != "" {
			protonPart = fmt.Sprintf(" (%s)", game.ProtonVersion)
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s [%s]\n", i+1, game.Name, protonPart, StatusString(game)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a LibrarySnapshot to plain text format
func ExportToText(snapshot *models.LibrarySnapshot) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Games: %d\n", len(snapshot.Games)))
	if !snapshot.RefreshedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("Refreshed: %s\n", snapshot.RefreshedAt.Format(time.RFC3339)))
	}
	buf.WriteString("\n")

	for i, game := range snapshot.Games {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, game.Name, StatusString(game)))
	}

	return buf.Bytes(), nil
}

// StatusString summarizes a game's state for list output.
func StatusString(game models.Game) string {
	switch {
	case game.Installed && !game.RemoteAvailable:
		return "installed, remote missing"
	case game.Installed:
		return "installed"
	case game.RemoteAvailable:
		return "available"
	default:
		return "unavailable"
	}
}

// FormatSettings renders the settings tree as key: value lines grouped
// the way the CLI's `settings set` keys address them.
func FormatSettings(settings models.Settings) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("connection.remote_host: %s\n", settings.Connection.RemoteHost))
	buf.WriteString(fmt.Sprintf("connection.remote_config_path: %s\n", settings.Connection.RemoteConfigPath))
	buf.WriteString(fmt.Sprintf("paths.local_games_path: %s\n", settings.Paths.LocalGamesPath))
	buf.WriteString(fmt.Sprintf("paths.save_backup_path: %s\n", settings.Paths.SaveBackupPath))
	buf.WriteString(fmt.Sprintf("proton.compatdata_path: %s\n", settings.Proton.CompatdataPath))
	buf.WriteString(fmt.Sprintf("proton.default_version: %s\n", settings.Proton.DefaultVersion))
	buf.WriteString(fmt.Sprintf("sync.rsync_flags: %s\n", settings.Sync.RsyncFlags))

	return buf.String()
}

// FormatResult renders an operation result with its steps and failures.
func FormatResult(result *models.OperationResult) string {
	var buf strings.Builder

	status := "ok"
	if !result.OK {
		status = "failed"
	}
	buf.WriteString(fmt.Sprintf("%s: %s\n", status, result.Message))

	for _, step := range result.Steps {
		buf.WriteString(fmt.Sprintf("  - %s\n", step))
	}
	for _, failure := range result.Failures {
		buf.WriteString(fmt.Sprintf("  ! %s\n", failure))
	}

	return buf.String()
}

// ToSnapshotJSON generates a JSON representation of the snapshot
func ToSnapshotJSON(snapshot *models.LibrarySnapshot) ([]byte, error) {
	return shared.MarshalJSON(snapshot, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	GamesFile    string
	SnapshotFile string
}

// WriteCSVExport exports a snapshot to CSV format with an accompanying snapshot JSON file.
//
// Defaults to "library" as the base filename & creates {base}_games.csv and {base}_snapshot.json
func WriteCSVExport(snapshot *models.LibrarySnapshot, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "library"
	}

	csvData, err := ExportToCSV(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	gamesFile := baseFilepath + "_games.csv"
	if err := os.WriteFile(gamesFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	snapshotJSON, err := ToSnapshotJSON(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to generate snapshot JSON: %w", err)
	}

	snapshotFile := baseFilepath + "_snapshot.json"
	if err := os.WriteFile(snapshotFile, snapshotJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write snapshot file: %w", err)
	}

	return &CSVExportResult{
		GamesFile:    gamesFile,
		SnapshotFile: snapshotFile,
	}, nil
}

// WriteTextExport exports a snapshot to plain text format.
//
// Defaults to "library.txt" as the filename.
func WriteTextExport(snapshot *models.LibrarySnapshot, filepath string) (string, error) {
	if filepath == "" {
		filepath = "library.txt"
	}

	textData, err := ExportToText(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

func formatBackupTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
