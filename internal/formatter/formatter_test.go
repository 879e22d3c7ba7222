package formatter

import (
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmelton/deckhand/internal/models"
	mock "github.com/dmelton/deckhand/internal/testing"
)

func testSnapshot() *models.LibrarySnapshot {
	last := time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC)
	return &models.LibrarySnapshot{
		Games: []models.Game{
			{
				Name:            "Dredge",
				SteamAppID:      1562430,
				ProtonVersion:   "GE-Proton9-20",
				Installed:       true,
				PrefixReady:     true,
				RemoteAvailable: true,
				LastBackup:      &last,
			},
			{
				Name:            "Hades",
				SteamAppID:      1145360,
				RemoteAvailable: true,
			},
		},
		Source:      "/tmp/games.json",
		RefreshedAt: time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC),
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(testSnapshot())
	if err != nil {
		t.Fatalf("ExportToCSV failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV output: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "Name" || records[0][6] != "LastBackup" {
		t.Errorf("unexpected headers: %v", records[0])
	}
	if records[1][0] != "Dredge" || records[1][3] != "true" {
		t.Errorf("unexpected first row: %v", records[1])
	}
	if records[2][6] != "" {
		t.Errorf("expected empty backup time for Hades, got %q", records[2][6])
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(testSnapshot())
	if err != nil {
		t.Fatalf("ExportToMarkdown failed: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"# Game Library",
		"**Games**: 2",
		"1. Dredge (GE-Proton9-20) [installed]",
		"2. Hades [available]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(testSnapshot())
	if err != nil {
		t.Fatalf("ExportToText failed: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, "Games: 2") {
		t.Errorf("expected game count in output:\n%s", out)
	}
	if !strings.Contains(out, "2. Hades [available]") {
		t.Errorf("expected game line in output:\n%s", out)
	}
}

func TestStatusString(t *testing.T) {
	tc := []struct {
		name string
		game models.Game
		want string
	}{
		{"installed and served", models.Game{Installed: true, RemoteAvailable: true}, "installed"},
		{"installed but dropped remotely", models.Game{Installed: true}, "installed, remote missing"},
		{"available", models.Game{RemoteAvailable: true}, "available"},
		{"unavailable", models.Game{}, "unavailable"},
	}

	for _, c := range tc {
		t.Run(c.name, func(t *testing.T) {
			if got := StatusString(c.game); got != c.want {
				t.Errorf("expected %q, got %q", c.want, got)
			}
		})
	}
}

func TestFormatSettings(t *testing.T) {
	settings := models.Settings{}
	settings.Connection.RemoteHost = "deck@server"
	settings.Proton.DefaultVersion = "GE-Proton10-25"

	out := FormatSettings(settings)
	if !strings.Contains(out, "connection.remote_host: deck@server\n") {
		t.Errorf("expected remote host line:\n%s", out)
	}
	if !strings.Contains(out, "proton.default_version: GE-Proton10-25\n") {
		t.Errorf("expected proton version line:\n%s", out)
	}
	if len(strings.Split(strings.TrimRight(out, "\n"), "\n")) != 7 {
		t.Errorf("expected one line per leaf:\n%s", out)
	}
}

func TestFormatResult(t *testing.T) {
	result := &models.OperationResult{
		OK:       false,
		Message:  "Synced 1 games",
		Steps:    []string{"Downloaded files"},
		Failures: []string{"Dredge: no sync paths"},
	}

	out := FormatResult(result)
	if !strings.HasPrefix(out, "failed: Synced 1 games\n") {
		t.Errorf("expected failure prefix:\n%s", out)
	}
	if !strings.Contains(out, "  - Downloaded files\n") {
		t.Errorf("expected step line:\n%s", out)
	}
	if !strings.Contains(out, "  ! Dredge: no sync paths\n") {
		t.Errorf("expected failure line:\n%s", out)
	}
}

func TestWriteCSVExport(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "library")

	result, err := WriteCSVExport(testSnapshot(), base)
	if err != nil {
		t.Fatalf("WriteCSVExport failed: %v", err)
	}

	mock.AssertFileExists(t, result.GamesFile)
	mock.AssertFileExists(t, result.SnapshotFile)

	if !strings.Contains(mock.MustReadFile(t, result.GamesFile), "Dredge") {
		t.Error("expected game row in CSV file")
	}
	if !strings.Contains(mock.MustReadFile(t, result.SnapshotFile), "\"source\"") {
		t.Error("expected snapshot metadata in JSON file")
	}
}

func TestWriteTextExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "games.txt")

	written, err := WriteTextExport(testSnapshot(), path)
	if err != nil {
		t.Fatalf("WriteTextExport failed: %v", err)
	}
	if written != path {
		t.Errorf("expected %s, got %s", path, written)
	}
	mock.AssertFileExists(t, written)
}
