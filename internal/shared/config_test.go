package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Backend.Mode != "local" {
			t.Errorf("expected backend mode local, got %s", config.Backend.Mode)
		}

		if config.Database.Path != "./deckhand.db" {
			t.Errorf("expected database path ./deckhand.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 9280 {
			t.Errorf("expected server port 9280, got %d", config.Server.Port)
		}

		if config.Storage.DataDir == "" {
			t.Error("expected a default data dir")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[backend]
mode = "remote"
address = "http://deck.local:9280"
token = "secret"

[storage]
data_dir = "/var/lib/deckhand"

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 8080
token = "secret"

[logging]
level = "debug"
path = "/tmp/deckhand.log"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Backend.Mode != "remote" {
			t.Errorf("expected backend mode remote, got %s", config.Backend.Mode)
		}

		if config.Backend.Address != "http://deck.local:9280" {
			t.Errorf("expected backend address http://deck.local:9280, got %s", config.Backend.Address)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name    string
			backend BackendConfig
			wantErr bool
		}{
			{
				name:    "local mode",
				backend: BackendConfig{Mode: "local"},
				wantErr: false,
			},
			{
				name:    "remote mode with address",
				backend: BackendConfig{Mode: "remote", Address: "http://127.0.0.1:9280"},
				wantErr: false,
			},
			{
				name:    "remote mode without address",
				backend: BackendConfig{Mode: "remote"},
				wantErr: true,
			},
			{
				name:    "unknown mode",
				backend: BackendConfig{Mode: "cloud"},
				wantErr: true,
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := &Config{Backend: tt.backend}
				err := config.Validate()
				if tt.wantErr && err == nil {
					t.Error("expected validation error")
				}
				if !tt.wantErr && err != nil {
					t.Errorf("unexpected validation error: %v", err)
				}
				if tt.wantErr && err != nil && !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})
}
