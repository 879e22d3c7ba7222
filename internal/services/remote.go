// Remote daemon implementation of [Backend]
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmelton/deckhand/internal/models"
	"github.com/dmelton/deckhand/internal/shared"
)

// RemoteBackend proxies every [Backend] operation to a deckhand daemon.
type RemoteBackend struct {
	api *APIService
}

// NewRemoteBackend creates a backend talking to the daemon behind api.
func NewRemoteBackend(api *APIService) *RemoteBackend {
	return &RemoteBackend{api: api}
}

// Name returns "remote"
func (b *RemoteBackend) Name() string { return "remote" }

// errorEnvelope is the daemon's JSON error body.
type errorEnvelope struct {
	Error string `json:"error"`
}

// decode maps a daemon response onto out, translating error statuses
// into the shared error taxonomy.
func decode(resp *APIResponse, out any) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return fmt.Errorf("failed to decode daemon response: %w", err)
		}
		return nil
	}

	var envelope errorEnvelope
	_ = json.Unmarshal(resp.Body, &envelope)
	msg := envelope.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrGameNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", shared.ErrOperationInFlight, msg)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", shared.ErrBackendUnavailable, msg)
	default:
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, msg)
	}
}

// GetSettings fetches the daemon's persisted settings tree.
func (b *RemoteBackend) GetSettings(ctx context.Context) (models.Settings, error) {
	var settings models.Settings

	resp, err := b.api.Get(ctx, "/api/settings")
	if err != nil {
		return settings, fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
	}

	if err := decode(resp, &settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// SaveSettings replaces the daemon's settings tree and returns the stored value.
func (b *RemoteBackend) SaveSettings(ctx context.Context, settings models.Settings) (models.Settings, error) {
	var stored models.Settings

	data, err := json.Marshal(settings)
	if err != nil {
		return stored, fmt.Errorf("failed to encode settings: %w", err)
	}

	resp, err := b.api.Put(ctx, "/api/settings", data)
	if err != nil {
		return stored, fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
	}

	if err := decode(resp, &stored); err != nil {
		return stored, err
	}
	return stored, nil
}

// LoadGames fetches the daemon's current library snapshot.
func (b *RemoteBackend) LoadGames(ctx context.Context) (*models.LibrarySnapshot, error) {
	resp, err := b.api.Get(ctx, "/api/games")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
	}

	var snapshot models.LibrarySnapshot
	if err := decode(resp, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// InstallGame asks the daemon to run the install pipeline for name.
func (b *RemoteBackend) InstallGame(ctx context.Context, name string) (*models.OperationResult, error) {
	return b.gameOperation(ctx, name, "install")
}

// RemoveGame asks the daemon to remove name.
func (b *RemoteBackend) RemoveGame(ctx context.Context, name string) (*models.OperationResult, error) {
	return b.gameOperation(ctx, name, "remove")
}

// SyncSaves asks the daemon to back up and upload name's saves.
func (b *RemoteBackend) SyncSaves(ctx context.Context, name string) (*models.OperationResult, error) {
	return b.gameOperation(ctx, name, "sync")
}

// SyncAllSaves asks the daemon to sync saves for every installed game.
func (b *RemoteBackend) SyncAllSaves(ctx context.Context) (*models.OperationResult, error) {
	resp, err := b.api.Post(ctx, "/api/sync", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
	}

	var result models.OperationResult
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (b *RemoteBackend) gameOperation(ctx context.Context, name, op string) (*models.OperationResult, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: game name", shared.ErrMissingArgument)
	}

	path := fmt.Sprintf("/api/games/%s/%s", url.PathEscape(name), op)
	resp, err := b.api.Post(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
	}

	var result models.OperationResult
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
