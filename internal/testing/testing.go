// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/dmelton/deckhand/internal/models"
)

// MockBackend is a configurable test double for [services.Backend].
// Unset function fields fall back to empty successful responses. Every
// call is recorded in order.
type MockBackend struct {
	mu    sync.Mutex
	calls []string

	GetSettingsFunc  func(ctx context.Context) (models.Settings, error)
	SaveSettingsFunc func(ctx context.Context, settings models.Settings) (models.Settings, error)
	LoadGamesFunc    func(ctx context.Context) (*models.LibrarySnapshot, error)
	InstallGameFunc  func(ctx context.Context, name string) (*models.OperationResult, error)
	RemoveGameFunc   func(ctx context.Context, name string) (*models.OperationResult, error)
	SyncSavesFunc    func(ctx context.Context, name string) (*models.OperationResult, error)
	SyncAllSavesFunc func(ctx context.Context) (*models.OperationResult, error)
}

func (m *MockBackend) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls returns the recorded call names in order.
func (m *MockBackend) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.calls...)
}

func (m *MockBackend) GetSettings(ctx context.Context) (models.Settings, error) {
	m.record("GetSettings")
	if m.GetSettingsFunc != nil {
		return m.GetSettingsFunc(ctx)
	}
	return models.Settings{}, nil
}

func (m *MockBackend) SaveSettings(ctx context.Context, settings models.Settings) (models.Settings, error) {
	m.record("SaveSettings")
	if m.SaveSettingsFunc != nil {
		return m.SaveSettingsFunc(ctx, settings)
	}
	return settings, nil
}

func (m *MockBackend) LoadGames(ctx context.Context) (*models.LibrarySnapshot, error) {
	m.record("LoadGames")
	if m.LoadGamesFunc != nil {
		return m.LoadGamesFunc(ctx)
	}
	return &models.LibrarySnapshot{}, nil
}

func (m *MockBackend) InstallGame(ctx context.Context, name string) (*models.OperationResult, error) {
	m.record("InstallGame:" + name)
	if m.InstallGameFunc != nil {
		return m.InstallGameFunc(ctx, name)
	}
	return &models.OperationResult{OK: true}, nil
}

func (m *MockBackend) RemoveGame(ctx context.Context, name string) (*models.OperationResult, error) {
	m.record("RemoveGame:" + name)
	if m.RemoveGameFunc != nil {
		return m.RemoveGameFunc(ctx, name)
	}
	return &models.OperationResult{OK: true}, nil
}

func (m *MockBackend) SyncSaves(ctx context.Context, name string) (*models.OperationResult, error) {
	m.record("SyncSaves:" + name)
	if m.SyncSavesFunc != nil {
		return m.SyncSavesFunc(ctx, name)
	}
	return &models.OperationResult{OK: true}, nil
}

func (m *MockBackend) SyncAllSaves(ctx context.Context) (*models.OperationResult, error) {
	m.record("SyncAllSaves")
	if m.SyncAllSavesFunc != nil {
		return m.SyncAllSavesFunc(ctx)
	}
	return &models.OperationResult{OK: true}, nil
}

func (m *MockBackend) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// Discard is an io.Writer for silencing loggers in tests.
var Discard io.Writer = io.Discard

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
