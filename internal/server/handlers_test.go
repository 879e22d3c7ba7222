package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dmelton/deckhand/internal/models"
	"github.com/dmelton/deckhand/internal/panel"
	"github.com/dmelton/deckhand/internal/shared"
	mock "github.com/dmelton/deckhand/internal/testing"
)

func testLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

func testSnapshot(names ...string) *models.LibrarySnapshot {
	games := make([]models.Game, 0, len(names))
	for _, name := range names {
		games = append(games, models.Game{Name: name, RemoteAvailable: true})
	}
	return &models.LibrarySnapshot{
		Games:       games,
		Source:      "/tmp/games.json",
		RefreshedAt: time.Now().UTC(),
	}
}

// newTestDaemon stands up the daemon's router over a mock backend.
func newTestDaemon(t *testing.T, backend *mock.MockBackend, token string) *httptest.Server {
	t.Helper()

	p := panel.NewPanel(panel.PanelOpts{Backend: backend, Logger: testLogger()})
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("panel init failed: %v", err)
	}

	router := NewBasicRouter()
	router.Use(NewLoggingMiddleware(testLogger()), NewAuthMiddleware(token))
	router.Handler(NewPanelHandler(p, backend, testLogger()))

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func TestPanelHandler(t *testing.T) {
	t.Run("health probe", func(t *testing.T) {
		ts := newTestDaemon(t, &mock.MockBackend{}, "")

		resp := doRequest(t, http.MethodGet, ts.URL+"/health", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("get settings", func(t *testing.T) {
		backend := &mock.MockBackend{
			GetSettingsFunc: func(ctx context.Context) (models.Settings, error) {
				s := models.Settings{}
				s.Connection.RemoteHost = "deck@server"
				return s, nil
			},
		}
		ts := newTestDaemon(t, backend, "")

		resp := doRequest(t, http.MethodGet, ts.URL+"/api/settings", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		settings := decodeBody[models.Settings](t, resp)
		if settings.Connection.RemoteHost != "deck@server" {
			t.Errorf("unexpected settings: %+v", settings)
		}
	})

	t.Run("put settings echoes the stored tree", func(t *testing.T) {
		backend := &mock.MockBackend{
			SaveSettingsFunc: func(ctx context.Context, s models.Settings) (models.Settings, error) {
				s.Connection.RemoteHost = "normalized@host"
				return s, nil
			},
		}
		ts := newTestDaemon(t, backend, "")

		submitted := models.Settings{}
		submitted.Connection.RemoteHost = "  normalized@host  "
		resp := doRequest(t, http.MethodPut, ts.URL+"/api/settings", "", submitted)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		stored := decodeBody[models.Settings](t, resp)
		if stored.Connection.RemoteHost != "normalized@host" {
			t.Errorf("expected normalized echo, got %q", stored.Connection.RemoteHost)
		}
	})

	t.Run("put settings rejects malformed payloads", func(t *testing.T) {
		ts := newTestDaemon(t, &mock.MockBackend{}, "")

		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", bytes.NewReader([]byte("{not json")))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("get games refreshes and returns the snapshot", func(t *testing.T) {
		backend := &mock.MockBackend{
			LoadGamesFunc: func(ctx context.Context) (*models.LibrarySnapshot, error) {
				return testSnapshot("Hades", "Dredge"), nil
			},
		}
		ts := newTestDaemon(t, backend, "")

		resp := doRequest(t, http.MethodGet, ts.URL+"/api/games", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		snapshot := decodeBody[models.LibrarySnapshot](t, resp)
		if len(snapshot.Games) != 2 {
			t.Errorf("expected 2 games, got %d", len(snapshot.Games))
		}
	})

	t.Run("get games surfaces refresh failures", func(t *testing.T) {
		calls := 0
		backend := &mock.MockBackend{
			LoadGamesFunc: func(ctx context.Context) (*models.LibrarySnapshot, error) {
				calls++
				if calls > 1 {
					return nil, fmt.Errorf("%w: host unreachable", shared.ErrRefresh)
				}
				return testSnapshot("Hades"), nil
			},
		}
		ts := newTestDaemon(t, backend, "")

		resp := doRequest(t, http.MethodGet, ts.URL+"/api/games", "", nil)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", resp.StatusCode)
		}
		envelope := decodeBody[errorEnvelope](t, resp)
		if envelope.Error == "" {
			t.Error("expected an error envelope")
		}
	})

	t.Run("install runs the operation and returns its result", func(t *testing.T) {
		backend := &mock.MockBackend{
			LoadGamesFunc: func(ctx context.Context) (*models.LibrarySnapshot, error) {
				return testSnapshot("Hades"), nil
			},
			InstallGameFunc: func(ctx context.Context, name string) (*models.OperationResult, error) {
				return &models.OperationResult{OK: true, Message: "Installed " + name}, nil
			},
		}
		ts := newTestDaemon(t, backend, "")

		resp := doRequest(t, http.MethodPost, ts.URL+"/api/games/Hades/install", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		result := decodeBody[models.OperationResult](t, resp)
		if !result.OK || result.Message != "Installed Hades" {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("sentinels map to statuses", func(t *testing.T) {
		tc := []struct {
			name   string
			err    error
			status int
		}{
			{"unknown game", shared.ErrGameNotFound, http.StatusNotFound},
			{"already installed", shared.ErrGameInstalled, http.StatusConflict},
			{"remote unconfigured", shared.ErrRemoteUnconfigured, http.StatusServiceUnavailable},
			{"rsync missing", shared.ErrRsyncUnavailable, http.StatusServiceUnavailable},
			{"no sync paths", shared.ErrNoSyncPaths, http.StatusBadRequest},
		}

		for _, c := range tc {
			t.Run(c.name, func(t *testing.T) {
				backend := &mock.MockBackend{
					RemoveGameFunc: func(ctx context.Context, name string) (*models.OperationResult, error) {
						return nil, fmt.Errorf("%w: %s", c.err, name)
					},
				}
				ts := newTestDaemon(t, backend, "")

				resp := doRequest(t, http.MethodPost, ts.URL+"/api/games/Hades/remove", "", nil)
				if resp.StatusCode != c.status {
					t.Errorf("expected %d, got %d", c.status, resp.StatusCode)
				}
			})
		}
	})

	t.Run("duplicate operation returns conflict", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		backend := &mock.MockBackend{
			SyncSavesFunc: func(ctx context.Context, name string) (*models.OperationResult, error) {
				close(started)
				<-release
				return &models.OperationResult{OK: true}, nil
			},
		}
		ts := newTestDaemon(t, backend, "")

		done := make(chan int)
		go func() {
			resp, err := http.Post(ts.URL+"/api/games/Hades/sync", "application/json", nil)
			if err != nil {
				done <- 0
				return
			}
			resp.Body.Close()
			done <- resp.StatusCode
		}()

		<-started
		resp := doRequest(t, http.MethodPost, ts.URL+"/api/games/Hades/sync", "", nil)
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409 for a duplicate operation, got %d", resp.StatusCode)
		}
		close(release)

		if first := <-done; first != http.StatusOK {
			t.Errorf("expected first operation to succeed, got %d", first)
		}
	})

	t.Run("sync all", func(t *testing.T) {
		backend := &mock.MockBackend{
			SyncAllSavesFunc: func(ctx context.Context) (*models.OperationResult, error) {
				return &models.OperationResult{OK: false, Message: "Synced 1 games", Failures: []string{"Dredge: no sync paths"}}, nil
			},
		}
		ts := newTestDaemon(t, backend, "")

		resp := doRequest(t, http.MethodPost, ts.URL+"/api/sync", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		result := decodeBody[models.OperationResult](t, resp)
		if result.OK || len(result.Failures) != 1 {
			t.Errorf("unexpected result: %+v", result)
		}
	})
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("rejects missing and wrong tokens", func(t *testing.T) {
		ts := newTestDaemon(t, &mock.MockBackend{}, "secret")

		resp := doRequest(t, http.MethodGet, ts.URL+"/api/settings", "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401 without a token, got %d", resp.StatusCode)
		}

		resp = doRequest(t, http.MethodGet, ts.URL+"/api/settings", "wrong", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401 for a wrong token, got %d", resp.StatusCode)
		}
	})

	t.Run("accepts the configured token", func(t *testing.T) {
		ts := newTestDaemon(t, &mock.MockBackend{}, "secret")

		resp := doRequest(t, http.MethodGet, ts.URL+"/api/settings", "secret", nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("health probe bypasses auth", func(t *testing.T) {
		ts := newTestDaemon(t, &mock.MockBackend{}, "secret")

		resp := doRequest(t, http.MethodGet, ts.URL+"/health", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("method filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/only-get", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		ts := httptest.NewServer(router)
		t.Cleanup(ts.Close)

		resp := doRequest(t, http.MethodPost, ts.URL+"/only-get", "", nil)
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("outer"), mw("inner"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		ts := httptest.NewServer(router)
		t.Cleanup(ts.Close)
		doRequest(t, http.MethodGet, ts.URL+"/", "", nil)

		if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
			t.Errorf("unexpected middleware order: %v", order)
		}
	})
}
