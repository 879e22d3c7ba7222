package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dmelton/deckhand/internal/models"
	"github.com/dmelton/deckhand/internal/panel"
	"github.com/dmelton/deckhand/internal/services"
	"github.com/dmelton/deckhand/internal/shared"
)

// errorEnvelope is the JSON body of every non-2xx response.
type errorEnvelope struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, errorEnvelope{Error: fmt.Sprintf(format, args...)})
}

// statusFor maps backend sentinels onto HTTP statuses. The remote client
// maps the statuses back, so both sides agree on the same sentinels.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrOperationInFlight),
		errors.Is(err, shared.ErrGameInstalled),
		errors.Is(err, shared.ErrGameNotInstalled):
		return http.StatusConflict
	case errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrNoSyncPaths):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrRemoteUnconfigured),
		errors.Is(err, shared.ErrRsyncUnavailable),
		errors.Is(err, shared.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PanelHandler serves the daemon API over one [panel.Panel]. Settings
// reads and writes go straight to the backend; game operations go
// through the panel so in-flight claims and refreshes behave exactly as
// they do for a local surface.
type PanelHandler struct {
	panel   *panel.Panel
	backend services.Backend
	logger  *log.Logger
}

// NewPanelHandler creates the API handler for one panel.
func NewPanelHandler(p *panel.Panel, backend services.Backend, logger *log.Logger) *PanelHandler {
	return &PanelHandler{panel: p, backend: backend, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *PanelHandler) Routes() []string {
	return []string{
		"GET /health",
		"GET /api/settings",
		"PUT /api/settings",
		"GET /api/games",
		"POST /api/games/{name}/install",
		"POST /api/games/{name}/remove",
		"POST /api/games/{name}/sync",
		"POST /api/sync",
	}
}

// ServeHTTP dispatches to the endpoint implementations. The mux only
// routes the patterns from [PanelHandler.Routes] here, so the switch is
// total.
func (h *PanelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/health":
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case path == "/api/settings" && r.Method == http.MethodGet:
		h.getSettings(w, r)
	case path == "/api/settings" && r.Method == http.MethodPut:
		h.putSettings(w, r)
	case path == "/api/games":
		h.getGames(w, r)
	case path == "/api/sync":
		h.operation(w, r, func() (*models.OperationResult, error) {
			return h.panel.SyncAll(r.Context())
		})
	case strings.HasSuffix(path, "/install"):
		h.gameOperation(w, r, h.panel.Install)
	case strings.HasSuffix(path, "/remove"):
		h.gameOperation(w, r, h.panel.Remove)
	case strings.HasSuffix(path, "/sync"):
		h.gameOperation(w, r, h.panel.Sync)
	default:
		writeError(w, http.StatusNotFound, "unknown endpoint: %s", path)
	}
}

func (h *PanelHandler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.backend.GetSettings(r.Context())
	if err != nil {
		writeError(w, statusFor(err), "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// putSettings persists the submitted tree and echoes the normalized
// result, so the caller adopts exactly what was stored.
func (h *PanelHandler) putSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings payload: %v", err)
		return
	}

	stored, err := h.backend.SaveSettings(r.Context(), settings)
	if err != nil {
		writeError(w, statusFor(err), "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// getGames refreshes and returns the snapshot. A failed refresh is an
// error response; the client keeps its own previous snapshot.
func (h *PanelHandler) getGames(w http.ResponseWriter, r *http.Request) {
	if err := h.panel.Refresh(r.Context()); err != nil {
		writeError(w, statusFor(err), "%v", err)
		return
	}

	snapshot, ok := h.panel.Library().Snapshot()
	if !ok {
		writeError(w, http.StatusInternalServerError, "no snapshot after refresh")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// gameOperation runs one named-game operation and writes its result.
func (h *PanelHandler) gameOperation(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, name string) (*models.OperationResult, error)) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "%v: game name", shared.ErrMissingArgument)
		return
	}
	h.operation(w, r, func() (*models.OperationResult, error) {
		return op(r.Context(), name)
	})
}

func (h *PanelHandler) operation(w http.ResponseWriter, r *http.Request, run func() (*models.OperationResult, error)) {
	result, err := run()
	if err != nil {
		writeError(w, statusFor(err), "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
