package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dmelton/deckhand/internal/panel"
	"github.com/dmelton/deckhand/internal/services"
	"github.com/dmelton/deckhand/internal/shared"
)

// Daemon is the HTTP server a remote control panel talks to. It wraps
// one panel over the local backend and exposes the API the
// [services.RemoteBackend] client consumes.
type Daemon struct {
	server *http.Server
	logger *log.Logger
}

// NewDaemon assembles the router, middleware and handlers for one panel.
func NewDaemon(config shared.ServerConfig, p *panel.Panel, backend services.Backend, logger *log.Logger) *Daemon {
	router := NewBasicRouter()
	router.Use(NewLoggingMiddleware(logger), NewAuthMiddleware(config.Token))
	router.Handler(NewPanelHandler(p, backend, logger))

	return &Daemon{
		server: &http.Server{
			Addr:              config.Address(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Addr returns the listen address.
func (d *Daemon) Addr() string {
	return d.server.Addr
}

// Start serves until Shutdown is called or the listener fails.
func (d *Daemon) Start() error {
	d.logger.Info("daemon listening", "addr", d.server.Addr)
	if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (d *Daemon) Shutdown(ctx context.Context) error {
	return d.server.Shutdown(ctx)
}
