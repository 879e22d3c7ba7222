package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmelton/deckhand/internal/server"
	"github.com/dmelton/deckhand/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the daemon over the local backend until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	if config.Backend.Mode == "remote" {
		return fmt.Errorf("%w: serve requires backend.mode = \"local\"", shared.ErrInvalidConfig)
	}

	p, err := r.ensurePanel(ctx, cmd)
	if err != nil {
		return err
	}
	if err := p.Init(ctx); err != nil {
		return err
	}

	daemon := server.NewDaemon(config.Server, p, r.backend, r.logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- daemon.Start()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := daemon.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}
	return nil
}
