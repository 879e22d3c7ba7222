package main

import (
	"context"
	"fmt"

	"github.com/dmelton/deckhand/internal/formatter"
	"github.com/dmelton/deckhand/internal/models"
	"github.com/dmelton/deckhand/internal/panel"
	"github.com/dmelton/deckhand/internal/shared"
	"github.com/urfave/cli/v3"
)

// Install runs the install pipeline for the named game.
func (r *Runner) Install(ctx context.Context, cmd *cli.Command) error {
	return r.runOperation(ctx, cmd, func(p *panel.Panel, name string) (*models.OperationResult, error) {
		return p.Install(ctx, name)
	})
}

// Remove runs the remove pipeline for the named game.
func (r *Runner) Remove(ctx context.Context, cmd *cli.Command) error {
	return r.runOperation(ctx, cmd, func(p *panel.Panel, name string) (*models.OperationResult, error) {
		return p.Remove(ctx, name)
	})
}

// Sync backs up saves for one game, or for every installed game with --all.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	p, err := r.ensurePanel(ctx, cmd)
	if err != nil {
		return err
	}
	if err := p.Init(ctx); err != nil {
		return err
	}

	if cmd.Bool("all") {
		result, err := p.SyncAll(ctx)
		if err != nil {
			return err
		}
		return r.writePlain("%s", formatter.FormatResult(result))
	}

	name := cmd.StringArg("game")
	if name == "" {
		return fmt.Errorf("%w: game name (or --all)", shared.ErrMissingArgument)
	}

	result, err := p.Sync(ctx, name)
	if err != nil {
		return err
	}
	return r.writePlain("%s", formatter.FormatResult(result))
}

// runOperation loads the panel, dispatches one named-game operation and
// prints its result.
func (r *Runner) runOperation(ctx context.Context, cmd *cli.Command, op func(p *panel.Panel, name string) (*models.OperationResult, error)) error {
	name := cmd.StringArg("game")
	if name == "" {
		return fmt.Errorf("%w: game name", shared.ErrMissingArgument)
	}

	p, err := r.ensurePanel(ctx, cmd)
	if err != nil {
		return err
	}
	if err := p.Init(ctx); err != nil {
		return err
	}

	result, err := op(p, name)
	if err != nil {
		return err
	}

	return r.writePlain("%s", formatter.FormatResult(result))
}
