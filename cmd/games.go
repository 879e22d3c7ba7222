package main

import (
	"context"
	"fmt"

	"github.com/dmelton/deckhand/internal/formatter"
	"github.com/dmelton/deckhand/internal/shared"
	"github.com/urfave/cli/v3"
)

// GamesList prints the library snapshot.
//
// With --cached, shows the snapshot persisted by the last run without
// touching the remote; otherwise refreshes first and prints the banner
// error when the refresh fails but a previous snapshot exists.
func (r *Runner) GamesList(ctx context.Context, cmd *cli.Command) error {
	p, err := r.ensurePanel(ctx, cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("cached") {
		p.Library().Prime()
	} else {
		if err := p.Init(ctx); err != nil {
			return err
		}
		if err := p.Library().Err(); err != nil {
			r.writePlain("⚠ %v\n\n", err)
		}
	}

	snapshot, ok := p.Library().Snapshot()
	if !ok {
		r.writePlain("No snapshot available. Run 'deckhand games refresh' first.\n")
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(snapshot, true)
	}

	data, err := formatter.ExportToText(snapshot)
	if err != nil {
		return err
	}
	return r.writePlain("%s", string(data))
}

// GamesRefresh re-fetches the snapshot, failing hard on refresh errors.
func (r *Runner) GamesRefresh(ctx context.Context, cmd *cli.Command) error {
	p, err := r.ensurePanel(ctx, cmd)
	if err != nil {
		return err
	}

	if err := p.Settings().Load(ctx); err != nil {
		return err
	}
	if err := p.Refresh(ctx); err != nil {
		return err
	}

	snapshot, _ := p.Library().Snapshot()
	return r.writePlain("✓ Refreshed %d games\n", len(snapshot.Games))
}

// GamesExport writes the snapshot to CSV or text files.
func (r *Runner) GamesExport(ctx context.Context, cmd *cli.Command) error {
	p, err := r.ensurePanel(ctx, cmd)
	if err != nil {
		return err
	}
	if err := p.Init(ctx); err != nil {
		return err
	}

	snapshot, ok := p.Library().Snapshot()
	if !ok {
		return fmt.Errorf("%w: no snapshot to export", shared.ErrRefresh)
	}

	switch format := cmd.String("format"); format {
	case "csv":
		result, err := formatter.WriteCSVExport(snapshot, cmd.String("output"))
		if err != nil {
			return err
		}
		r.writePlain("✓ Wrote %s and %s\n", result.GamesFile, result.SnapshotFile)
	case "text":
		path, err := formatter.WriteTextExport(snapshot, cmd.String("output"))
		if err != nil {
			return err
		}
		r.writePlain("✓ Wrote %s\n", path)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}

	return nil
}
