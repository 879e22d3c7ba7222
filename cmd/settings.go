package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dmelton/deckhand/internal/formatter"
	"github.com/dmelton/deckhand/internal/panel"
	"github.com/dmelton/deckhand/internal/shared"
	"github.com/urfave/cli/v3"
)

// SettingsShow prints the current settings record.
func (r *Runner) SettingsShow(ctx context.Context, cmd *cli.Command) error {
	p, err := r.ensurePanel(ctx, cmd)
	if err != nil {
		return err
	}
	if err := p.Settings().Load(ctx); err != nil {
		return err
	}

	settings, _ := p.Settings().Persisted()
	if cmd.Bool("json") {
		return r.writeJSON(settings, true)
	}
	return r.writePlain("%s", formatter.FormatSettings(settings))
}

// SettingsSet applies one leaf mutation and commits it, unless
// --no-save keeps the change in the draft (which only lives for this
// process).
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	key := cmd.StringArg("key")
	value := cmd.StringArg("value")
	if key == "" {
		return fmt.Errorf("%w: settings key (one of: %s)", shared.ErrMissingArgument, strings.Join(mutationKeys(), ", "))
	}

	construct, ok := panel.Mutations()[key]
	if !ok {
		return fmt.Errorf("%w: unknown settings key %q (one of: %s)", shared.ErrInvalidArgument, key, strings.Join(mutationKeys(), ", "))
	}

	p, err := r.ensurePanel(ctx, cmd)
	if err != nil {
		return err
	}
	if err := p.Settings().Load(ctx); err != nil {
		return err
	}

	if err := p.Settings().Apply(construct(value)); err != nil {
		return err
	}

	if cmd.Bool("no-save") {
		r.writePlain("Draft updated: %s = %q (not committed)\n", key, value)
		return nil
	}

	return p.Settings().Commit(ctx)
}

// SettingsSave commits any outstanding draft changes.
func (r *Runner) SettingsSave(ctx context.Context, cmd *cli.Command) error {
	p, err := r.ensurePanel(ctx, cmd)
	if err != nil {
		return err
	}
	if err := p.Settings().Load(ctx); err != nil {
		return err
	}

	if !p.Settings().Dirty() {
		r.writePlain("No unsaved changes.\n")
		return nil
	}
	return p.Settings().Commit(ctx)
}

func mutationKeys() []string {
	keys := make([]string, 0, len(panel.Mutations()))
	for key := range panel.Mutations() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
