package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dmelton/deckhand/internal/panel"
	"github.com/dmelton/deckhand/internal/repositories"
	"github.com/dmelton/deckhand/internal/services"
	"github.com/dmelton/deckhand/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	backend    services.Backend
	panel      *panel.Panel
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Backend    services.Backend
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		backend:    opts.Backend,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, for surfaces that must not write
// to the terminal (the TUI).
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, panelCommand, gamesCommand, installCommand, removeCommand, syncCommand, settingsCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration for a command, falling back to
// defaults when the file is absent or unreadable.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	if r.config != nil {
		return r.config
	}

	configPath := cmd.String("config")
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); err == nil {
		if config, err := shared.LoadConfig(configPath); err == nil {
			r.config = config
			return config
		} else {
			r.logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}

	r.config = shared.DefaultConfig()
	return r.config
}

// ensurePanel builds the backend and panel on first use. The backend is
// local or remote per the config's backend.mode; the library cache gets
// a sqlite snapshot store when the database opens, and runs memory-only
// when it does not.
func (r *Runner) ensurePanel(ctx context.Context, cmd *cli.Command) (*panel.Panel, error) {
	if r.panel != nil {
		return r.panel, nil
	}

	config := r.loadConfig(cmd)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if r.backend == nil {
		backend, err := r.buildBackend(config)
		if err != nil {
			return nil, err
		}
		r.backend = backend
	}

	r.panel = panel.NewPanel(panel.PanelOpts{
		Backend:  r.backend,
		Store:    r.openStore(config),
		Notifier: r.notifier(),
		Logger:   r.logger,
	})
	return r.panel, nil
}

func (r *Runner) buildBackend(config *shared.Config) (services.Backend, error) {
	if config.Backend.Mode == "remote" {
		api := services.NewAPIService(config.Backend.Address, config.Backend.Token, r.httpClient)
		return services.NewRemoteBackend(api), nil
	}

	return services.NewLocalBackend(services.LocalBackendOpts{
		DataDir: shared.ExpandHome(config.Storage.DataDir),
		Logger:  r.logger,
	})
}

// openStore opens the snapshot database. Failure is not fatal: the
// cache simply runs without persistence.
func (r *Runner) openStore(config *shared.Config) panel.SnapshotStore {
	db, err := shared.NewDatabase(shared.ExpandHome(config.Database.Path))
	if err != nil {
		r.logger.Warn("snapshot store unavailable", "path", config.Database.Path, "error", err)
		return nil
	}

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		r.logger.Warn("snapshot store migrations failed", "error", err)
		db.Close()
		return nil
	}

	r.db = db
	return repositories.NewGameRepository(db)
}

// notifier writes notifications to the CLI output stream.
func (r *Runner) notifier() panel.Notifier {
	return panel.NotifierFunc(func(title, body string, critical bool) {
		if critical {
			r.writePlain("✗ %s: %s\n", title, body)
		} else {
			r.writePlain("• %s: %s\n", title, body)
		}
	})
}

// Close releases resources held by the runner.
func (r *Runner) Close() {
	if r.db != nil {
		r.db.Close()
		r.db = nil
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
