// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the snapshot database and the config file
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize config file, database and migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// panelCommand launches the interactive TUI
func panelCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "panel",
		Usage:  "Open the interactive control panel",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Panel,
	}
}

// gamesCommand handles library inspection
func gamesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "games",
		Usage: "Inspect the game library",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the library snapshot",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Show the persisted snapshot without refreshing",
					},
				},
				Action: r.GamesList,
			},
			{
				Name:   "refresh",
				Usage:  "Refresh the library snapshot from the remote",
				Flags:  []cli.Flag{configFlag()},
				Action: r.GamesRefresh,
			},
			{
				Name:  "export",
				Usage: "Export the library snapshot to files",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv or text",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output base path",
					},
				},
				Action: r.GamesExport,
			},
		},
	}
}

// installCommand runs the install pipeline for one game
func installCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "Install a game from the remote library",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "game"},
		},
		Flags:  []cli.Flag{configFlag()},
		Action: r.Install,
	}
}

// removeCommand runs the remove pipeline for one game
func removeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "remove",
		Usage: "Remove an installed game",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "game"},
		},
		Flags:  []cli.Flag{configFlag()},
		Action: r.Remove,
	}
}

// syncCommand syncs saves for one game or the whole library
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Back up and upload game saves",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "game"},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "Sync every installed game",
			},
		},
		Action: r.Sync,
	}
}

// settingsCommand handles the settings record
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show and edit settings",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the current settings",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SettingsShow,
			},
			{
				Name:  "set",
				Usage: "Set one settings leaf (deckhand settings set connection.remoteHost deck@host)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "key"},
					&cli.StringArg{Name: "value"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "no-save",
						Usage: "Apply to the draft without committing",
					},
				},
				Action: r.SettingsSet,
			},
			{
				Name:   "save",
				Usage:  "Commit the settings draft",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SettingsSave,
			},
		},
	}
}

// serveCommand runs the daemon
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the control panel daemon over the local backend",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}
