// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// targetFlags are shared by commands that accept a single ad hoc target in
// place of the configured ones.
func targetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:    "playlist-id",
			Aliases: []string{"p"},
			Usage:   "Sync a single playlist instead of the configured targets",
		},
		&cli.StringFlag{
			Name:    "location",
			Aliases: []string{"l"},
			Usage:   "Directory for the single playlist (default: working directory)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Media format for the single playlist (audio or video)",
			Value:   "audio",
		},
		&cli.BoolFlag{
			Name:  "save-playlist",
			Usage: "Write an m3u manifest for the single playlist",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// syncCommand converges every configured target to its remote playlist.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync playlists to their local directories",
		Flags: append(targetFlags(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run report as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		),
		Action: r.Sync,
	}
}

// planCommand shows what sync would do without touching anything.
func planCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "plan",
		Aliases: []string{"dry-run"},
		Usage:   "Show the reconciliation plan without downloading or removing anything",
		Flags:   targetFlags(),
		Action:  r.Plan,
	}
}

// setupCommand handles setup operations for configuration and the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Create a configuration file from the embedded example",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the history database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// historyCommand inspects recorded sync runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent sync runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "playlist-id",
				Usage: "Only show runs for this playlist",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// tuiCommand runs the sync with an interactive progress view.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Sync with an interactive progress view",
		Flags:   targetFlags(),
		Action:  r.TUI,
	}
}
