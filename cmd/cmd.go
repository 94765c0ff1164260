// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// globalFlags are accepted by every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error); overrides [log] level",
		},
	}
}

// runCommand starts the bridge
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Forward Audiobookshelf listening progress to MediaTracker until interrupted",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show the live monitor (logs go to --log-file)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file used while the monitor owns the terminal",
				Value: "./tmp/shelfbridge.log",
			},
		},
		Action: r.Run,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Audiobookshelf credential",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Exchange username and password for a token and store it in the credential cache",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Audiobookshelf username (prompted when missing)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Remove the cached credential",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Check a running bridge by calling its /health endpoint",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "host:port of the health server (defaults to [server] settings)",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// lookupCommand resolves one library item
func lookupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lookup",
		Usage: "Resolve a library item to its ASIN",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "item-id",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Lookup,
	}
}

// publishCommand pushes a single progress value
func publishCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Send one progress value to MediaTracker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "asin",
				Usage:    "Audible ASIN of the book",
				Required: true,
			},
			&cli.FloatFlag{
				Name:     "progress",
				Usage:    "Progress fraction between 0 and 1",
				Required: true,
			},
		},
		Action: r.Publish,
	}
}

// cacheCommand handles the item cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the resolved item cache",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"items", "ls"},
				Usage:   "List cached items",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (text, csv, markdown, json)",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
					&cli.StringFlag{
						Name:  "asin",
						Usage: "Only items with this ASIN",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of items",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached item",
				Action: r.CacheClear,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	serviceFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "service",
			Aliases: []string{"s"},
			Usage:   "Server to call (source or destination)",
			Value:   "source",
		}
	}

	return &cli.Command{
		Name:  "api",
		Usage: "Direct authorized API calls for debugging",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					serviceFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					serviceFlag(),
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write an example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (defaults to --config)",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}
