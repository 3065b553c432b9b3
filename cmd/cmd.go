// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles first-run setup of the config, key file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write config.toml from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "key",
				Usage:  "Create the store key (derived from SPOOL_PASSPHRASE when set)",
				Action: r.SetupKey,
			},
			{
				Name:   "database",
				Usage:  "Initialize the history database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// accountCommand manages the encrypted credential store.
func accountCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "account",
		Aliases: []string{"accounts", "acct"},
		Usage:   "Manage pool accounts",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add or update an account (prompts for the password)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (read from stdin when omitted)",
					},
				},
				Action: r.AccountAdd,
			},
			{
				Name:  "list",
				Usage: "List stored accounts and their login state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AccountList,
			},
			{
				Name:  "remove",
				Usage: "Remove an account and its cached token",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Action: r.AccountRemove,
			},
		},
	}
}

// authCommand handles Spotify logins for pool accounts.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify logins",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize an account through one of the proxies and cache its token",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "account"},
				},
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: defaultLoginTimeout,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show cached token state for one or all accounts",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "account"},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// playlistCommand handles playlist operations for a single account.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a public playlist on an account",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "account"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Playlist name (default from config)",
					},
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Playlist description (default from config)",
					},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "add",
				Usage: "Add a track to a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "account"},
					&cli.StringArg{Name: "playlist-id"},
					&cli.StringArg{Name: "track-uri"},
				},
				Action: r.PlaylistAdd,
			},
		},
	}
}

// playCommand starts playback of a track on an account's active device.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Start playing a track on an account",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "account"},
			&cli.StringArg{Name: "track-uri"},
		},
		Action: r.Play,
	}
}

func batchFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringSliceFlag{
			Name:    "accounts",
			Aliases: []string{"a"},
			Usage:   "Accounts to run on (default: every stored account)",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Concurrent workers (default from config, max 10)",
		},
		&cli.FloatFlag{
			Name:  "rate",
			Usage: "Actions started per second (default from config)",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output the batch result as JSON",
		},
	}, extra...)
}

// batchCommand runs one action across many accounts.
func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Run an action across the pool",
		Commands: []*cli.Command{
			{
				Name:  "play",
				Usage: "Play a track on every selected account",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track-uri"},
				},
				Flags:  batchFlags(),
				Action: r.BatchPlay,
			},
			{
				Name:  "create",
				Usage: "Create a playlist on every selected account",
				Flags: batchFlags(
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Playlist name (default from config)"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Playlist description (default from config)"},
				),
				Action: r.BatchCreate,
			},
			{
				Name:  "add",
				Usage: "Add a track to the same playlist from every selected account",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist-id"},
					&cli.StringArg{Name: "track-uri"},
				},
				Flags:  batchFlags(),
				Action: r.BatchAdd,
			},
		},
	}
}

// proxyCommand inspects the proxy list.
func proxyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "proxy",
		Usage: "Inspect the proxy list",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List loaded proxies",
				Action: r.ProxyList,
			},
			{
				Name:   "pick",
				Usage:  "Pick a random proxy the way clients do (password redacted)",
				Action: r.ProxyPick,
			},
		},
	}
}

// historyCommand shows recorded actions.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded actions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "account",
				Aliases: []string{"a"},
				Usage:   "Only show this account",
			},
			&cli.StringFlag{
				Name:  "action",
				Usage: "Only show this action (add_account, create_playlist, add_track, play_track)",
			},
			&cli.BoolFlag{
				Name:  "failed",
				Usage: "Only show failures",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of records",
				Value:   50,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv or json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.History,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive two-tab interface",
		Action:  r.TUI,
	}
}
