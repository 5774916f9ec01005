// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles first-run setup of the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the default config.toml to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication against the film backend
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and store the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Account username (prompted when empty)",
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (prompted when empty)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "signup",
				Usage: "Register a new account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Account username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (prompted when empty)",
					},
				},
				Action: r.AuthSignup,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the signed-in user",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

func filmFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "title",
			Aliases:  []string{"t"},
			Usage:    "Film title",
			Required: required,
		},
		&cli.IntFlag{
			Name:    "year",
			Aliases: []string{"y"},
			Usage:   "Release year",
		},
		&cli.StringFlag{
			Name:  "director",
			Usage: "Director",
		},
		&cli.StringFlag{
			Name:  "duration",
			Usage: "Running time, e.g. \"117 min\"",
		},
		&cli.StringFlag{
			Name:  "genre",
			Usage: "Genre",
		},
		&cli.StringFlag{
			Name:  "poster",
			Usage: "Poster image URL",
		},
		&cli.BoolFlag{
			Name:  "seen",
			Usage: "Mark the film as seen",
		},
	}
}

func idFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:     "id",
		Usage:    "Film ID",
		Required: true,
	}
}

// filmsCommand handles the collection itself
func filmsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "films",
		Aliases: []string{"f"},
		Usage:   "Browse and edit the film collection",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List one page of the collection",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number, starting at 1",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "size",
						Usage: "Films per page: 5, 10, 20 or 50 (default: ui.page_size)",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Title order, asc or desc",
						Value: "asc",
					},
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Only films whose title matches",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.FilmsList,
			},
			{
				Name:  "all",
				Usage: "Print the whole collection",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "unseen",
						Usage: "Only films not seen yet",
					},
				},
				Action: r.FilmsAll,
			},
			{
				Name:   "add",
				Usage:  "Add a film by hand",
				Flags:  filmFlags(true),
				Action: r.FilmsAdd,
			},
			{
				Name:   "edit",
				Usage:  "Change the fields of a film you own",
				Flags:  append([]cli.Flag{idFlag()}, filmFlags(false)...),
				Action: r.FilmsEdit,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Remove a film",
				Flags: []cli.Flag{
					idFlag(),
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Do not ask for confirmation",
					},
				},
				Action: r.FilmsDelete,
			},
			{
				Name:  "seen",
				Usage: "Mark a film seen, or to watch with --unset",
				Flags: []cli.Flag{
					idFlag(),
					&cli.BoolFlag{
						Name:  "unset",
						Usage: "Mark the film to watch instead",
					},
				},
				Action: r.FilmsSeen,
			},
		},
	}
}

// lookupCommand queries the external film database
func lookupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lookup",
		Usage: "Look a film up in the external database",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "title",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "year",
				Aliases: []string{"y"},
				Usage:   "Narrow the lookup to a release year",
			},
			&cli.BoolFlag{
				Name:  "add",
				Usage: "Add the film to the collection when found",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Lookup,
	}
}

// historyCommand shows or clears past lookups
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent external lookups",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of lookups to show",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "Delete the lookup history of the profile",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// randomCommand draws an unseen film
func randomCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "random",
		Usage: "Pick a random film you have not seen yet",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "mark-seen",
				Usage: "Mark the drawn film as seen",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Random,
	}
}

// exportCommand writes the collection to disk
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the collection, or one search over it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "json, csv, markdown or text",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Output file, or directory for markdown",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "search",
				Aliases: []string{"s"},
				Usage:   "Only export films whose title matches",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Title order, asc or desc",
				Value: "asc",
			},
			&cli.IntFlag{
				Name:  "size",
				Usage: "Films per request",
				Value: 50,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent page requests (max 10)",
				Value: 4,
			},
			&cli.BoolFlag{
				Name:  "posters",
				Usage: "Download posters next to a markdown export",
			},
		},
		Action: r.Export,
	}
}

// tuiCommand returns the top-level TUI command for interactive collection management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive collection browser",
		Action:  r.TUI,
	}
}
