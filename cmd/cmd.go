// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/songx/internal/services"
	"github.com/urfave/cli/v3"
)

func providerFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "provider",
		Aliases: []string{"p"},
		Usage:   "Provider to query (netease, node)",
		Value:   services.NetEaseName,
	}
}

func outputFlags(prettyDefault bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: prettyDefault,
		},
	}
}

// searchCommand searches one provider, optionally falling back to others
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search for songs by keyword",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "keyword"},
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Provider to search (netease, node, aggregator, aggregator:<platform>)",
				Value:   services.NetEaseName,
			},
			&cli.StringFlag{
				Name:  "platform",
				Usage: "Aggregator platform, used with --provider aggregator",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results",
				Value:   services.DefaultLimit,
			},
			&cli.StringFlag{
				Name:  "fallback",
				Usage: "Comma separated providers tried in order when the first returns nothing",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Plain output format (text, csv, markdown)",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save every result to the library with its lyrics and metadata",
			},
		}, outputFlags(false)...),
		Action: r.Search,
	}
}

// commentsCommand prints hot comments for a song
func commentsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "comments",
		Usage: "Show hot comments for a song",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  append([]cli.Flag{providerFlag()}, outputFlags(false)...),
		Action: r.Comments,
	}
}

// lyricsCommand prints or writes lyrics for a song
func lyricsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lyrics",
		Usage: "Show lyrics for a song",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			providerFlag(),
			&cli.BoolFlag{
				Name:  "strip",
				Usage: "Remove LRC timestamps",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the lyrics into this directory instead of printing them",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "File format with --output (txt, lrc, json)",
				Value:   "lrc",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Song name used in the file name with --output",
			},
		},
		Action: r.Lyrics,
	}
}

// extraCommand prints playback metadata for a song
func extraCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "extra",
		Usage: "Show title, artist, cover and audio URL for a song",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: append([]cli.Flag{
			providerFlag(),
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the audio URL in the browser",
			},
			&cli.StringFlag{
				Name:  "cover",
				Usage: "Download the cover image to this path",
			},
		}, outputFlags(false)...),
		Action: r.Extra,
	}
}

// libraryCommand manages saved songs
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Manage the local song library",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved songs",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Only songs saved from this provider",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Only songs whose name contains this text",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of songs, 0 for all",
					},
				}, outputFlags(false)...),
				Action: r.LibraryList,
			},
			{
				Name:  "save",
				Usage: "Search and save one result with its lyrics and metadata",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "keyword"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "provider",
						Aliases: []string{"p"},
						Usage:   "Provider to search (netease, node, aggregator, aggregator:<platform>)",
						Value:   services.NetEaseName,
					},
					&cli.IntFlag{
						Name:  "index",
						Usage: "1-based position of the result to save",
						Value: 1,
					},
				},
				Action: r.LibrarySave,
			},
			{
				Name:  "remove",
				Usage: "Remove a saved song",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.LibraryRemove,
			},
			{
				Name:  "export",
				Usage: "Export saved songs to CSV, Markdown or text",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Output file path",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, text)",
						Value:   "markdown",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title for Markdown",
						Value: "songx library",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Only songs saved from this provider",
					},
				},
				Action: r.LibraryExport,
			},
		},
	}
}

// exportCommand handles batch exports
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Batch export operations",
		Commands: []*cli.Command{
			{
				Name:  "lyrics",
				Usage: "Fetch and write lyrics for many songs with a rate limited worker pool",
				Flags: []cli.Flag{
					providerFlag(),
					&cli.StringFlag{
						Name:  "ids",
						Usage: "Comma separated song IDs",
					},
					&cli.BoolFlag{
						Name:  "library",
						Usage: "Export every library song saved from --provider",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Lyrics file format (txt, lrc, json)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: lyrics_export_{timestamp})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers (max 10)",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Lyrics requests per second",
					},
				},
				Action: r.ExportLyrics,
			},
		},
	}
}

// serveCommand runs the JSON gateway
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the providers as a read-only JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port from config)",
			},
			&cli.BoolFlag{
				Name:  "no-library",
				Usage: "Do not open the library database",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the default configuration file",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:    "netease",
				Aliases: []string{"163"},
				Usage:   "Import NetEase request headers and cookies from a browser cURL command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
				},
				Action: r.SetupNetEase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive searching.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for searching and saving songs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results per search",
				Value:   services.DefaultLimit,
			},
		},
		Action: r.TUI,
	}
}
