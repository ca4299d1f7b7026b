// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/pinmap/internal/formatter"
	"github.com/urfave/cli/v3"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func formatFlag(value string) cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Export format: json, csv, markdown, txt or geojson",
		Value:   value,
		Validator: func(s string) error {
			return formatter.ValidateFormat(s)
		},
	}
}

// setupCommand handles setup operations for the database, config file and credentials.
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
				Usage: "Write the default configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "credential",
				Usage: "Store an API key in the database (openai, gemini or places)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "provider"},
					&cli.StringArg{Name: "key"},
				},
				Action: r.SetupCredential,
			},
			{
				Name:   "status",
				Usage:  "Show which credentials are configured",
				Action: r.SetupStatus,
			},
		},
	}
}

// askCommand interprets a question with the language model and resolves the answer.
func askCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "ask",
		Usage: "Ask a question and place the answers on the map",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "question"},
		},
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Ask,
	}
}

// extractCommand pulls places out of free text.
func extractCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Extract places mentioned in text and place them on the map",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "text"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Read the text from a file (- for stdin)",
			},
			jsonFlag(),
		},
		Action: r.Extract,
	}
}

// searchCommand resolves one or more place descriptions directly.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search places by name and place them on the map",
		ArgsUsage: "<description> [description...]",
		Flags:     []cli.Flag{jsonFlag()},
		Action:    r.Search,
	}
}

// markersCommand manages the live marker collection.
func markersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "markers",
		Aliases: []string{"m"},
		Usage:   "Manage the markers on the map",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List markers",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.MarkersList,
			},
			{
				Name:  "add-point",
				Usage: "Drop a marker at coordinates, named after the nearest address",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "latlng"},
				},
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "lat", Usage: "Latitude"},
					&cli.FloatFlag{Name: "lng", Usage: "Longitude"},
				},
				Action: r.MarkersAddPoint,
			},
			{
				Name:  "remove",
				Usage: "Remove a marker by id",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.MarkersRemove,
			},
			{
				Name:  "clear",
				Usage: "Remove every marker",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Do not ask for confirmation",
					},
				},
				Action: r.MarkersClear,
			},
			{
				Name:  "open",
				Usage: "Open a marker in Google Maps",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.MarkersOpen,
			},
			{
				Name:  "export",
				Usage: "Export the markers",
				Flags: []cli.Flag{
					formatFlag("geojson"),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (- for stdout)",
						Value:   "-",
					},
				},
				Action: r.MarkersExport,
			},
		},
	}
}

// listsCommand manages saved lists.
func listsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lists",
		Usage: "Save, load and export named lists of markers",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List saved lists",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ListsList,
			},
			{
				Name:  "save",
				Usage: "Save the current markers under a name",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.ListsSave,
			},
			{
				Name:  "load",
				Usage: "Replace the current markers with a saved list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.ListsLoad,
			},
			{
				Name:  "delete",
				Usage: "Delete a saved list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.ListsDelete,
			},
			{
				Name:  "export",
				Usage: "Export one saved list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					formatFlag("json"),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: <name>.<ext>)",
					},
				},
				Action: r.ListsExport,
			},
			{
				Name:  "export-all",
				Usage: "Export every saved list concurrently",
				Flags: []cli.Flag{
					formatFlag("json"),
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Output directory (default: pinmap_export_<epoch>)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers (max 10)",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "photos",
						Usage: "Download the first marker's photo for markdown exports",
					},
				},
				Action: r.ListsExportAll,
			},
		},
	}
}

// viewportCommand prints the viewport framing the markers.
func viewportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "viewport",
		Usage:  "Show the map centre and zoom that frame every marker",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Viewport,
	}
}

// cacheCommand manages the place lookup cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the place lookup cache",
		Commands: []*cli.Command{
			{
				Name:   "purge",
				Usage:  "Delete expired cache entries",
				Action: r.CachePurge,
			},
		},
	}
}

// serveCommand runs the HTTP API and web page.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the map page and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default from config)"},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for the interactive map surface.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal map surface",
		Action:  r.TUI,
	}
}
