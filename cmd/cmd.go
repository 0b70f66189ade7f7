// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// configFlag is shared by every command that reads configuration.
func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand writes the starter config and bootstraps the queue database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the queue database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// watchCommand runs the clipboard watcher and queue worker until interrupted.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch the clipboard and download captured songs",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress progress output (logs only)",
			},
		},
		Action: r.Watch,
	}
}

// resolveCommand resolves a single reference without touching the queue.
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve a song name or URL to a download source",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "text",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "download",
				Usage: "Download confirmed results",
			},
		},
		Action: r.Resolve,
	}
}

// queueCommand groups queue inspection and maintenance.
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "queue",
		Aliases: []string{"q"},
		Usage:   "Inspect and manage the download queue",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show item counts per status",
				Flags:  []cli.Flag{configFlag()},
				Action: r.QueueStatus,
			},
			{
				Name:  "list",
				Usage: "List queue items",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status (pending, in_progress, completed, failed, skipped, exhausted)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of items to return",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.QueueList,
			},
			{
				Name:  "add",
				Usage: "Enqueue a song name or URL directly",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "text",
					},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.QueueAdd,
			},
			{
				Name:  "retry",
				Usage: "Requeue a finished item, or every failed and exhausted item",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Requeue all failed and exhausted items",
					},
				},
				Action: r.QueueRetry,
			},
			{
				Name:  "clear",
				Usage: "Delete finished items from the queue",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only delete items in this status",
					},
				},
				Action: r.QueueClear,
			},
			{
				Name:  "export",
				Usage: "Export queue history to CSV, Markdown, or plain text",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: csv, md, or txt",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: stdout)",
					},
				},
				Action: r.QueueExport,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for browsing the queue.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive queue browser",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}
