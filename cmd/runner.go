package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cliptune/internal/agent"
	"github.com/desertthunder/cliptune/internal/download"
	"github.com/desertthunder/cliptune/internal/llm"
	"github.com/desertthunder/cliptune/internal/queue"
	"github.com/desertthunder/cliptune/internal/resolve"
	"github.com/desertthunder/cliptune/internal/search"
	"github.com/desertthunder/cliptune/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, watchCommand, resolveCommand, queueCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the runner's logger, e.g. to a file logger while a TUI
// owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// reloadConfig re-reads configuration when a command passed --config,
// falling back to the config loaded at startup.
func (r *Runner) reloadConfig(cmd *cli.Command) *shared.Config {
	path := cmd.String("config")
	if path == "" {
		return r.config
	}
	if _, err := os.Stat(path); err != nil {
		return r.config
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		return r.config
	}
	config.ApplyEnv()
	r.config = config
	return config
}

// openStore opens the queue database and bootstraps the schema. The caller
// owns the returned handle.
func (r *Runner) openStore(config *shared.Config) (*queue.Store, *sql.DB, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	store, err := queue.NewStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

// pipeline bundles the resolution and download components a command needs
// to work queue items.
type pipeline struct {
	search      *search.Client
	resolver    *resolve.Resolver
	coordinator *agent.Coordinator
	downloader  *download.Downloader
}

// buildPipeline wires the resolver, confirmation loop, and downloader from
// config. The LLM provider is selected here, once, and held for the life
// of the process.
func (r *Runner) buildPipeline(ctx context.Context, config *shared.Config) (*pipeline, error) {
	client, err := llm.New(config.LLM)
	if err != nil {
		return nil, err
	}
	r.logger.Info("language model provider selected", "provider", client.Name(), "model", config.LLM.Model)

	searchClient := search.NewClient(config.Search, r.logger.WithPrefix("search"))
	spotify := resolve.NewSpotifyClient(ctx, config.Credentials.Spotify, r.logger.WithPrefix("spotify"))
	resolver := resolve.NewResolver(spotify, searchClient, r.logger.WithPrefix("resolve"))

	generator := agent.NewGenerator(client, r.logger.WithPrefix("agent"))
	analyzer := agent.NewAnalyzer(client, r.logger.WithPrefix("agent"))
	coordinator := agent.NewCoordinator(generator, analyzer, searchClient, config.Agent, r.logger.WithPrefix("agent"))

	downloader := download.NewDownloader(config.Search.Binary, config.Download, r.logger.WithPrefix("download"))

	return &pipeline{
		search:      searchClient,
		resolver:    resolver,
		coordinator: coordinator,
		downloader:  downloader,
	}, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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
