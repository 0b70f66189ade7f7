package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/cliptune/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the starter configuration file and initializes the queue
// database so a fresh install can run `cliptune watch` immediately after
// filling in credentials.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file already exists", "path", configPath)
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}
	config.ApplyEnv()

	r.logger.Info("initializing queue database", "path", config.Database.Path)
	_, db, err := r.openStore(config)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	r.writePlain("✓ cliptune is set up\n")
	r.writePlain("Config: %s\n", configPath)
	r.writePlain("Queue database: %s\n", config.Database.Path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Add Spotify credentials and an LLM provider to %s\n", configPath)
	r.writePlain("2. Install yt-dlp (https://github.com/yt-dlp/yt-dlp)\n")
	r.writePlain("3. Run 'cliptune watch' and copy a song name or link\n")

	return nil
}
