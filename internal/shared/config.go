package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Watch         WatchConfig         `toml:"watch"`
	LLM           LLMConfig           `toml:"llm"`
	Agent         AgentConfig         `toml:"agent"`
	Credentials   CredentialsConfig   `toml:"credentials"`
	Search        SearchConfig        `toml:"search"`
	Download      DownloadConfig      `toml:"download"`
	Queue         QueueConfig         `toml:"queue"`
	Database      DatabaseConfig      `toml:"database"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// WatchConfig contains clipboard watcher settings.
type WatchConfig struct {
	PollIntervalMS int `toml:"poll_interval_ms"`
}

// PollInterval returns the clipboard polling interval as a [time.Duration].
func (w WatchConfig) PollInterval() time.Duration {
	if w.PollIntervalMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(w.PollIntervalMS) * time.Millisecond
}

// LLMConfig contains language model provider settings.
type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	NumCtx         int    `toml:"num_ctx"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the per-call provider timeout as a [time.Duration].
func (l LLMConfig) Timeout() time.Duration {
	if l.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// AgentConfig contains resolution loop settings.
type AgentConfig struct {
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	MaxIterations       int     `toml:"max_iterations"`
	ResultsPerQuery     int     `toml:"results_per_query"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials for the client credentials flow.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// SearchConfig contains yt-dlp search settings.
type SearchConfig struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the per-search timeout as a [time.Duration].
func (s SearchConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// DownloadConfig contains audio download settings.
type DownloadConfig struct {
	Directory      string `toml:"directory"`
	AudioFormat    string `toml:"audio_format"`
	AudioQuality   string `toml:"audio_quality"`
	SpacingMS      int    `toml:"spacing_ms"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Spacing returns the minimum delay between download starts as a [time.Duration].
func (d DownloadConfig) Spacing() time.Duration {
	if d.SpacingMS <= 0 {
		return time.Second
	}
	return time.Duration(d.SpacingMS) * time.Millisecond
}

// Timeout returns the per-download timeout as a [time.Duration].
func (d DownloadConfig) Timeout() time.Duration {
	if d.TimeoutSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// MusicDir returns the configured download directory, falling back to
// ~/Music/cliptune when unset.
func (d DownloadConfig) MusicDir() string {
	if d.Directory != "" {
		return d.Directory
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "cliptune"
	}
	return filepath.Join(home, "Music", "cliptune")
}

// QueueConfig contains download queue behavior settings.
type QueueConfig struct {
	HistoryLimit int `toml:"history_limit"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// NotificationsConfig contains ntfy push notification settings.
type NotificationsConfig struct {
	ServerURL string `toml:"server_url"`
	Topic     string `toml:"topic"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overlays credentials from the environment onto the config. File
// values win so a checked-in config stays reproducible; env fills the gaps.
func (c *Config) ApplyEnv() {
	if c.Credentials.Spotify.ClientID == "" {
		c.Credentials.Spotify.ClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	}
	if c.Credentials.Spotify.ClientSecret == "" {
		c.Credentials.Spotify.ClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	}
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		case "anthropic":
			c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidInput)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
