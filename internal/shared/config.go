package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/ytsync/internal/models"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Sync     SyncConfig     `toml:"sync"`
	Database DatabaseConfig `toml:"database"`
	Targets  []TargetConfig `toml:"targets"`
}

// SyncConfig contains engine tuning knobs shared by all targets.
type SyncConfig struct {
	TargetWorkers         int     `toml:"target_workers"`
	DownloadWorkers       int     `toml:"download_workers"`
	RateLimit             float64 `toml:"rate_limit"`
	Retries               int     `toml:"retries"`
	RetryBackoffSeconds   int     `toml:"retry_backoff_seconds"`
	KeepMismatchedFormats bool    `toml:"keep_mismatched_formats"`
}

// RetryBackoff returns the configured backoff as a [time.Duration].
func (s SyncConfig) RetryBackoff() time.Duration {
	return time.Duration(s.RetryBackoffSeconds) * time.Second
}

// DatabaseConfig contains sync history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// TargetConfig is one playlist-to-directory mapping as written in the config file.
type TargetConfig struct {
	PlaylistID   string `toml:"playlist_id"`
	Location     string `toml:"location"`
	Format       string `toml:"format"`
	SavePlaylist bool   `toml:"save_playlist"`
}

// Target converts the entry into a [models.SyncTarget]. Validation happens
// in the engine, per target, so one bad entry never blocks the others.
func (t TargetConfig) Target() models.SyncTarget {
	return models.SyncTarget{
		PlaylistID:   t.PlaylistID,
		Location:     t.Location,
		Format:       models.Format(strings.ToLower(strings.TrimSpace(t.Format))),
		SavePlaylist: t.SavePlaylist,
	}
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
	config.applyDefaults()

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.Targets = nil
	config.applyDefaults()
	return &config
}

// CreateConfigFile creates a config file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Sync.TargetWorkers <= 0 {
		c.Sync.TargetWorkers = 2
	}
	if c.Sync.DownloadWorkers <= 0 {
		c.Sync.DownloadWorkers = 3
	}
	if c.Sync.RateLimit <= 0 {
		c.Sync.RateLimit = 1.0
	}
	if c.Sync.Retries < 0 {
		c.Sync.Retries = 0
	}
	if c.Sync.RetryBackoffSeconds <= 0 {
		c.Sync.RetryBackoffSeconds = 5
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 5
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 2
	}
}
