package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/ytsync/internal/models"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "ytsync.db" {
			t.Errorf("expected database path ytsync.db, got %s", config.Database.Path)
		}
		if config.Sync.TargetWorkers != 2 {
			t.Errorf("expected 2 target workers, got %d", config.Sync.TargetWorkers)
		}
		if config.Sync.DownloadWorkers != 3 {
			t.Errorf("expected 3 download workers, got %d", config.Sync.DownloadWorkers)
		}
		if config.Sync.RateLimit != 1.0 {
			t.Errorf("expected rate limit 1.0, got %f", config.Sync.RateLimit)
		}
		if config.Sync.KeepMismatchedFormats {
			t.Error("expected mismatched formats to be re-downloaded by default")
		}
		if len(config.Targets) != 0 {
			t.Errorf("expected no default targets, got %d", len(config.Targets))
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Database.Path != DefaultConfig().Database.Path {
			t.Error("created config database path doesn't match default")
		}
		if len(config.Targets) != 2 {
			t.Errorf("expected 2 example targets, got %d", len(config.Targets))
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		content := `
[sync]
download_workers = 8
retries = 1

[database]
path = "/tmp/history.db"

[[targets]]
playlist_id = "PLabc"
location = "/music/mix"
format = "Audio"
save_playlist = true
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Sync.DownloadWorkers != 8 {
			t.Errorf("expected 8 download workers, got %d", config.Sync.DownloadWorkers)
		}
		if config.Sync.Retries != 1 {
			t.Errorf("expected 1 retry, got %d", config.Sync.Retries)
		}
		if config.Sync.TargetWorkers != 2 {
			t.Errorf("expected default target workers, got %d", config.Sync.TargetWorkers)
		}
		if config.Sync.RetryBackoff() != 5*time.Second {
			t.Errorf("expected default 5s backoff, got %s", config.Sync.RetryBackoff())
		}
		if config.Database.Path != "/tmp/history.db" {
			t.Errorf("expected /tmp/history.db, got %s", config.Database.Path)
		}

		if len(config.Targets) != 1 {
			t.Fatalf("expected 1 target, got %d", len(config.Targets))
		}
		target := config.Targets[0].Target()
		if target.PlaylistID != "PLabc" {
			t.Errorf("expected playlist PLabc, got %s", target.PlaylistID)
		}
		if target.Format != models.FormatAudio {
			t.Errorf("expected normalized audio format, got %q", target.Format)
		}
		if !target.SavePlaylist {
			t.Error("expected save_playlist to be set")
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("LoadConfig invalid toml", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")
		if err := os.WriteFile(configPath, []byte("not [valid toml"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("Target preserves invalid formats for the engine", func(t *testing.T) {
		entry := TargetConfig{PlaylistID: "PL1", Location: "/x", Format: " FLAC "}
		target := entry.Target()
		if target.Format != "flac" {
			t.Errorf("expected normalized flac, got %q", target.Format)
		}
		if target.Format.Valid() {
			t.Error("expected format to be invalid")
		}
	})
}
