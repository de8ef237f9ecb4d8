package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/repositories"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	lister  services.PlaylistLister
	fetcher services.MediaFetcher
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Lister  services.PlaylistLister
	Fetcher services.MediaFetcher
	Logger  *log.Logger
	Output  io.Writer
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
		config:  opts.Config,
		lister:  opts.Lister,
		fetcher: opts.Fetcher,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, planCommand, setupCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// resolveConfig returns the config from the command's --config flag when the
// file exists, falling back to the config loaded at startup.
func (r *Runner) resolveConfig(cmd *cli.Command) *shared.Config {
	path := cmd.String("config")
	if path == "" {
		return r.config
	}
	if _, err := os.Stat(path); err != nil {
		return r.config
	}
	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("falling back to startup config", "path", path, "error", err)
		return r.config
	}
	return config
}

// resolveTargets returns either the single target described by CLI flags
// (when --playlist-id is set) or every configured target.
func (r *Runner) resolveTargets(config *shared.Config, cmd *cli.Command) []models.SyncTarget {
	if id := cmd.String("playlist-id"); id != "" {
		location := cmd.String("location")
		if location == "" {
			location, _ = os.Getwd()
		}
		return []models.SyncTarget{{
			PlaylistID:   id,
			Location:     location,
			Format:       models.Format(cmd.String("format")),
			SavePlaylist: cmd.Bool("save-playlist"),
		}}
	}

	targets := make([]models.SyncTarget, 0, len(config.Targets))
	for _, entry := range config.Targets {
		targets = append(targets, entry.Target())
	}
	return targets
}

// newEngine builds a sync engine from the resolved configuration.
func (r *Runner) newEngine(config *shared.Config) *tasks.Engine {
	return tasks.NewEngine(r.lister, r.fetcher, r.logger, tasks.EngineOpts{
		TargetWorkers:   config.Sync.TargetWorkers,
		DownloadWorkers: config.Sync.DownloadWorkers,
		RateLimit:       config.Sync.RateLimit,
		Retries:         config.Sync.Retries,
		RetryBackoff:    config.Sync.RetryBackoff(),
		KeepMismatched:  config.Sync.KeepMismatchedFormats,
	})
}

// recordHistory persists one history row per target result. History is best
// effort; a missing or broken database never fails the sync.
func (r *Runner) recordHistory(config *shared.Config, report *models.RunReport, startedAt, finishedAt time.Time) {
	if config.Database.Path == "" || report == nil {
		return
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		r.logger.Warn("skipping history", "error", err)
		return
	}
	defer db.Close()
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		r.logger.Warn("skipping history", "error", err)
		return
	}

	repo := repositories.NewRunRepository(db)
	for _, result := range report.Results {
		if err := repo.Record(repositories.FromResult(report.RunID, result, startedAt, finishedAt)); err != nil {
			r.logger.Warn("failed to record history row", "playlist", result.Target.PlaylistID, "error", err)
		}
	}
}

func (r *Runner) writeJSON(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
