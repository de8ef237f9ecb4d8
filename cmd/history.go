package main

import (
	"context"

	"github.com/desertthunder/ytsync/internal/repositories"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// History prints recent sync runs from the history database.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)
	if config.Database.Path == "" {
		return shared.ErrInvalidConfig
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return err
	}

	repo := repositories.NewRunRepository(db)

	var runs []repositories.SyncRun
	if playlistID := cmd.String("playlist-id"); playlistID != "" {
		runs, err = repo.ForPlaylist(playlistID, int(cmd.Int("limit")))
	} else {
		runs, err = repo.Recent(int(cmd.Int("limit")))
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		data, err := shared.MarshalJSON(runs, true)
		if err != nil {
			return err
		}
		return r.writeJSON(data)
	}

	if len(runs) == 0 {
		return r.writePlain("No recorded sync runs.\n")
	}

	r.writePlainHeader("Sync History")
	for _, run := range runs {
		r.writePlain("%s  %s → %s [%s] %s: %d downloaded, %d kept, %d removed, %d failed\n",
			run.StartedAt.Format("2006-01-02 15:04"),
			run.PlaylistID, run.Location, run.Format, run.State,
			run.Downloaded, run.Kept, run.Removed, run.Failed)
		if run.Error != "" {
			r.writePlain("  error: %s\n", run.Error)
		}
	}
	return nil
}
