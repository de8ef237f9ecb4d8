package main

import (
	"context"

	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded example configuration to the given path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("created config", "path", path)
	r.writePlain("Created config at %s, edit it and add your playlists.\n", path)
	return nil
}

// SetupDatabase opens the configured history database and applies migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
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

	r.logger.Info("database ready", "path", config.Database.Path)
	r.writePlain("History database ready at %s\n", config.Database.Path)
	return nil
}
