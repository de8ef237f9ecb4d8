package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	ytdlp := services.NewYTDLP("", false, logger)

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Lister:  ytdlp,
		Fetcher: ytdlp,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "ytsync",
		Usage:    "Sync YouTube playlists to your local storage",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			logger.Error(err.Error())
			os.Exit(exitErr.ExitCode())
		}
		logger.Fatalf("application error: %v", err)
	}
}
