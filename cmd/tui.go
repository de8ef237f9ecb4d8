package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
	"github.com/desertthunder/ytsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI runs the sync with the interactive progress view.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	config := r.resolveConfig(cmd)
	targets := r.resolveTargets(config, cmd)
	if len(targets) == 0 {
		return shared.ErrNoTargets
	}

	engine := r.newEngine(config)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	progressCh := make(chan tasks.ProgressUpdate, 50)
	reportCh := make(chan *models.RunReport, 1)

	var report *models.RunReport
	go func() {
		startedAt := time.Now()
		result, err := engine.SyncAll(runCtx, targets, progressCh)
		close(progressCh)
		if err != nil {
			r.logger.Error("sync failed", "error", err)
			result = &models.RunReport{}
		}
		r.recordHistory(config, result, startedAt, time.Now())
		report = result
		reportCh <- result
	}()

	p := tea.NewProgram(ui.NewModel(cancel, progressCh, reportCh))
	if _, err := p.Run(); err != nil {
		return err
	}

	if report != nil && report.Failed() {
		return cli.Exit("sync finished with failures", 1)
	}
	return nil
}
