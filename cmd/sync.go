package main

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/formatter"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Sync converges every resolved target and prints the run report.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	config := r.resolveConfig(cmd)
	targets := r.resolveTargets(config, cmd)
	if len(targets) == 0 {
		return shared.ErrNoTargets
	}

	engine := r.newEngine(config)
	r.logger.Info("starting sync", "targets", len(targets))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		for update := range progressCh {
			switch update.Phase {
			case models.PhaseListing, models.PhaseScanning, models.PhaseReconciling:
				r.writePlain("[%s] %s\n", update.Target, update.Message)
			case models.PhaseExecuting:
				r.writePlain("[%s] %s\n", update.Target, update.Message)
			case models.PhaseFailed:
				r.writePlain("[%s] ✗ %s\n", update.Target, update.Message)
			}
		}
	}()

	startedAt := time.Now()
	report, err := engine.SyncAll(ctx, targets, progressCh)
	close(progressCh)
	<-rendered
	if err != nil {
		return err
	}

	r.recordHistory(config, report, startedAt, time.Now())

	if cmd.Bool("json") {
		data, err := formatter.MarshalReport(report, cmd.Bool("pretty"))
		if err != nil {
			return err
		}
		if err := r.writeJSON(data); err != nil {
			return err
		}
	} else {
		r.writePlain("\n")
		r.writePlainHeader("Sync Report")
		if err := formatter.RenderReport(r.output, report); err != nil {
			return err
		}
	}

	if report.Failed() {
		return cli.Exit("sync finished with failures", 1)
	}
	return nil
}

// Plan prints the reconciliation plan for every resolved target without
// mutating anything.
func (r *Runner) Plan(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	config := r.resolveConfig(cmd)
	targets := r.resolveTargets(config, cmd)
	if len(targets) == 0 {
		return shared.ErrNoTargets
	}

	engine := r.newEngine(config)

	failed := false
	for _, target := range targets {
		plan, err := engine.Plan(ctx, target)
		if err != nil {
			failed = true
			r.writePlain("✗ %s: %v\n", target.PlaylistID, err)
			continue
		}
		if err := formatter.RenderPlan(r.output, plan); err != nil {
			return err
		}
	}

	if failed {
		return cli.Exit("plan finished with failures", 1)
	}
	return nil
}
