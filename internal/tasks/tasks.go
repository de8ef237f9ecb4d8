// package tasks implements the playlist sync engine.
//
// The core abstraction is SyncEngine, which walks each target through the
// Listing → Scanning → Reconciling → Executing → Manifest state machine and
// aggregates per-target results into a run report. Operations emit progress
// updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
	"golang.org/x/sync/errgroup"
)

// TargetPlan is the reconciler's output for one target, before execution.
type TargetPlan struct {
	Target  models.SyncTarget
	Remote  []models.RemoteItem
	Entries []models.PlanEntry
}

// SyncEngine defines operations for mirroring remote playlists to local
// directories.
type SyncEngine interface {
	// Plan lists, scans, and reconciles a target without mutating anything.
	Plan(ctx context.Context, target models.SyncTarget) (*TargetPlan, error)

	// Sync converges one target. Target-fatal conditions are captured on the
	// result, never returned; one target's failure must not disturb others.
	Sync(ctx context.Context, target models.SyncTarget, progress chan<- ProgressUpdate) *models.TargetResult

	// SyncAll converges every target with bounded concurrency and aggregates
	// the results. It fails outright only when no targets are configured.
	SyncAll(ctx context.Context, targets []models.SyncTarget, progress chan<- ProgressUpdate) (*models.RunReport, error)
}

// EngineOpts tunes the engine. Zero values fall back to defaults.
type EngineOpts struct {
	TargetWorkers   int           // concurrent targets
	DownloadWorkers int           // concurrent downloads within one target
	RateLimit       float64       // fetches per second per target
	Retries         int           // additional attempts per failed item
	RetryBackoff    time.Duration // wait between attempts of one item
	KeepMismatched  bool          // retain stale-format artifacts
}

// Engine implements SyncEngine on top of the listing and fetching
// collaborators.
type Engine struct {
	lister  services.PlaylistLister
	fetcher services.MediaFetcher
	logger  *log.Logger
	opts    EngineOpts
}

// NewEngine creates an Engine with the provided collaborators.
func NewEngine(lister services.PlaylistLister, fetcher services.MediaFetcher, logger *log.Logger, opts EngineOpts) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if opts.TargetWorkers <= 0 {
		opts.TargetWorkers = 2
	}
	if opts.DownloadWorkers <= 0 {
		opts.DownloadWorkers = 3
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 5 * time.Second
	}
	return &Engine{lister: lister, fetcher: fetcher, logger: logger, opts: opts}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Plan produces the reconciliation plan for a target without touching the
// filesystem beyond a read-only scan. A missing location counts as empty.
func (e *Engine) Plan(ctx context.Context, target models.SyncTarget) (*TargetPlan, error) {
	if !target.Format.Valid() {
		return nil, fmt.Errorf("%w: format %q", shared.ErrInvalidConfig, target.Format)
	}

	remote, err := e.lister.ListPlaylist(ctx, target.PlaylistID)
	if err != nil {
		return nil, err
	}

	local, err := Snapshot(target.Location)
	if err != nil {
		return nil, err
	}

	entries, err := BuildPlan(remote, local, target, PlanOptions{KeepMismatched: e.opts.KeepMismatched})
	if err != nil {
		return nil, err
	}

	return &TargetPlan{Target: target, Remote: remote, Entries: entries}, nil
}

// Sync converges one target to its remote playlist.
func (e *Engine) Sync(ctx context.Context, target models.SyncTarget, progress chan<- ProgressUpdate) *models.TargetResult {
	logger := shared.WithLogger(e.logger, "playlist", target.PlaylistID, "location", target.Location)
	result := &models.TargetResult{
		Target: target,
		State:  models.PhaseInit,
		Failed: make(map[string]error),
	}
	fail := func(err error) *models.TargetResult {
		result.State = models.PhaseFailed
		result.Err = err
		logger.Error("sync failed", "state", result.State, "error", err)
		e.sendProgress(progress, failedUpdate(target, err))
		return result
	}

	if err := e.validateTarget(target); err != nil {
		return fail(err)
	}

	result.State = models.PhaseListing
	e.sendProgress(progress, listingUpdate(target))
	remote, err := e.lister.ListPlaylist(ctx, target.PlaylistID)
	if err != nil {
		return fail(err)
	}

	result.State = models.PhaseScanning
	e.sendProgress(progress, scanningUpdate(target, len(remote)))
	local, err := Snapshot(target.Location)
	if err != nil {
		return fail(err)
	}

	result.State = models.PhaseReconciling
	entries, err := BuildPlan(remote, local, target, PlanOptions{KeepMismatched: e.opts.KeepMismatched})
	if err != nil {
		return fail(err)
	}
	var downloads, keeps, removes int
	for _, entry := range entries {
		switch entry.Action {
		case models.ActionDownload:
			downloads++
		case models.ActionKeep:
			keeps++
		case models.ActionRemove:
			removes++
		}
	}
	e.sendProgress(progress, planUpdate(target, downloads, keeps, removes))
	logger.Info("plan built", "download", downloads, "keep", keeps, "remove", removes)

	result.State = models.PhaseExecuting
	outcomes, err := e.executeDownloads(ctx, target, entries, progress)
	if err != nil {
		return fail(err)
	}
	e.executeRemovals(target, entries, result, progress)

	if ctx.Err() != nil {
		return fail(ctx.Err())
	}

	// Every download has resolved; the converged ordered set is now stable.
	var present []string
	for _, entry := range entries {
		switch entry.Action {
		case models.ActionKeep:
			result.Kept = append(result.Kept, entry.Item.ID)
			present = append(present, entry.Artifact.Path)
		case models.ActionDownload:
			outcome, ok := outcomes[entry.Item.ID]
			if !ok {
				continue
			}
			if outcome.err != nil {
				result.Failed[entry.Item.ID] = outcome.err
				continue
			}
			result.Downloaded = append(result.Downloaded, entry.Item.ID)
			present = append(present, outcome.path)
		}
	}

	if target.SavePlaylist {
		result.State = models.PhaseManifest
		path, err := WriteManifest(target, present)
		if err != nil {
			return fail(err)
		}
		result.ManifestPath = path
		e.sendProgress(progress, manifestUpdate(target, path))
	}

	result.State = models.PhaseDone
	logger.Info("sync complete",
		"downloaded", len(result.Downloaded),
		"kept", len(result.Kept),
		"removed", len(result.Removed),
		"failed", len(result.Failed))
	e.sendProgress(progress, doneUpdate(result))
	return result
}

// SyncAll converges every target, a bounded number at a time. Targets are
// independent units of work; a failed target is reported, not propagated.
func (e *Engine) SyncAll(ctx context.Context, targets []models.SyncTarget, progress chan<- ProgressUpdate) (*models.RunReport, error) {
	if len(targets) == 0 {
		return nil, shared.ErrNoTargets
	}

	report := &models.RunReport{
		RunID:   shared.GenerateID(),
		Results: make([]*models.TargetResult, len(targets)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.TargetWorkers)
	for i, target := range targets {
		g.Go(func() error {
			report.Results[i] = e.Sync(gctx, target, progress)
			return nil
		})
	}
	g.Wait()

	return report, nil
}

// validateTarget checks a target before any remote I/O: the format must be
// supported and the location must exist and be writable.
func (e *Engine) validateTarget(target models.SyncTarget) error {
	if !target.Format.Valid() {
		return fmt.Errorf("%w: format %q", shared.ErrInvalidConfig, target.Format)
	}
	if err := os.MkdirAll(target.Location, 0755); err != nil {
		return fmt.Errorf("%w: cannot create %s: %v", shared.ErrInvalidConfig, target.Location, err)
	}
	probe, err := os.CreateTemp(target.Location, ".probe-")
	if err != nil {
		return fmt.Errorf("%w: %s is not writable: %v", shared.ErrInvalidConfig, target.Location, err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}
