package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
	"golang.org/x/time/rate"
)

// downloadJob is one Download plan entry queued onto the worker pool.
type downloadJob struct {
	entry models.PlanEntry
	step  int
}

// downloadOutcome is the per-item execution result.
type downloadOutcome struct {
	entry models.PlanEntry
	step  int
	path  string
	err   error
}

// executeDownloads runs the plan's Download entries against the fetcher with
// a bounded worker pool and a shared rate limiter.
//
// Downloads land in a hidden staging directory under the target location and
// are renamed into place only when complete, so a crash mid-download never
// leaves a truncated file under a final name. Failures are isolated per item;
// the returned map holds one outcome per Download id.
func (e *Engine) executeDownloads(ctx context.Context, target models.SyncTarget, entries []models.PlanEntry, progress chan<- ProgressUpdate) (map[string]downloadOutcome, error) {
	var downloads []models.PlanEntry
	for _, entry := range entries {
		if entry.Action == models.ActionDownload {
			downloads = append(downloads, entry)
		}
	}
	outcomes := make(map[string]downloadOutcome, len(downloads))
	if len(downloads) == 0 {
		return outcomes, nil
	}

	staging, err := os.MkdirTemp(target.Location, ".staging-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	limiter := rate.NewLimiter(rate.Limit(e.opts.RateLimit), 1)

	workers := e.opts.DownloadWorkers
	if workers > len(downloads) {
		workers = len(downloads)
	}

	jobs := make(chan downloadJob, len(downloads))
	results := make(chan downloadOutcome, len(downloads))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go e.downloadWorker(ctx, &wg, target, staging, limiter, jobs, results)
	}

	for i, entry := range downloads {
		jobs <- downloadJob{entry: entry, step: i + 1}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for outcome := range results {
		outcomes[outcome.entry.Item.ID] = outcome
		if outcome.err != nil {
			e.sendProgress(progress, downloadFailedUpdate(target, outcome.step, len(downloads), outcome.entry.Item, outcome.err))
		} else {
			e.sendProgress(progress, downloadUpdate(target, outcome.step, len(downloads), outcome.entry.Item))
		}
	}

	return outcomes, nil
}

// downloadWorker consumes jobs until the queue closes. Once the context is
// canceled it stops issuing fetches and marks the remaining jobs canceled.
func (e *Engine) downloadWorker(ctx context.Context, wg *sync.WaitGroup, target models.SyncTarget, staging string, limiter *rate.Limiter, jobs <-chan downloadJob, results chan<- downloadOutcome) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- downloadOutcome{entry: job.entry, step: job.step, err: ctx.Err()}
			continue
		default:
		}

		results <- e.downloadOne(ctx, target, staging, job, limiter)
	}
}

// downloadOne fetches a single item with bounded retries and finalizes it
// atomically under its canonical name.
func (e *Engine) downloadOne(ctx context.Context, target models.SyncTarget, staging string, job downloadJob, limiter *rate.Limiter) downloadOutcome {
	outcome := downloadOutcome{entry: job.entry, step: job.step}
	item := job.entry.Item

	var lastErr error
	for attempt := 0; attempt <= e.opts.Retries; attempt++ {
		if attempt > 0 {
			e.logger.Debug("retrying download", "id", item.ID, "attempt", attempt)
			select {
			case <-ctx.Done():
				outcome.err = ctx.Err()
				return outcome
			case <-time.After(e.opts.RetryBackoff):
			}
		}

		if err := limiter.Wait(ctx); err != nil {
			outcome.err = err
			return outcome
		}

		produced, err := e.fetcher.Fetch(ctx, item, target.Format, staging)
		if err != nil {
			lastErr = err
			if !services.Retryable(err) {
				break
			}
			continue
		}

		// A format correction replaces an artifact under the same id. The
		// stale file goes first: a crash in between re-downloads the item on
		// the next run, whereas the reverse order would leave the id twice.
		if old := job.entry.Artifact; old != nil {
			if err := os.Remove(old.Path); err != nil && !os.IsNotExist(err) {
				outcome.err = fmt.Errorf("failed to replace %s: %w", old.Path, err)
				return outcome
			}
		}

		final := filepath.Join(target.Location, ArtifactFilename(item, target.Format))
		if err := os.Rename(produced, final); err != nil {
			outcome.err = fmt.Errorf("failed to finalize %s: %w", item.ID, err)
			return outcome
		}

		outcome.path = final
		return outcome
	}

	outcome.err = fmt.Errorf("%w: %s: %v", shared.ErrFetchFailed, item.ID, lastErr)
	return outcome
}

// executeRemovals deletes the plan's Remove entries from disk.
// Removal failures are recorded per item, never target-fatal.
func (e *Engine) executeRemovals(target models.SyncTarget, entries []models.PlanEntry, result *models.TargetResult, progress chan<- ProgressUpdate) {
	for _, entry := range entries {
		if entry.Action != models.ActionRemove || entry.Artifact == nil {
			continue
		}
		e.sendProgress(progress, removeUpdate(target, entry.Item.ID))
		if err := os.Remove(entry.Artifact.Path); err != nil && !os.IsNotExist(err) {
			result.Failed[entry.Item.ID] = fmt.Errorf("failed to remove orphan: %w", err)
			continue
		}
		result.Removed = append(result.Removed, entry.Item.ID)
	}
}
