package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
)

// flakyFetcher fails a scripted number of times per item before succeeding.
type flakyFetcher struct {
	mu       sync.Mutex
	failures map[string]int // remaining failures per id
	err      error          // error returned while failures remain
	calls    map[string]int
}

func (f *flakyFetcher) Fetch(ctx context.Context, item models.RemoteItem, format models.Format, destDir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[item.ID]++
	if f.failures[item.ID] > 0 {
		f.failures[item.ID]--
		return "", f.err
	}
	path := filepath.Join(destDir, ArtifactFilename(item, format))
	if err := os.WriteFile(path, []byte(item.ID), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *flakyFetcher) Name() string { return "flaky" }

func fastOpts() EngineOpts {
	return EngineOpts{
		TargetWorkers:   1,
		DownloadWorkers: 1,
		RateLimit:       1000,
		Retries:         0,
		RetryBackoff:    time.Millisecond,
	}
}

func downloadEntries(items ...models.RemoteItem) []models.PlanEntry {
	entries := make([]models.PlanEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, models.PlanEntry{Item: item, Action: models.ActionDownload, Reason: "missing locally"})
	}
	return entries
}

func TestExecuteDownloads(t *testing.T) {
	t.Run("finalizes downloads under canonical names", func(t *testing.T) {
		location := t.TempDir()
		target := models.SyncTarget{PlaylistID: "PL1", Location: location, Format: models.FormatAudio}
		fetcher := &flakyFetcher{}
		engine := NewEngine(nil, fetcher, nil, fastOpts())

		item := models.RemoteItem{ID: "abc", Title: "Song"}
		outcomes, err := engine.executeDownloads(context.Background(), target, downloadEntries(item), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		outcome := outcomes["abc"]
		if outcome.err != nil {
			t.Fatalf("unexpected outcome error: %v", outcome.err)
		}
		want := filepath.Join(location, "Song [abc].opus")
		if outcome.path != want {
			t.Errorf("expected %q, got %q", want, outcome.path)
		}
		if _, err := os.Stat(want); err != nil {
			t.Errorf("expected finalized file: %v", err)
		}
	})

	t.Run("cleans up staging", func(t *testing.T) {
		location := t.TempDir()
		target := models.SyncTarget{PlaylistID: "PL1", Location: location, Format: models.FormatAudio}
		engine := NewEngine(nil, &flakyFetcher{}, nil, fastOpts())

		if _, err := engine.executeDownloads(context.Background(), target, downloadEntries(models.RemoteItem{ID: "a", Title: "A"}), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		entries, err := os.ReadDir(location)
		if err != nil {
			t.Fatalf("failed to read location: %v", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				t.Errorf("expected staging to be removed, found %q", entry.Name())
			}
		}
	})

	t.Run("failed download leaves no file under a final name", func(t *testing.T) {
		location := t.TempDir()
		target := models.SyncTarget{PlaylistID: "PL1", Location: location, Format: models.FormatAudio}
		fetcher := &flakyFetcher{
			failures: map[string]int{"bad": 10},
			err:      &services.FetchError{Retryable: false, Err: errors.New("video unavailable")},
		}
		engine := NewEngine(nil, fetcher, nil, fastOpts())

		outcomes, err := engine.executeDownloads(context.Background(), target, downloadEntries(models.RemoteItem{ID: "bad", Title: "Gone"}), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !errors.Is(outcomes["bad"].err, shared.ErrFetchFailed) {
			t.Errorf("expected ErrFetchFailed, got %v", outcomes["bad"].err)
		}

		entries, err := os.ReadDir(location)
		if err != nil {
			t.Fatalf("failed to read location: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected empty location, found %v", entries)
		}
	})

	t.Run("retries transient failures up to the limit", func(t *testing.T) {
		location := t.TempDir()
		target := models.SyncTarget{PlaylistID: "PL1", Location: location, Format: models.FormatAudio}
		fetcher := &flakyFetcher{
			failures: map[string]int{"a": 2},
			err:      &services.FetchError{Retryable: true, Err: errors.New("timeout")},
		}
		opts := fastOpts()
		opts.Retries = 2
		engine := NewEngine(nil, fetcher, nil, opts)

		outcomes, err := engine.executeDownloads(context.Background(), target, downloadEntries(models.RemoteItem{ID: "a", Title: "A"}), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcomes["a"].err != nil {
			t.Fatalf("expected success after retries, got %v", outcomes["a"].err)
		}
		if fetcher.calls["a"] != 3 {
			t.Errorf("expected 3 attempts, got %d", fetcher.calls["a"])
		}
	})

	t.Run("exhausted retries fail the item", func(t *testing.T) {
		location := t.TempDir()
		target := models.SyncTarget{PlaylistID: "PL1", Location: location, Format: models.FormatAudio}
		fetcher := &flakyFetcher{
			failures: map[string]int{"a": 10},
			err:      &services.FetchError{Retryable: true, Err: errors.New("timeout")},
		}
		opts := fastOpts()
		opts.Retries = 1
		engine := NewEngine(nil, fetcher, nil, opts)

		outcomes, err := engine.executeDownloads(context.Background(), target, downloadEntries(models.RemoteItem{ID: "a", Title: "A"}), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !errors.Is(outcomes["a"].err, shared.ErrFetchFailed) {
			t.Errorf("expected ErrFetchFailed, got %v", outcomes["a"].err)
		}
		if fetcher.calls["a"] != 2 {
			t.Errorf("expected 2 attempts, got %d", fetcher.calls["a"])
		}
	})

	t.Run("non-retryable failure short-circuits", func(t *testing.T) {
		location := t.TempDir()
		target := models.SyncTarget{PlaylistID: "PL1", Location: location, Format: models.FormatAudio}
		fetcher := &flakyFetcher{
			failures: map[string]int{"a": 10},
			err:      &services.FetchError{Retryable: false, Err: errors.New("private video")},
		}
		opts := fastOpts()
		opts.Retries = 5
		engine := NewEngine(nil, fetcher, nil, opts)

		if _, err := engine.executeDownloads(context.Background(), target, downloadEntries(models.RemoteItem{ID: "a", Title: "A"}), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fetcher.calls["a"] != 1 {
			t.Errorf("expected a single attempt, got %d", fetcher.calls["a"])
		}
	})

	t.Run("one failure does not block other items", func(t *testing.T) {
		location := t.TempDir()
		target := models.SyncTarget{PlaylistID: "PL1", Location: location, Format: models.FormatAudio}
		fetcher := &flakyFetcher{
			failures: map[string]int{"bad": 10},
			err:      &services.FetchError{Retryable: false, Err: errors.New("gone")},
		}
		engine := NewEngine(nil, fetcher, nil, fastOpts())

		outcomes, err := engine.executeDownloads(context.Background(), target, downloadEntries(
			models.RemoteItem{ID: "good1", Title: "G1"},
			models.RemoteItem{ID: "bad", Title: "B"},
			models.RemoteItem{ID: "good2", Title: "G2"},
		), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcomes["good1"].err != nil || outcomes["good2"].err != nil {
			t.Errorf("expected good items to succeed: %v, %v", outcomes["good1"].err, outcomes["good2"].err)
		}
		if outcomes["bad"].err == nil {
			t.Error("expected bad item to fail")
		}
	})

	t.Run("format correction replaces the stale artifact", func(t *testing.T) {
		location := t.TempDir()
		target := models.SyncTarget{PlaylistID: "PL1", Location: location, Format: models.FormatAudio}
		stale := filepath.Join(location, "Song [abc].mkv")
		if err := os.WriteFile(stale, []byte("video"), 0644); err != nil {
			t.Fatalf("failed to seed stale artifact: %v", err)
		}
		engine := NewEngine(nil, &flakyFetcher{}, nil, fastOpts())

		entries := []models.PlanEntry{{
			Item:     models.RemoteItem{ID: "abc", Title: "Song"},
			Action:   models.ActionDownload,
			Reason:   "format mismatch",
			Artifact: &models.LocalArtifact{ID: "abc", Path: stale, Format: models.FormatVideo},
		}}
		outcomes, err := engine.executeDownloads(context.Background(), target, entries, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcomes["abc"].err != nil {
			t.Fatalf("unexpected outcome error: %v", outcomes["abc"].err)
		}
		if _, err := os.Stat(stale); !os.IsNotExist(err) {
			t.Error("expected stale artifact to be removed")
		}
		if _, err := os.Stat(filepath.Join(location, "Song [abc].opus")); err != nil {
			t.Errorf("expected replacement artifact: %v", err)
		}
	})

	t.Run("canceled context marks remaining jobs", func(t *testing.T) {
		location := t.TempDir()
		target := models.SyncTarget{PlaylistID: "PL1", Location: location, Format: models.FormatAudio}
		engine := NewEngine(nil, &flakyFetcher{}, nil, fastOpts())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		outcomes, err := engine.executeDownloads(ctx, target, downloadEntries(
			models.RemoteItem{ID: "a", Title: "A"},
			models.RemoteItem{ID: "b", Title: "B"},
		), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for id, outcome := range outcomes {
			if !errors.Is(outcome.err, context.Canceled) {
				t.Errorf("expected canceled outcome for %s, got %v", id, outcome.err)
			}
		}
	})
}

func TestExecuteRemovals(t *testing.T) {
	t.Run("removes orphan artifacts", func(t *testing.T) {
		location := t.TempDir()
		target := models.SyncTarget{PlaylistID: "PL1", Location: location, Format: models.FormatAudio}
		orphan := filepath.Join(location, "Old [old].opus")
		if err := os.WriteFile(orphan, []byte("x"), 0644); err != nil {
			t.Fatalf("failed to seed orphan: %v", err)
		}
		engine := NewEngine(nil, &flakyFetcher{}, nil, fastOpts())

		result := &models.TargetResult{Target: target, Failed: make(map[string]error)}
		entries := []models.PlanEntry{{
			Item:     models.RemoteItem{ID: "old", Position: -1},
			Action:   models.ActionRemove,
			Reason:   "orphan",
			Artifact: &models.LocalArtifact{ID: "old", Path: orphan, Format: models.FormatAudio},
		}}
		engine.executeRemovals(target, entries, result, nil)

		if _, err := os.Stat(orphan); !os.IsNotExist(err) {
			t.Error("expected orphan to be removed")
		}
		if len(result.Removed) != 1 || result.Removed[0] != "old" {
			t.Errorf("expected removed=[old], got %v", result.Removed)
		}
	})

	t.Run("already gone counts as removed", func(t *testing.T) {
		location := t.TempDir()
		target := models.SyncTarget{PlaylistID: "PL1", Location: location, Format: models.FormatAudio}
		engine := NewEngine(nil, &flakyFetcher{}, nil, fastOpts())

		result := &models.TargetResult{Target: target, Failed: make(map[string]error)}
		entries := []models.PlanEntry{{
			Item:     models.RemoteItem{ID: "ghost", Position: -1},
			Action:   models.ActionRemove,
			Artifact: &models.LocalArtifact{ID: "ghost", Path: filepath.Join(location, "Ghost [ghost].opus")},
		}}
		engine.executeRemovals(target, entries, result, nil)

		if len(result.Removed) != 1 {
			t.Errorf("expected removed=[ghost], got %v", result.Removed)
		}
		if len(result.Failed) != 0 {
			t.Errorf("expected no failures, got %v", result.Failed)
		}
	})
}
