package tasks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/ytsync/internal/models"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
}

func TestSnapshot(t *testing.T) {
	t.Run("missing directory is empty", func(t *testing.T) {
		artifacts, err := Snapshot(filepath.Join(t.TempDir(), "nope"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(artifacts) != 0 {
			t.Errorf("expected empty snapshot, got %d artifacts", len(artifacts))
		}
	})

	t.Run("collects managed files only", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "Song A [aaa].opus")
		touch(t, dir, "Song B [bbb].mkv")
		touch(t, dir, "cover.jpg")
		touch(t, dir, "notes.txt")
		touch(t, dir, "no-id.opus")
		touch(t, dir, ".staging-123")
		if err := os.Mkdir(filepath.Join(dir, "subdir [sub].opus"), 0755); err != nil {
			t.Fatalf("failed to create subdir: %v", err)
		}

		artifacts, err := Snapshot(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(artifacts) != 2 {
			t.Fatalf("expected 2 artifacts, got %d: %v", len(artifacts), artifacts)
		}
		if artifacts[0].ID != "aaa" || artifacts[0].Format != models.FormatAudio {
			t.Errorf("unexpected first artifact %+v", artifacts[0])
		}
		if artifacts[1].ID != "bbb" || artifacts[1].Format != models.FormatVideo {
			t.Errorf("unexpected second artifact %+v", artifacts[1])
		}
	})

	t.Run("paths point into the scanned directory", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "Song [abc].opus")

		artifacts, err := Snapshot(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := filepath.Join(dir, "Song [abc].opus")
		if artifacts[0].Path != want {
			t.Errorf("expected path %q, got %q", want, artifacts[0].Path)
		}
	})
}
