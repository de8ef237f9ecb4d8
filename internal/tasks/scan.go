package tasks

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
)

// Snapshot enumerates the managed artifacts in a target directory, in
// directory listing order. It is taken once per sync pass; reconciliation
// never re-scans mid-plan.
//
// Subdirectories, dotfiles (including staging directories), and files whose
// id cannot be extracted are unmanaged: excluded from the snapshot, never
// matched, never deleted. A missing directory yields an empty snapshot.
func Snapshot(dir string) ([]models.LocalArtifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	var artifacts []models.LocalArtifact
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		artifact, err := ArtifactFromFilename(dir, entry.Name())
		if err != nil {
			if errors.Is(err, shared.ErrIdentity) {
				continue
			}
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}
