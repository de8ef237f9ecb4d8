package tasks

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
)

// WriteManifest writes the target's ordered m3u manifest: one artifact path
// per line, newline-terminated, in remote playlist order. The manifest lives
// next to the target directory, named after it, and every write is a full
// rewrite through a temp file so a previous manifest never shows a half
// state.
//
// Manifests from runs where save_playlist was previously true are not cleaned
// up when the flag turns false; the tool only manages manifests it is asked
// to write.
func WriteManifest(target models.SyncTarget, paths []string) (string, error) {
	manifest := target.ManifestPath()

	tmp, err := os.CreateTemp(filepath.Dir(manifest), ".m3u-")
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrManifestWrite, err)
	}
	defer os.Remove(tmp.Name())

	for _, path := range paths {
		if _, err := fmt.Fprintln(tmp, path); err != nil {
			tmp.Close()
			return "", fmt.Errorf("%w: %v", shared.ErrManifestWrite, err)
		}
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrManifestWrite, err)
	}

	if err := os.Rename(tmp.Name(), manifest); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrManifestWrite, err)
	}
	return manifest, nil
}
