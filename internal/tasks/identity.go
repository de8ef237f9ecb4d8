package tasks

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
)

// Managed filenames follow the fetcher's output template:
//
//	<sanitized title> [<id>].<ext>
//
// Identity is id-based only. Titles change remotely (and get sanitized
// locally), so they are never used for matching.

// formatForExt maps a filename extension to the format it implies.
// Unknown extensions mark a file as unmanaged.
func formatForExt(ext string) (models.Format, bool) {
	switch strings.ToLower(ext) {
	case ".opus":
		return models.FormatAudio, true
	case ".mkv":
		return models.FormatVideo, true
	default:
		return "", false
	}
}

// ExtractID parses the trailing bracketed id out of a managed filename.
// IDs are trimmed of surrounding whitespace; no case folding is applied since
// YouTube ids are case-sensitive.
func ExtractID(filename string) (string, error) {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if !strings.HasSuffix(stem, "]") {
		return "", fmt.Errorf("%w: %q has no bracketed id", shared.ErrIdentity, filename)
	}
	open := strings.LastIndex(stem, "[")
	if open < 0 {
		return "", fmt.Errorf("%w: %q has no bracketed id", shared.ErrIdentity, filename)
	}
	id := strings.TrimSpace(stem[open+1 : len(stem)-1])
	if id == "" {
		return "", fmt.Errorf("%w: %q has an empty id", shared.ErrIdentity, filename)
	}
	return id, nil
}

// ArtifactFromFilename builds a [models.LocalArtifact] for a directory entry,
// or an [shared.ErrIdentity] error when the file is unmanaged.
func ArtifactFromFilename(dir, name string) (models.LocalArtifact, error) {
	format, ok := formatForExt(filepath.Ext(name))
	if !ok {
		return models.LocalArtifact{}, fmt.Errorf("%w: %q has an unmanaged extension", shared.ErrIdentity, name)
	}
	id, err := ExtractID(name)
	if err != nil {
		return models.LocalArtifact{}, err
	}
	return models.LocalArtifact{
		ID:     id,
		Path:   filepath.Join(dir, name),
		Format: format,
	}, nil
}

// ArtifactFilename is the canonical filename for an item in a format.
func ArtifactFilename(item models.RemoteItem, format models.Format) string {
	return fmt.Sprintf("%s [%s].%s", shared.SanitizeFilename(item.Title), item.ID, format.Ext())
}
