// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
)

// MockLister is a test double for [services.PlaylistLister].
type MockLister struct {
	Playlists map[string][]models.RemoteItem
	Err       error
	Calls     int
}

func (m *MockLister) ListPlaylist(ctx context.Context, playlistID string) ([]models.RemoteItem, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if items, ok := m.Playlists[playlistID]; ok {
		return items, nil
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrRemoteNotFound, playlistID)
}

func (m *MockLister) Name() string { return "mock" }

// MockFetcher is a test double for [services.MediaFetcher]. It writes a small
// file into destDir using the same naming scheme as the real fetcher.
type MockFetcher struct {
	Errs  map[string]error // per-item scripted failures
	Calls []string         // item ids in fetch order
}

func (m *MockFetcher) Fetch(ctx context.Context, item models.RemoteItem, format models.Format, destDir string) (string, error) {
	m.Calls = append(m.Calls, item.ID)
	if err, ok := m.Errs[item.ID]; ok && err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s [%s].%s", shared.SanitizeFilename(item.Title), item.ID, format.Ext())
	path := filepath.Join(destDir, name)
	if err := os.WriteFile(path, []byte(item.ID), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (m *MockFetcher) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
