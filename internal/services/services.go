// package services defines the sync engine's external collaborators
//
// Remote playlist listing and per-item media fetching (yt-dlp)
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/ytsync/internal/models"
)

// PlaylistLister produces the ordered remote snapshot for a playlist.
type PlaylistLister interface {
	// ListPlaylist returns the playlist entries in remote order.
	// Fails with [shared.ErrRemoteNotFound] when the playlist does not exist
	// and [shared.ErrRemoteUnavailable] for every other listing failure.
	ListPlaylist(ctx context.Context, playlistID string) ([]models.RemoteItem, error)

	// Name returns the name of the backing service (e.g. "yt-dlp")
	Name() string
}

// MediaFetcher downloads a single item.
type MediaFetcher interface {
	// Fetch downloads item into destDir in the given format and returns the
	// path of the produced file. Failures are reported as a [*FetchError]
	// carrying whether the attempt may be retried.
	Fetch(ctx context.Context, item models.RemoteItem, format models.Format, destDir string) (string, error)

	// Name returns the name of the backing service (e.g. "yt-dlp")
	Name() string
}

// FetchError is the typed failure at the fetcher boundary.
// Retryable signals a transient condition (network, rate limiting); the
// executor gives up immediately on non-retryable failures such as removed or
// private videos.
type FetchError struct {
	Retryable bool
	Err       error
}

func (e *FetchError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("fetch failed (retryable): %v", e.Err)
	}
	return fmt.Sprintf("fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether err is a fetch failure that may be retried.
func Retryable(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return false
}
