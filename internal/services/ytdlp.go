package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
)

const (
	playlistURLFormat = "https://www.youtube.com/playlist?list=%s"
	videoURLFormat    = "https://www.youtube.com/watch?v=%s"

	// yt-dlp exits 100 after a successful self-update; the download itself
	// still completed.
	selfUpdateExitCode = 100
)

// permanentFailures are stderr fragments that mark an item as gone for good;
// retrying these wastes quota.
var permanentFailures = []string{
	"Video unavailable",
	"Private video",
	"This video has been removed",
	"account associated with this video has been terminated",
}

// YTDLP implements [PlaylistLister] and [MediaFetcher] by shelling out to the
// yt-dlp binary.
type YTDLP struct {
	binary  string
	verbose bool
	logger  *log.Logger
}

// NewYTDLP creates a yt-dlp backed service. An empty binary defaults to
// "yt-dlp" resolved from PATH.
func NewYTDLP(binary string, verbose bool, logger *log.Logger) *YTDLP {
	if binary == "" {
		binary = "yt-dlp"
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &YTDLP{binary: binary, verbose: verbose, logger: logger}
}

// Name returns the name of the backing service.
func (y *YTDLP) Name() string { return "yt-dlp" }

// flatEntry is one line of `yt-dlp -j --flat-playlist` output.
type flatEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListPlaylist fetches the playlist's entries with a flat-playlist listing,
// one JSON object per stdout line, in remote order.
func (y *YTDLP) ListPlaylist(ctx context.Context, playlistID string) ([]models.RemoteItem, error) {
	url := fmt.Sprintf(playlistURLFormat, playlistID)
	cmd := exec.CommandContext(ctx, y.binary, "-j", "--flat-playlist", url)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	y.logger.Debug("listing playlist", "playlist", playlistID)
	if err := cmd.Run(); err != nil {
		if strings.Contains(stderr.String(), "does not exist") {
			return nil, fmt.Errorf("%w: %s", shared.ErrRemoteNotFound, playlistID)
		}
		return nil, fmt.Errorf("%w: %s: %v: %s", shared.ErrRemoteUnavailable, playlistID, err, firstLine(stderr.String()))
	}

	var items []models.RemoteItem
	scanner := bufio.NewScanner(&stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry flatEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("%w: malformed listing entry: %v", shared.ErrRemoteUnavailable, err)
		}
		items = append(items, models.RemoteItem{
			ID:       entry.ID,
			Title:    entry.Title,
			Position: len(items),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading listing output: %v", shared.ErrRemoteUnavailable, err)
	}

	y.logger.Debug("listed playlist", "playlist", playlistID, "items", len(items))
	return items, nil
}

// Fetch downloads one item into destDir and returns the path of the produced
// file. Audio targets are extracted to opus; video targets are merged into an
// mkv container. Thumbnail and metadata are embedded in both cases.
func (y *YTDLP) Fetch(ctx context.Context, item models.RemoteItem, format models.Format, destDir string) (string, error) {
	url := fmt.Sprintf(videoURLFormat, item.ID)
	args := []string{
		"-P", destDir,
		"-q",
		"-o", "%(title)s [%(id)s].%(ext)s",
		"--embed-thumbnail",
		"--embed-metadata",
		url,
	}
	if format == models.FormatAudio {
		args = append(args, "-x", "--audio-format", "opus")
	} else {
		args = append(args, "-f", "bestvideo+bestaudio", "--merge-output-format", "mkv")
	}
	if y.verbose {
		args = append(args, "-v")
	}

	cmd := exec.CommandContext(ctx, y.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == selfUpdateExitCode {
			// fall through, download succeeded
		} else {
			return "", &FetchError{Retryable: retryableStderr(stderr.String()), Err: fmt.Errorf("yt-dlp %s: %v: %s", item.ID, err, firstLine(stderr.String()))}
		}
	}

	path, err := y.findOutput(destDir, item.ID)
	if err != nil {
		return "", &FetchError{Retryable: false, Err: err}
	}
	return path, nil
}

// findOutput locates the file yt-dlp produced for the given item id.
func (y *YTDLP) findOutput(destDir, id string) (string, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", fmt.Errorf("reading download dir: %w", err)
	}
	marker := "[" + id + "]"
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.Contains(entry.Name(), marker) {
			return filepath.Join(destDir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("yt-dlp reported success but produced no file for %s", id)
}

func retryableStderr(stderr string) bool {
	for _, fragment := range permanentFailures {
		if strings.Contains(stderr, fragment) {
			return false
		}
	}
	return true
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
