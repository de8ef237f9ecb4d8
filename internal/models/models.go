package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the media format a target mirrors its playlist in.
type Format string

const (
	FormatAudio Format = "audio"
	FormatVideo Format = "video"
)

// Valid reports whether the format is one of the supported values.
func (f Format) Valid() bool {
	return f == FormatAudio || f == FormatVideo
}

// Ext returns the file extension produced by the fetcher for this format.
func (f Format) Ext() string {
	if f == FormatVideo {
		return "mkv"
	}
	return "opus"
}

// ParseFormat converts a configuration string into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatAudio:
		return FormatAudio, nil
	case FormatVideo:
		return FormatVideo, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected audio or video)", s)
	}
}

// Action is the reconciler's decision for a single item id.
type Action int

const (
	ActionDownload Action = iota
	ActionKeep
	ActionRemove
	ActionNoOp
)

func (a Action) String() string {
	switch a {
	case ActionDownload:
		return "download"
	case ActionKeep:
		return "keep"
	case ActionRemove:
		return "remove"
	case ActionNoOp:
		return "noop"
	default:
		return ""
	}
}

// RemoteItem is one entry of a remote playlist listing.
// Position is the 0-based order within the playlist.
type RemoteItem struct {
	ID       string
	Title    string
	Position int
}

// LocalArtifact is a managed media file present in a target directory.
// ID is extracted from the filename; files without an extractable id are
// unmanaged and never represented as artifacts.
type LocalArtifact struct {
	ID     string
	Path   string
	Format Format
}

// SyncTarget is one configured playlist-to-directory mapping.
type SyncTarget struct {
	PlaylistID   string
	Location     string
	Format       Format
	SavePlaylist bool
}

// ManifestPath returns where the target's m3u manifest lives: next to the
// target directory, named after it.
func (t SyncTarget) ManifestPath() string {
	loc := filepath.Clean(t.Location)
	return filepath.Join(filepath.Dir(loc), filepath.Base(loc)+".m3u")
}

// PlanEntry is one decided action for one item id within one sync run.
// For orphans (local-only items) Item carries the artifact's id with
// Position -1 and an empty title.
type PlanEntry struct {
	Item     RemoteItem
	Action   Action
	Reason   string
	Artifact *LocalArtifact // matched local file, nil for plain downloads
}

// Phase tracks the orchestrator's per-target state machine.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseListing
	PhaseScanning
	PhaseReconciling
	PhaseExecuting
	PhaseManifest
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseListing:
		return "listing"
	case PhaseScanning:
		return "scanning"
	case PhaseReconciling:
		return "reconciling"
	case PhaseExecuting:
		return "executing"
	case PhaseManifest:
		return "manifest"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return ""
	}
}

// TargetResult is the outcome of syncing a single target.
//
// Downloaded, Kept, and Removed hold item ids in plan order. Failed maps the
// ids of exhausted-retry downloads to their last error. Err is set only for
// target-fatal conditions and State records where the state machine stopped.
type TargetResult struct {
	Target       SyncTarget
	State        Phase
	Downloaded   []string
	Kept         []string
	Removed      []string
	Failed       map[string]error
	ManifestPath string
	Err          error
}

// Succeeded reports whether the target reached Done with no failed items.
func (r *TargetResult) Succeeded() bool {
	return r.State == PhaseDone && len(r.Failed) == 0 && r.Err == nil
}

// RunReport aggregates target results for one invocation.
type RunReport struct {
	RunID   string
	Results []*TargetResult
}

// Failed reports whether any target failed or had at least one failed item.
func (r *RunReport) Failed() bool {
	for _, res := range r.Results {
		if !res.Succeeded() {
			return true
		}
	}
	return false
}
