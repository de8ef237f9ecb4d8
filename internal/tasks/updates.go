package tasks

import (
	"fmt"

	"github.com/desertthunder/ytsync/internal/models"
)

// ProgressUpdate represents a progress event during a sync pass.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Target  string       // Playlist id of the target being synced
	Phase   models.Phase // State machine phase
	Step    int          // Current step number within phase
	Total   int          // Total steps in this phase
	Message string       // Human-readable message for display
	Data    any          // Optional phase-specific data for advanced UIs
}

func listingUpdate(target models.SyncTarget) ProgressUpdate {
	return ProgressUpdate{
		Target:  target.PlaylistID,
		Phase:   models.PhaseListing,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Listing playlist %s...", target.PlaylistID),
	}
}

func scanningUpdate(target models.SyncTarget, remoteCount int) ProgressUpdate {
	return ProgressUpdate{
		Target:  target.PlaylistID,
		Phase:   models.PhaseScanning,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d remote items, scanning %s...", remoteCount, target.Location),
	}
}

func planUpdate(target models.SyncTarget, downloads, keeps, removes int) ProgressUpdate {
	return ProgressUpdate{
		Target:  target.PlaylistID,
		Phase:   models.PhaseReconciling,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Plan: %d to download, %d kept, %d to remove", downloads, keeps, removes),
	}
}

func downloadUpdate(target models.SyncTarget, step, total int, item models.RemoteItem) ProgressUpdate {
	return ProgressUpdate{
		Target:  target.PlaylistID,
		Phase:   models.PhaseExecuting,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, item.Title),
		Data:    item,
	}
}

func downloadFailedUpdate(target models.SyncTarget, step, total int, item models.RemoteItem, err error) ProgressUpdate {
	return ProgressUpdate{
		Target:  target.PlaylistID,
		Phase:   models.PhaseExecuting,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, item.Title, err),
	}
}

func removeUpdate(target models.SyncTarget, id string) ProgressUpdate {
	return ProgressUpdate{
		Target:  target.PlaylistID,
		Phase:   models.PhaseExecuting,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Removing orphan %s", id),
	}
}

func manifestUpdate(target models.SyncTarget, path string) ProgressUpdate {
	return ProgressUpdate{
		Target:  target.PlaylistID,
		Phase:   models.PhaseManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest %s", path),
	}
}

func doneUpdate(result *models.TargetResult) ProgressUpdate {
	return ProgressUpdate{
		Target: result.Target.PlaylistID,
		Phase:  models.PhaseDone,
		Step:   1,
		Total:  1,
		Message: fmt.Sprintf("Synced %s: %d downloaded, %d kept, %d removed, %d failed",
			result.Target.PlaylistID, len(result.Downloaded), len(result.Kept), len(result.Removed), len(result.Failed)),
		Data: result,
	}
}

func failedUpdate(target models.SyncTarget, err error) ProgressUpdate {
	return ProgressUpdate{
		Target:  target.PlaylistID,
		Phase:   models.PhaseFailed,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sync of %s failed: %v", target.PlaylistID, err),
	}
}
