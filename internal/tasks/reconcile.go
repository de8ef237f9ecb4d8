package tasks

import (
	"fmt"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
)

// PlanOptions configures reconciliation.
type PlanOptions struct {
	// KeepMismatched retains artifacts whose format differs from the target
	// instead of planning a re-download in the configured format.
	KeepMismatched bool
}

// BuildPlan diffs the remote snapshot against the local snapshot and decides
// one action per item id.
//
// The plan covers exactly the union of remote and local ids, each id once:
// remote items first in remote order, then local-only orphans in scan order.
// Every action is a pure function of (id in remote?, id in local?) plus
// options; BuildPlan never touches the filesystem.
func BuildPlan(remote []models.RemoteItem, local []models.LocalArtifact, target models.SyncTarget, opts PlanOptions) ([]models.PlanEntry, error) {
	seen := make(map[string]bool, len(remote))
	for _, item := range remote {
		if seen[item.ID] {
			return nil, fmt.Errorf("%w: %s appears twice in remote listing", shared.ErrDuplicateID, item.ID)
		}
		seen[item.ID] = true
	}

	byID := make(map[string]models.LocalArtifact, len(local))
	for _, artifact := range local {
		if _, ok := byID[artifact.ID]; ok {
			return nil, fmt.Errorf("%w: %s appears twice in local directory", shared.ErrDuplicateID, artifact.ID)
		}
		byID[artifact.ID] = artifact
	}

	entries := make([]models.PlanEntry, 0, len(remote)+len(local))
	consumed := make(map[string]bool, len(local))

	for _, item := range remote {
		artifact, present := byID[item.ID]
		switch {
		case !present:
			entries = append(entries, models.PlanEntry{
				Item:   item,
				Action: models.ActionDownload,
				Reason: "missing locally",
			})
		case artifact.Format == target.Format:
			consumed[item.ID] = true
			entries = append(entries, models.PlanEntry{
				Item:     item,
				Action:   models.ActionKeep,
				Reason:   "present",
				Artifact: &artifact,
			})
		case opts.KeepMismatched:
			consumed[item.ID] = true
			entries = append(entries, models.PlanEntry{
				Item:     item,
				Action:   models.ActionKeep,
				Reason:   "format mismatch retained",
				Artifact: &artifact,
			})
		default:
			consumed[item.ID] = true
			entries = append(entries, models.PlanEntry{
				Item:     item,
				Action:   models.ActionDownload,
				Reason:   "format mismatch",
				Artifact: &artifact,
			})
		}
	}

	// Orphans: the mirror contract is "match the remote playlist exactly",
	// so local-only ids are always pruned.
	for _, artifact := range local {
		if consumed[artifact.ID] || seen[artifact.ID] {
			continue
		}
		entries = append(entries, models.PlanEntry{
			Item:     models.RemoteItem{ID: artifact.ID, Position: -1},
			Action:   models.ActionRemove,
			Reason:   "orphan",
			Artifact: &artifact,
		})
	}

	return entries, nil
}
