// package formatter renders sync plans and run reports for terminal output and JSON consumers
package formatter

import (
	"fmt"
	"io"
	"sort"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
)

// RenderPlan writes a human-readable reconciliation plan, one line per entry
// in plan order.
func RenderPlan(w io.Writer, plan *tasks.TargetPlan) error {
	if _, err := fmt.Fprintf(w, "Plan for %s → %s (%s)\n", plan.Target.PlaylistID, plan.Target.Location, plan.Target.Format); err != nil {
		return fmt.Errorf("failed to write plan header: %w", err)
	}

	if len(plan.Entries) == 0 {
		_, err := fmt.Fprintln(w, "  nothing to do")
		return err
	}

	for _, entry := range plan.Entries {
		title := entry.Item.Title
		if title == "" && entry.Artifact != nil {
			title = entry.Artifact.Path
		}
		if _, err := fmt.Fprintf(w, "  %-8s %s  %s (%s)\n", entry.Action, entry.Item.ID, title, entry.Reason); err != nil {
			return fmt.Errorf("failed to write plan entry: %w", err)
		}
	}
	return nil
}

// RenderReport writes the per-target and per-item summary for a completed run.
func RenderReport(w io.Writer, report *models.RunReport) error {
	for _, result := range report.Results {
		var err error
		if result.Err != nil {
			_, err = fmt.Fprintf(w, "✗ %s → %s: %s (%v)\n",
				result.Target.PlaylistID, result.Target.Location, result.State, result.Err)
		} else {
			_, err = fmt.Fprintf(w, "%s %s → %s: %d downloaded, %d kept, %d removed, %d failed\n",
				statusMark(result), result.Target.PlaylistID, result.Target.Location,
				len(result.Downloaded), len(result.Kept), len(result.Removed), len(result.Failed))
		}
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		if result.ManifestPath != "" {
			if _, err := fmt.Fprintf(w, "  manifest: %s\n", result.ManifestPath); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
		}

		for _, id := range sortedFailureIDs(result.Failed) {
			if _, err := fmt.Fprintf(w, "  failed %s: %v\n", id, result.Failed[id]); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
		}
	}
	return nil
}

// targetJSON is the JSON shape of one target result.
type targetJSON struct {
	PlaylistID   string            `json:"playlist_id"`
	Location     string            `json:"location"`
	Format       string            `json:"format"`
	State        string            `json:"state"`
	Downloaded   []string          `json:"downloaded"`
	Kept         []string          `json:"kept"`
	Removed      []string          `json:"removed"`
	Failed       map[string]string `json:"failed,omitempty"`
	ManifestPath string            `json:"manifest_path,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// reportJSON is the JSON shape of a run report.
type reportJSON struct {
	RunID   string       `json:"run_id"`
	Failed  bool         `json:"failed"`
	Targets []targetJSON `json:"targets"`
}

// MarshalReport converts a run report to JSON bytes.
func MarshalReport(report *models.RunReport, pretty bool) ([]byte, error) {
	out := reportJSON{
		RunID:   report.RunID,
		Failed:  report.Failed(),
		Targets: make([]targetJSON, 0, len(report.Results)),
	}
	for _, result := range report.Results {
		target := targetJSON{
			PlaylistID:   result.Target.PlaylistID,
			Location:     result.Target.Location,
			Format:       string(result.Target.Format),
			State:        result.State.String(),
			Downloaded:   result.Downloaded,
			Kept:         result.Kept,
			Removed:      result.Removed,
			ManifestPath: result.ManifestPath,
		}
		if len(result.Failed) > 0 {
			target.Failed = make(map[string]string, len(result.Failed))
			for id, err := range result.Failed {
				target.Failed[id] = err.Error()
			}
		}
		if result.Err != nil {
			target.Error = result.Err.Error()
		}
		out.Targets = append(out.Targets, target)
	}
	return shared.MarshalJSON(out, pretty)
}

func statusMark(result *models.TargetResult) string {
	if result.Succeeded() {
		return "✓"
	}
	return "✗"
}

func sortedFailureIDs(failed map[string]error) []string {
	ids := make([]string, 0, len(failed))
	for id := range failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
