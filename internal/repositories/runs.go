package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
)

// SyncRun is one recorded target sync, one row in sync_runs.
type SyncRun struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	PlaylistID string    `json:"playlist_id"`
	Location   string    `json:"location"`
	Format     string    `json:"format"`
	State      string    `json:"state"`
	Downloaded int       `json:"downloaded"`
	Kept       int       `json:"kept"`
	Removed    int       `json:"removed"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// FromResult converts an engine result into a history row.
func FromResult(runID string, result *models.TargetResult, startedAt, finishedAt time.Time) SyncRun {
	run := SyncRun{
		ID:         shared.GenerateID(),
		RunID:      runID,
		PlaylistID: result.Target.PlaylistID,
		Location:   result.Target.Location,
		Format:     string(result.Target.Format),
		State:      result.State.String(),
		Downloaded: len(result.Downloaded),
		Kept:       len(result.Kept),
		Removed:    len(result.Removed),
		Failed:     len(result.Failed),
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
	if result.Err != nil {
		run.Error = result.Err.Error()
	}
	return run
}

// RunRepository persists and queries sync run history.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a RunRepository backed by the given database.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Record inserts a sync run row. A missing row id is generated.
func (r *RunRepository) Record(run SyncRun) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}

	query := `
		INSERT INTO sync_runs (id, run_id, playlist_id, location, format, state, downloaded, kept, removed, failed, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		run.ID, run.RunID, run.PlaylistID, run.Location, run.Format, run.State,
		run.Downloaded, run.Kept, run.Removed, run.Failed, run.Error,
		run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}

// Recent returns the most recent sync runs, newest first.
func (r *RunRepository) Recent(limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, run_id, playlist_id, location, format, state, downloaded, kept, removed, failed, error, started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC, id
		LIMIT ?
	`
	return r.query(query, limit)
}

// ForPlaylist returns the most recent sync runs of one playlist, newest first.
func (r *RunRepository) ForPlaylist(playlistID string, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, run_id, playlist_id, location, format, state, downloaded, kept, removed, failed, error, started_at, finished_at
		FROM sync_runs
		WHERE playlist_id = ?
		ORDER BY started_at DESC, id
		LIMIT ?
	`
	return r.query(query, playlistID, limit)
}

func (r *RunRepository) query(query string, args ...any) ([]SyncRun, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []SyncRun
	for rows.Next() {
		var run SyncRun
		if err := rows.Scan(
			&run.ID, &run.RunID, &run.PlaylistID, &run.Location, &run.Format, &run.State,
			&run.Downloaded, &run.Kept, &run.Removed, &run.Failed, &run.Error,
			&run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync runs: %w", err)
	}
	return runs, nil
}
