package database

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Run is one journal row.
type Run struct {
	ID               int64     `json:"id"`
	Trigger          string    `json:"trigger"`
	StartedAt        time.Time `json:"startedAt"`
	FinishedAt       time.Time `json:"finishedAt"`
	Outcome          string    `json:"outcome"`
	FoldersInspected int       `json:"foldersInspected"`
	FoldersCreated   int       `json:"foldersCreated"`
	FoldersDeleted   int       `json:"foldersDeleted"`
	AssetsCreated    int       `json:"assetsCreated"`
	AssetsUpdated    int       `json:"assetsUpdated"`
	AssetsDeleted    int       `json:"assetsDeleted"`
	Events           int       `json:"events"`
	Committed        bool      `json:"committed"`
	BackupAction     string    `json:"backupAction,omitempty"`
	Errors           []string  `json:"errors,omitempty"`
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

const errorSeparator = "\n"

// RecordRun appends a run and returns its ID.
func (d *Database) RecordRun(ctx context.Context, run Run) (id int64, err error) {
	start := time.Now()
	defer func() { recordQuery("record_run", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	committed := 0
	if run.Committed {
		committed = 1
	}

	result, err := d.db.ExecContext(ctx, `
		INSERT INTO sync_runs (trigger_source, started_at, finished_at, outcome,
			folders_inspected, folders_created, folders_deleted,
			assets_created, assets_updated, assets_deleted,
			events, committed, backup_action, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.Trigger, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), run.Outcome,
		run.FoldersInspected, run.FoldersCreated, run.FoldersDeleted,
		run.AssetsCreated, run.AssetsUpdated, run.AssetsDeleted,
		run.Events, committed, run.BackupAction, strings.Join(run.Errors, errorSeparator),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}
	return result.LastInsertId()
}

// LastRuns returns up to limit runs, most recent first.
func (d *Database) LastRuns(ctx context.Context, limit int) (runs []Run, err error) {
	start := time.Now()
	defer func() { recordQuery("last_runs", start, err) }()

	if limit <= 0 {
		limit = 20
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, trigger_source, started_at, finished_at, outcome,
			folders_inspected, folders_created, folders_deleted,
			assets_created, assets_updated, assets_deleted,
			events, committed, backup_action, errors
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r                 Run
			started, finished int64
			committed         int
			errs              string
		)
		if err := rows.Scan(&r.ID, &r.Trigger, &started, &finished, &r.Outcome,
			&r.FoldersInspected, &r.FoldersCreated, &r.FoldersDeleted,
			&r.AssetsCreated, &r.AssetsUpdated, &r.AssetsDeleted,
			&r.Events, &committed, &r.BackupAction, &errs); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		r.Committed = committed != 0
		if errs != "" {
			r.Errors = strings.Split(errs, errorSeparator)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// PruneRuns deletes runs that started before cutoff.
func (d *Database) PruneRuns(ctx context.Context, cutoff time.Time) (removed int64, err error) {
	start := time.Now()
	defer func() { recordQuery("prune_runs", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "DELETE FROM sync_runs WHERE started_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
