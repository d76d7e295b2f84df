package handlers

import (
	"context"

	"media-catalog/internal/backup"
	"media-catalog/internal/database"
	"media-catalog/internal/storage"
	"media-catalog/internal/synchronizer"
)

// SyncRunner is the part of synchronizer.Runner the handlers use.
type SyncRunner interface {
	IsReady() bool
	GetHealthStatus() synchronizer.HealthStatus
	TriggerRun(trigger synchronizer.Trigger) bool
}

// RunJournal reads recorded runs. *database.Database implements it.
type RunJournal interface {
	LastRuns(ctx context.Context, limit int) ([]database.Run, error)
}

// Handlers serves the HTTP API.
type Handlers struct {
	runner  SyncRunner
	store   *storage.Store
	journal RunJournal
	backups *backup.Manager
}

// New creates Handlers. journal and backups may be nil.
func New(runner SyncRunner, store *storage.Store, journal RunJournal, backups *backup.Manager) *Handlers {
	return &Handlers{
		runner:  runner,
		store:   store,
		journal: journal,
		backups: backups,
	}
}
