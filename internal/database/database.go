package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database is the synchronization journal.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New opens the journal at dbPath, creating it if needed. The parent
// directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Journal path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Journal permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close journal after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close journal after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	logging.Info("Journal initialized successfully at %s", dbPath)
	return d, nil
}

// Path returns the journal file path.
func (d *Database) Path() string {
	return d.dbPath
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sync_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trigger_source TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		folders_inspected INTEGER NOT NULL DEFAULT 0,
		folders_created INTEGER NOT NULL DEFAULT 0,
		folders_deleted INTEGER NOT NULL DEFAULT 0,
		assets_created INTEGER NOT NULL DEFAULT 0,
		assets_updated INTEGER NOT NULL DEFAULT 0,
		assets_deleted INTEGER NOT NULL DEFAULT 0,
		events INTEGER NOT NULL DEFAULT 0,
		committed INTEGER NOT NULL DEFAULT 0,
		errors TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	return d.runMigrations(ctx)
}

// runMigrations applies schema changes to journals created by older builds.
func (d *Database) runMigrations(ctx context.Context) error {
	// Migration 1: backup action column
	var columnExists bool
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('sync_runs')
		WHERE name='backup_action'
	`).Scan(&columnExists)
	if err != nil {
		return fmt.Errorf("failed to check for backup_action column: %w", err)
	}

	if !columnExists {
		logging.Info("Migrating journal: adding backup_action column to sync_runs table")
		if _, err := d.db.ExecContext(ctx, `
			ALTER TABLE sync_runs ADD COLUMN backup_action TEXT NOT NULL DEFAULT ''
		`); err != nil {
			return fmt.Errorf("failed to add backup_action column: %w", err)
		}
	}

	return nil
}

// Close closes the journal.
func (d *Database) Close() error {
	return d.db.Close()
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// diagnoseDatabasePermissions checks journal directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat journal directory: %w", err)
	}
	logging.Debug("Journal directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("journal directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		logging.Debug("Journal file exists: %s (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("Journal file %s is read-only! Mode: %v", path, info.Mode())
			if chmodErr := os.Chmod(path, 0o600); chmodErr != nil {
				logging.Error("Failed to fix journal file permissions: %v", chmodErr)
			} else {
				logging.Info("Fixed journal file permissions")
			}
		}
	}

	return nil
}
