package cmd

import (
	"context"
	"fmt"
	"time"

	"media-catalog/internal/backup"
	"media-catalog/internal/database"
	"media-catalog/internal/fingerprint"
	"media-catalog/internal/frames"
	"media-catalog/internal/logging"
	"media-catalog/internal/media"
	"media-catalog/internal/memory"
	"media-catalog/internal/startup"
	"media-catalog/internal/storage"
	"media-catalog/internal/synchronizer"
)

// app holds the components shared by every command.
type app struct {
	cfg     *startup.Config
	store   *storage.Store
	journal *database.Database
	backups *backup.Manager
	monitor *memory.Monitor
	syncer  *synchronizer.Synchronizer
}

// openApp loads configuration and opens the catalog and journal. Each
// override is applied to the loaded configuration before use.
func openApp(ctx context.Context, opts *rootOptions, overrides ...func(*startup.Config)) (*app, error) {
	memory.ConfigureFromEnv()

	cfg, err := startup.LoadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	for _, o := range overrides {
		o(cfg)
	}

	algorithm, err := fingerprint.ParseAlgorithm(cfg.Hash.Algorithm())
	if err != nil {
		return nil, err
	}

	journalStart := time.Now()
	journal, err := database.New(ctx, cfg.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sync journal: %w", err)
	}
	startup.LogJournalInit(time.Since(journalStart))

	store, err := storage.Open(cfg.CatalogDir, nil)
	if err != nil {
		_ = journal.Close()
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	a := &app{
		cfg:     cfg,
		store:   store,
		journal: journal,
		monitor: memory.NewMonitor(memory.DefaultConfig()),
	}
	if cfg.BackupEnabled {
		a.backups = backup.New(cfg.CatalogDir, storage.TablesDirName, storage.BlobsDirName)
	}

	useVips := true
	if err := media.InitVips(); err != nil {
		logging.Warn("libvips unavailable, falling back to pure Go thumbnails: %v", err)
		useVips = false
	}

	deps := synchronizer.Dependencies{
		Store:        store,
		Backups:      a.backups,
		Fingerprints: fingerprint.New(algorithm),
		Thumbnails:   media.NewThumbnailGenerator(useVips),
		Memory:       a.monitor,
	}
	analyse := startup.LogFramesInit(cfg.AnalyseVideos, cfg.FFmpegPath)
	if analyse {
		deps.Frames = frames.New(cfg.FFmpegPath)
	}

	a.syncer = synchronizer.New(deps, syncOptions(cfg, analyse))
	a.monitor.Start()
	return a, nil
}

// syncOptions maps configuration onto synchronizer options.
func syncOptions(cfg *startup.Config, analyseVideos bool) synchronizer.Options {
	return synchronizer.Options{
		Roots:              cfg.AssetDirs,
		BatchSize:          cfg.BatchSize,
		ThumbnailMaxWidth:  cfg.ThumbnailMaxWidth,
		ThumbnailMaxHeight: cfg.ThumbnailMaxHeight,
		AnalyseVideos:      analyseVideos,
		FirstFrameDir:      cfg.FirstFrameDir,
	}
}

func (a *app) close() {
	a.monitor.Stop()
	media.ShutdownVips()
	if err := a.journal.Close(); err != nil {
		logging.Warn("Failed to close sync journal: %v", err)
	}
}
