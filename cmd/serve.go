package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"media-catalog/internal/handlers"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
	"media-catalog/internal/middleware"
	"media-catalog/internal/startup"
	"media-catalog/internal/synchronizer"
	"media-catalog/internal/watcher"
)

const (
	shutdownTimeout    = 30 * time.Second
	collectorInterval  = time.Minute
	journalRetention   = 90 * 24 * time.Hour
	journalPrunePeriod = 24 * time.Hour
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog API and keep the catalog synchronized",
		Long: `Starts the HTTP API, runs an initial synchronization, then resynchronizes
every SYNC_INTERVAL and, with WATCH_ENABLED, whenever an asset directory changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	startTime := time.Now()
	startup.PrintBanner()
	metrics.InitializeMetrics()

	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	startup.LogSynchronizerInit(cfg.SyncInterval, cfg.BatchSize, cfg.WatchEnabled)
	runner := synchronizer.NewRunner(a.syncer, a.journal, cfg.SyncInterval)
	runner.Start()
	startup.LogSynchronizerStarted()

	var w *watcher.Watcher
	if cfg.WatchEnabled {
		w = watcher.New(cfg.AssetDirs, []string{cfg.FirstFrameDir, cfg.CatalogDir}, watcher.DefaultDebounce, func() {
			runner.TriggerRun(synchronizer.TriggerWatch)
		})
		if err := w.Start(); err != nil {
			logging.Warn("Filesystem watcher unavailable: %v", err)
			w = nil
		}
	}

	collector := metrics.NewCollector(a.store, collectorInterval)
	collector.Start()

	pruneDone := make(chan struct{})
	go pruneJournal(ctx, a, pruneDone)

	h := handlers.New(runner, a.store, a.journal, a.backups)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, cfg.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = cfg.LogHealthChecks
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(
		middleware.Logger(loggingConfig)(router),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	startup.LogServerStarted(startup.ServerConfig{Port: cfg.Port, StartupDuration: time.Since(startTime)})

	select {
	case <-ctx.Done():
		startup.LogShutdownInitiated("interrupt")
	case err := <-serverErr:
		logging.Error("Server error: %v", err)
		startup.LogShutdownInitiated("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if w != nil {
		startup.LogShutdownStep("Stopping watcher")
		w.Stop()
		startup.LogShutdownStepComplete("Watcher stopped")
	}

	startup.LogShutdownStep("Stopping synchronizer")
	runner.Stop()
	startup.LogShutdownStepComplete("Synchronizer stopped")

	collector.Stop()
	<-pruneDone

	startup.LogShutdownComplete()
	return nil
}

// setupRouter registers every API route.
func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	r.MethodNotAllowedHandler = http.HandlerFunc(h.MethodNotAllowed)
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet)

	r.HandleFunc("/api/sync", h.TriggerSync).Methods(http.MethodPost)
	r.HandleFunc("/api/status", h.GetStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/runs", h.GetRuns).Methods(http.MethodGet)
	r.HandleFunc("/api/folders", h.ListFolders).Methods(http.MethodGet)
	r.HandleFunc("/api/assets", h.ListAssets).Methods(http.MethodGet)
	r.HandleFunc("/api/thumbnail", h.GetThumbnail).Methods(http.MethodGet)

	return r
}

// pruneJournal drops old run records once a day until ctx ends.
func pruneJournal(ctx context.Context, a *app, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(journalPrunePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.journal.PruneRuns(ctx, time.Now().Add(-journalRetention))
			if err != nil {
				logging.Warn("Failed to prune sync journal: %v", err)
				continue
			}
			if removed > 0 {
				logging.Info("Pruned %d sync journal entries", removed)
			}
		}
	}
}
