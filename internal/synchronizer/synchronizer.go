package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"media-catalog/internal/backup"
	"media-catalog/internal/catalog"
	"media-catalog/internal/fingerprint"
	"media-catalog/internal/logging"
	"media-catalog/internal/media"
	"media-catalog/internal/memory"
	"media-catalog/internal/metrics"
	"media-catalog/internal/storage"
	"media-catalog/internal/workers"
)

// maxWorkers caps the requested per-folder worker count.
const maxWorkers = 8

// Thumbnailer renders bounded thumbnails. *media.ThumbnailGenerator
// implements it.
type Thumbnailer interface {
	Generate(data []byte, maxWidth, maxHeight int) (*media.Thumbnail, error)
}

// FrameExtractor writes the first frame of a video as an image.
// *frames.Extractor implements it.
type FrameExtractor interface {
	ExtractFirstFrame(ctx context.Context, videoPath, destDir string) (path string, created bool, err error)
}

// Options configures a Synchronizer.
type Options struct {
	Roots              []string
	BatchSize          int
	ThumbnailMaxWidth  int
	ThumbnailMaxHeight int
	AnalyseVideos      bool
	FirstFrameDir      string
	// Workers bounds concurrent fingerprint and thumbnail work within a
	// folder. One builds each asset on demand after its cancellation and
	// budget checks. Zero reads CATALOG_WORKERS and defaults to one.
	Workers int
}

// Dependencies are the collaborators of a Synchronizer. Backups and Frames
// may be nil, which disables backups and video analysis respectively.
type Dependencies struct {
	Store        *storage.Store
	Backups      *backup.Manager
	Fingerprints *fingerprint.Fingerprinter
	Thumbnails   Thumbnailer
	Frames       FrameExtractor
	Clock        catalog.Clock
	// Memory, when set, holds back asset processing under memory pressure.
	Memory *memory.Monitor
}

// Synchronizer runs catalog synchronizations. Runs are serialized.
type Synchronizer struct {
	store        *storage.Store
	backups      *backup.Manager
	fingerprints *fingerprint.Fingerprinter
	thumbnails   Thumbnailer
	frames       FrameExtractor
	clock        catalog.Clock
	memory       *memory.Monitor
	opts         Options

	runMu sync.Mutex
}

// New creates a Synchronizer.
func New(deps Dependencies, opts Options) *Synchronizer {
	if deps.Clock == nil {
		deps.Clock = catalog.RealClock{}
	}
	if deps.Fingerprints == nil {
		deps.Fingerprints = fingerprint.New(fingerprint.SHA512)
	}
	if deps.Thumbnails == nil {
		deps.Thumbnails = media.NewThumbnailGenerator(false)
	}
	if opts.AnalyseVideos && deps.Frames == nil {
		logging.Warn("Video analysis requested without a frame extractor, disabling")
		opts.AnalyseVideos = false
	}
	if opts.Workers <= 0 {
		opts.Workers = workers.Requested(maxWorkers)
	}

	return &Synchronizer{
		store:        deps.Store,
		backups:      deps.Backups,
		fingerprints: deps.Fingerprints,
		thumbnails:   deps.Thumbnails,
		frames:       deps.Frames,
		clock:        deps.Clock,
		memory:       deps.Memory,
		opts:         opts,
	}
}

// Store returns the catalog store being synchronized.
func (s *Synchronizer) Store() *storage.Store {
	return s.store
}

// Synchronize runs one synchronization pass, delivering events to callback
// in walk order. callback may be nil. Errors are reported through events
// and the returned Summary.
func (s *Synchronizer) Synchronize(ctx context.Context, callback catalog.Callback) Summary {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	metrics.SyncIsRunning.Set(1)
	defer metrics.SyncIsRunning.Set(0)

	st := newRunState(callback, s.opts.BatchSize)
	st.summary.StartedAt = s.clock.Now()

	switch {
	case ctx.Err() != nil:
		st.cancelled = true
		logging.Info("Synchronization cancelled before it started")
	case s.opts.BatchSize <= 0:
		st.exhausted = true
		logging.Info("Catalog batch size is 0, skipping folder inspection")
	default:
		logging.Info("Starting synchronization of %d root(s), batch size %d", len(s.opts.Roots), s.opts.BatchSize)
		s.walkRoots(ctx, st)
		s.commit(ctx, st)
	}

	s.backupStep(context.WithoutCancel(ctx), st)
	st.emit(catalog.ChangeEvent{})
	st.emit(catalog.ChangeEvent{})

	summary := st.finish(s.clock.Now())
	duration := time.Since(start)

	metrics.SyncRunsTotal.WithLabelValues(summary.Outcome()).Inc()
	metrics.SyncRunDuration.Observe(duration.Seconds())
	metrics.SyncLastRunTimestamp.Set(float64(time.Now().Unix()))

	logging.Info("Synchronization %s in %v: %d created, %d updated, %d deleted, %d folder(s) inspected",
		summary.Outcome(), duration.Round(time.Millisecond), summary.AssetsCreated, summary.AssetsUpdated,
		summary.AssetsDeleted, summary.FoldersInspected)
	return summary
}

func (s *Synchronizer) commit(ctx context.Context, st *runState) {
	if st.checkCancel(ctx) {
		logging.Info("Synchronization cancelled, catalog changes not committed")
		return
	}

	if err := s.store.Commit(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			st.cancelled = true
			logging.Info("Catalog commit cancelled")
			return
		}
		st.summary.CommitFailed = true
		st.fail(nil, fmt.Errorf("failed to commit catalog: %w", err))
		return
	}
	st.summary.Committed = true
}

// backupStep always emits exactly two events: the backup message (empty
// when the archive was already current) and an empty terminator.
func (s *Synchronizer) backupStep(ctx context.Context, st *runState) {
	event := catalog.ChangeEvent{}

	if s.backups != nil {
		res, err := s.backups.EnsureBackup(ctx, s.clock.Now())
		if err != nil {
			logging.Error("Catalog backup failed: %v", err)
			event.Err = fmt.Errorf("catalog backup failed: %w", err)
			st.summary.Errors = append(st.summary.Errors, event.Err.Error())
		} else {
			event.Message = res.Action.Message()
			st.summary.Backup = res.Action.String()
		}
	}

	st.emit(event)
	st.emit(catalog.ChangeEvent{})
}
