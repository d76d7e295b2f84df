package synchronizer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/database"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// Trigger names what started a run.
type Trigger string

const (
	TriggerStartup  Trigger = "startup"
	TriggerPeriodic Trigger = "periodic"
	TriggerManual   Trigger = "manual"
	TriggerWatch    Trigger = "watch"
	TriggerCLI      Trigger = "cli"
)

// Runner schedules synchronization runs, never more than one at a time.
type Runner struct {
	syncer   *Synchronizer
	journal  *database.Database
	interval time.Duration

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup

	runMu              sync.Mutex
	stopped            bool
	isRunning          bool
	lastRun            *Summary
	lastTrigger        Trigger
	initialRunComplete bool
	initialRunError    string
	startTime          time.Time

	progress atomic.Value // RunProgress

	onRunComplete func(Summary)
}

// RunProgress tracks the run in flight.
type RunProgress struct {
	Trigger       Trigger   `json:"trigger"`
	StartedAt     time.Time `json:"startedAt"`
	Events        int64     `json:"events"`
	CurrentFolder string    `json:"currentFolder,omitempty"`
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready           bool         `json:"ready"`
	Syncing         bool         `json:"syncing"`
	StartTime       time.Time    `json:"startTime"`
	Uptime          string       `json:"uptime"`
	LastTrigger     Trigger      `json:"lastTrigger,omitempty"`
	LastRun         *Summary     `json:"lastRun,omitempty"`
	InitialRunError string       `json:"initialRunError,omitempty"`
	Progress        *RunProgress `json:"progress,omitempty"`
}

// NewRunner creates a Runner. journal may be nil. A zero interval
// disables periodic runs.
func NewRunner(s *Synchronizer, journal *database.Database, interval time.Duration) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		syncer:    s,
		journal:   journal,
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
	r.progress.Store(RunProgress{})
	return r
}

// SetOnRunComplete sets a callback invoked after every finished run.
func (r *Runner) SetOnRunComplete(callback func(Summary)) {
	r.onRunComplete = callback
}

// Start launches the initial run and the periodic loop in the background.
func (r *Runner) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		logging.Info("Starting initial synchronization in background...")
		r.Run(r.ctx, TriggerStartup, nil)
	}()

	if r.interval > 0 {
		r.wg.Add(1)
		go r.periodicRun()
	}
}

// Stop cancels any run in flight and waits for background work to end.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.runMu.Lock()
		r.stopped = true
		r.runMu.Unlock()
		r.cancel()
		r.wg.Wait()
	})
}

// TriggerRun starts a run in the background. It returns false when a run
// is already in progress or the runner is stopped.
func (r *Runner) TriggerRun(trigger Trigger) bool {
	r.runMu.Lock()
	if r.stopped || r.isRunning {
		r.runMu.Unlock()
		return false
	}
	r.wg.Add(1)
	r.runMu.Unlock()

	go func() {
		defer r.wg.Done()
		r.Run(r.ctx, trigger, nil)
	}()
	return true
}

// Run performs one run and blocks until it ends. ok is false when another
// run was already in progress, in which case nothing is done.
func (r *Runner) Run(ctx context.Context, trigger Trigger, callback catalog.Callback) (summary Summary, ok bool) {
	if !r.tryStartRun(trigger) {
		logging.Info("Synchronization already in progress, skipping %s run", trigger)
		metrics.SyncRunsTotal.WithLabelValues("skipped").Inc()
		return Summary{}, false
	}

	summary = r.syncer.Synchronize(ctx, r.track(trigger, callback))
	r.finishRun(trigger, summary)
	r.record(trigger, summary)

	if r.onRunComplete != nil {
		r.onRunComplete(summary)
	}
	return summary, true
}

// track wraps callback to keep RunProgress current.
func (r *Runner) track(trigger Trigger, callback catalog.Callback) catalog.Callback {
	var events atomic.Int64
	return func(e catalog.ChangeEvent) {
		p := r.getProgress()
		p.Trigger = trigger
		p.Events = events.Add(1)
		if e.Folder != nil {
			p.CurrentFolder = e.Folder.Path
		}
		r.progress.Store(p)
		callback.Emit(e)
	}
}

func (r *Runner) record(trigger Trigger, s Summary) {
	if r.journal == nil {
		return
	}

	ctx := context.WithoutCancel(r.ctx)
	run := database.Run{
		Trigger:          string(trigger),
		StartedAt:        s.StartedAt,
		FinishedAt:       s.FinishedAt,
		Outcome:          s.Outcome(),
		FoldersInspected: s.FoldersInspected,
		FoldersCreated:   s.FoldersCreated,
		FoldersDeleted:   s.FoldersDeleted,
		AssetsCreated:    s.AssetsCreated,
		AssetsUpdated:    s.AssetsUpdated,
		AssetsDeleted:    s.AssetsDeleted,
		Events:           s.Events,
		Committed:        s.Committed,
		BackupAction:     s.Backup,
		Errors:           s.Errors,
	}
	if _, err := r.journal.RecordRun(ctx, run); err != nil {
		logging.Warn("Failed to record synchronization run: %v", err)
	}
	if s.Committed {
		if err := r.journal.SetLastSuccessfulSync(ctx, s.FinishedAt); err != nil {
			logging.Warn("Failed to store last successful sync time: %v", err)
		}
	}
}

// periodicRun triggers a run every interval.
func (r *Runner) periodicRun() {
	defer r.wg.Done()

	logging.Info("Periodic synchronization every %v", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Run(r.ctx, TriggerPeriodic, nil)
		case <-r.ctx.Done():
			logging.Info("Periodic synchronization stopped")
			return
		}
	}
}

// IsRunning reports whether a run is in progress.
func (r *Runner) IsRunning() bool {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	return r.isRunning
}

// IsReady returns true once the initial run has finished.
func (r *Runner) IsReady() bool {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	return r.initialRunComplete
}

// LastRun returns the summary of the last finished run, if any.
func (r *Runner) LastRun() (Summary, bool) {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if r.lastRun == nil {
		return Summary{}, false
	}
	return *r.lastRun, true
}

func (r *Runner) getProgress() RunProgress {
	if progress, ok := r.progress.Load().(RunProgress); ok {
		return progress
	}
	return RunProgress{}
}

// GetHealthStatus returns detailed health information.
func (r *Runner) GetHealthStatus() HealthStatus {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	status := HealthStatus{
		Ready:           r.initialRunComplete,
		Syncing:         r.isRunning,
		StartTime:       r.startTime,
		Uptime:          time.Since(r.startTime).Round(time.Second).String(),
		LastTrigger:     r.lastTrigger,
		InitialRunError: r.initialRunError,
	}
	if r.lastRun != nil {
		last := *r.lastRun
		status.LastRun = &last
	}
	if r.isRunning {
		progress := r.getProgress()
		status.Progress = &progress
	}
	return status
}

// tryStartRun marks a run as started, returns false if one is in progress.
func (r *Runner) tryStartRun(trigger Trigger) bool {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.isRunning {
		return false
	}
	r.isRunning = true
	r.progress.Store(RunProgress{Trigger: trigger, StartedAt: time.Now()})
	return true
}

// finishRun marks the run as complete.
func (r *Runner) finishRun(trigger Trigger, s Summary) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	r.isRunning = false
	r.lastRun = &s
	r.lastTrigger = trigger
	if !r.initialRunComplete {
		r.initialRunComplete = true
		if s.CommitFailed && len(s.Errors) > 0 {
			r.initialRunError = s.Errors[len(s.Errors)-1]
		}
	}
}
