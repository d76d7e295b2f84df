package synchronizer

import (
	"context"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// Summary describes a finished run.
type Summary struct {
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	FoldersInspected int `json:"foldersInspected"`
	FoldersCreated   int `json:"foldersCreated"`
	FoldersDeleted   int `json:"foldersDeleted"`
	AssetsCreated    int `json:"assetsCreated"`
	AssetsUpdated    int `json:"assetsUpdated"`
	AssetsDeleted    int `json:"assetsDeleted"`
	Events           int `json:"events"`

	Cancelled      bool     `json:"cancelled"`
	BatchExhausted bool     `json:"batchExhausted"`
	Committed      bool     `json:"committed"`
	CommitFailed   bool     `json:"commitFailed"`
	Backup         string   `json:"backup,omitempty"`
	Errors         []string `json:"errors,omitempty"`
}

// Outcome classifies the run for metrics and the journal.
func (s Summary) Outcome() string {
	switch {
	case s.Cancelled:
		return "cancelled"
	case s.CommitFailed:
		return "failed"
	case s.BatchExhausted:
		return "batch_exhausted"
	default:
		return "completed"
	}
}

// runState carries the mutable state of one run through the walk.
type runState struct {
	callback catalog.Callback
	budget   int

	cancelled bool
	exhausted bool

	summary Summary
}

func newRunState(callback catalog.Callback, budget int) *runState {
	return &runState{callback: callback, budget: budget}
}

func (st *runState) emit(e catalog.ChangeEvent) {
	st.summary.Events++
	if !e.IsEmpty() && e.Err == nil {
		st.count(e.Reason)
	}
	st.callback.Emit(e)
}

func (st *runState) count(reason catalog.Reason) {
	switch reason {
	case catalog.ReasonFolderInspected:
		st.summary.FoldersInspected++
	case catalog.ReasonFolderCreated:
		st.summary.FoldersInspected++
		st.summary.FoldersCreated++
	case catalog.ReasonFolderDeleted:
		st.summary.FoldersDeleted++
	case catalog.ReasonAssetCreated:
		st.summary.AssetsCreated++
	case catalog.ReasonAssetUpdated:
		st.summary.AssetsUpdated++
	case catalog.ReasonAssetDeleted:
		st.summary.AssetsDeleted++
	default:
		return
	}
	metrics.SyncEventsTotal.WithLabelValues(reason.String()).Inc()
}

// fail reports an error event. folder may be nil.
func (st *runState) fail(folder *catalog.Folder, err error) {
	logging.Error("Synchronization error: %v", err)
	st.summary.Errors = append(st.summary.Errors, err.Error())
	st.emit(catalog.ChangeEvent{Folder: folder, Message: err.Error(), Err: err})
}

// checkCancel latches cancellation once ctx is done.
func (st *runState) checkCancel(ctx context.Context) bool {
	if !st.cancelled && ctx.Err() != nil {
		st.cancelled = true
		logging.Info("Synchronization cancellation requested")
	}
	return st.cancelled
}

// halted reports whether the walk must stop.
func (st *runState) halted(ctx context.Context) bool {
	return st.checkCancel(ctx) || st.exhausted
}

// reserve checks whether one more asset may be processed. The run counts
// as exhausted only when a pending asset is turned away.
func (st *runState) reserve(ctx context.Context) bool {
	if st.checkCancel(ctx) {
		return false
	}
	if st.budget <= 0 {
		if !st.exhausted {
			st.exhausted = true
			logging.Info("Catalog batch size reached, remaining files are left for the next run")
		}
		return false
	}
	return true
}

// consume spends one unit of the batch budget.
func (st *runState) consume() {
	st.budget--
}

func (st *runState) finish(now time.Time) Summary {
	st.summary.FinishedAt = now
	st.summary.Cancelled = st.cancelled
	st.summary.BatchExhausted = st.exhausted
	return st.summary
}
