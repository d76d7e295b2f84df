package synchronizer

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/database"
	"media-catalog/internal/testutil"
)

func newTestRunner(t *testing.T, h *harness) *Runner {
	t.Helper()
	journal, err := database.New(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("database.New failed: %v", err)
	}
	t.Cleanup(func() { _ = journal.Close() })
	return NewRunner(h.sync, journal, 0)
}

func TestRunnerRecordsRuns(t *testing.T) {
	h := newHarness(t, nil)
	testutil.WriteJPEG(t, h.root, "a.jpg", 32, 24, 1)
	r := newTestRunner(t, h)

	var completed []Summary
	r.SetOnRunComplete(func(s Summary) { completed = append(completed, s) })

	events := 0
	summary, ok := r.Run(context.Background(), TriggerManual, func(catalog.ChangeEvent) { events++ })
	if !ok {
		t.Fatal("Run was skipped")
	}
	if events != summary.Events || events != 6 {
		t.Errorf("callback saw %d events, summary reports %d", events, summary.Events)
	}
	if len(completed) != 1 {
		t.Errorf("completion callback called %d times", len(completed))
	}
	if !r.IsReady() || r.IsRunning() {
		t.Error("runner should be ready and idle after a run")
	}

	runs, err := r.journal.LastRuns(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 journal row, got %d", len(runs))
	}
	if runs[0].Trigger != string(TriggerManual) || runs[0].AssetsCreated != 1 || !runs[0].Committed || runs[0].BackupAction != "created" {
		t.Errorf("unexpected journal row %+v", runs[0])
	}

	last, err := r.journal.GetLastSuccessfulSync(context.Background())
	if err != nil || last.IsZero() {
		t.Errorf("last successful sync not stored: %v, %v", last, err)
	}
}

func TestRunnerSkipsOverlappingRuns(t *testing.T) {
	h := newHarness(t, nil)
	r := newTestRunner(t, h)

	if !r.tryStartRun(TriggerManual) {
		t.Fatal("first tryStartRun should succeed")
	}
	if _, ok := r.Run(context.Background(), TriggerWatch, nil); ok {
		t.Error("overlapping run should be skipped")
	}
	if r.TriggerRun(TriggerWatch) {
		t.Error("TriggerRun should refuse while a run is in progress")
	}

	status := r.GetHealthStatus()
	if !status.Syncing || status.Progress == nil || status.Progress.Trigger != TriggerManual {
		t.Errorf("unexpected health status %+v", status)
	}

	r.finishRun(TriggerManual, Summary{})
	if r.IsRunning() {
		t.Error("runner should be idle after finishRun")
	}
}

func TestRunnerHealthStatus(t *testing.T) {
	h := newHarness(t, nil)
	r := NewRunner(h.sync, nil, 0)

	status := r.GetHealthStatus()
	if status.Ready || status.Syncing || status.LastRun != nil {
		t.Errorf("fresh runner status = %+v", status)
	}

	r.Run(context.Background(), TriggerCLI, nil)

	status = r.GetHealthStatus()
	if !status.Ready || status.LastRun == nil || status.LastTrigger != TriggerCLI {
		t.Errorf("status after run = %+v", status)
	}
	if last, ok := r.LastRun(); !ok || last.Outcome() != "completed" {
		t.Errorf("LastRun = %+v, %v", last, ok)
	}
}

func TestRunnerStartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping background runner test in short mode")
	}

	h := newHarness(t, nil)
	testutil.WriteJPEG(t, h.root, "a.jpg", 32, 24, 1)
	r := NewRunner(h.sync, nil, time.Hour)

	r.Start()
	deadline := time.Now().Add(10 * time.Second)
	for !r.IsReady() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	r.Stop()
	r.Stop()

	if !r.IsReady() {
		t.Fatal("initial run did not finish")
	}
	if r.TriggerRun(TriggerManual) {
		t.Error("TriggerRun should refuse after Stop")
	}
	if len(h.store.GetAllAssets()) != 1 {
		t.Error("initial run should have catalogued the asset")
	}
}

func TestRunnerTriggerConcurrentWithStop(t *testing.T) {
	h := newHarness(t, nil)
	r := NewRunner(h.sync, nil, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.TriggerRun(TriggerWatch)
		}()
	}
	r.Stop()
	wg.Wait()

	if r.TriggerRun(TriggerManual) {
		t.Error("TriggerRun should refuse after Stop")
	}
	if r.IsRunning() {
		t.Error("a run accepted before Stop should have finished by the time Stop returns")
	}
}
