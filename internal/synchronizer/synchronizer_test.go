package synchronizer

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"media-catalog/internal/backup"
	"media-catalog/internal/catalog"
	"media-catalog/internal/fingerprint"
	"media-catalog/internal/frames"
	"media-catalog/internal/media"
	"media-catalog/internal/storage"
	"media-catalog/internal/testutil"
	"media-catalog/internal/workers"
)

type harness struct {
	t          *testing.T
	root       string
	catalogDir string
	clock      *testutil.StubClock
	ids        *testutil.StubIDGenerator
	frames     *stubFrames
	opts       Options
	store      *storage.Store
	sync       *Synchronizer
}

func newHarness(t *testing.T, configure func(*Options)) *harness {
	t.Helper()
	h := &harness{
		t:          t,
		root:       t.TempDir(),
		catalogDir: t.TempDir(),
		clock:      testutil.FixedClock(),
		ids:        testutil.NewStubIDGenerator(),
		frames:     &stubFrames{t: t},
	}
	h.opts = Options{
		Roots:              []string{h.root},
		BatchSize:          100,
		ThumbnailMaxWidth:  200,
		ThumbnailMaxHeight: 150,
	}
	if configure != nil {
		configure(&h.opts)
	}
	h.reopen()
	return h
}

// reopen loads the catalog from disk as a new process would.
func (h *harness) reopen() {
	h.t.Helper()
	store, err := storage.Open(h.catalogDir, h.ids)
	if err != nil {
		h.t.Fatalf("storage.Open failed: %v", err)
	}
	h.store = store
	h.sync = New(Dependencies{
		Store:        store,
		Backups:      backup.New(h.catalogDir, storage.TablesDirName, storage.BlobsDirName),
		Fingerprints: fingerprint.New(fingerprint.SHA512),
		Thumbnails:   media.NewThumbnailGenerator(false),
		Frames:       h.frames,
		Clock:        h.clock,
	}, h.opts)
}

func (h *harness) run(ctx context.Context) ([]catalog.ChangeEvent, Summary) {
	h.t.Helper()
	var events []catalog.ChangeEvent
	summary := h.sync.Synchronize(ctx, func(e catalog.ChangeEvent) {
		events = append(events, e)
	})
	return events, summary
}

func (h *harness) blobPath(folderID string) string {
	return filepath.Join(h.catalogDir, storage.BlobsDirName, folderID+storage.BlobExt)
}

// countingThumbnails counts the thumbnails actually rendered.
type countingThumbnails struct {
	Thumbnailer
	calls atomic.Int32
}

func (c *countingThumbnails) Generate(data []byte, maxWidth, maxHeight int) (*media.Thumbnail, error) {
	c.calls.Add(1)
	return c.Thumbnailer.Generate(data, maxWidth, maxHeight)
}

type stubFrames struct {
	t     *testing.T
	calls int
}

func (f *stubFrames) ExtractFirstFrame(_ context.Context, videoPath, destDir string) (string, bool, error) {
	f.calls++
	path := frames.FramePath(videoPath, destDir)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}
	testutil.WriteJPEG(f.t, destDir, filepath.Base(path), 64, 48, 99)
	return path, true, nil
}

// describe renders an event as "Reason:name", "msg:text", "error" or "-".
func describe(e catalog.ChangeEvent) string {
	switch {
	case e.IsEmpty():
		return "-"
	case e.Err != nil:
		return "error"
	case e.Asset != nil:
		return e.Reason.String() + ":" + e.Asset.FileName
	case e.Folder != nil:
		return e.Reason.String() + ":" + filepath.Base(e.Folder.Path)
	default:
		return "msg:" + e.Message
	}
}

func assertEvents(t *testing.T, events []catalog.ChangeEvent, want []string) {
	t.Helper()
	got := make([]string, len(events))
	for i, e := range events {
		got[i] = describe(e)
	}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func closing(backupMessage string) []string {
	first := "-"
	if backupMessage != "" {
		first = "msg:" + backupMessage
	}
	return []string{first, "-", "-", "-"}
}

func TestSynchronizeNewFolder(t *testing.T) {
	h := newHarness(t, nil)
	for i, name := range []string{"Image 1.jpg", "Image 2.jpg", "Image 3.jpg", "Image 4.png"} {
		if filepath.Ext(name) == ".png" {
			testutil.WriteFile(t, h.root, name, testutil.PNGBytes(t, 320, 240, uint8(i)))
			continue
		}
		testutil.WriteJPEG(t, h.root, name, 640, 480, uint8(i))
	}

	events, summary := h.run(context.Background())

	if len(events) != 9 {
		t.Fatalf("expected 9 events, got %d", len(events))
	}
	if events[0].Reason != catalog.ReasonFolderCreated || events[0].Folder == nil {
		t.Fatalf("first event = %s, want folder creation", describe(events[0]))
	}
	folderID := events[0].Folder.ID

	for i := 1; i <= 4; i++ {
		e := events[i]
		if e.Reason != catalog.ReasonAssetCreated || e.Asset == nil {
			t.Fatalf("event %d = %s, want AssetCreated", i, describe(e))
		}
		if len(e.CataloguedAssets) != i {
			t.Errorf("event %d carries %d catalogued assets, want %d", i, len(e.CataloguedAssets), i)
		}
	}
	if events[5].Message != backup.CreatingMessage {
		t.Errorf("backup event message = %q", events[5].Message)
	}
	if events[5].Reason != catalog.ReasonNone {
		t.Errorf("backup event reason = %v, want None", events[5].Reason)
	}
	for i := 6; i < 9; i++ {
		if !events[i].IsEmpty() {
			t.Errorf("event %d = %s, want empty", i, describe(events[i]))
		}
	}

	assets := h.store.GetAllAssets()
	if len(assets) != 4 {
		t.Fatalf("expected 4 catalogued assets, got %d", len(assets))
	}
	for _, a := range assets {
		if a.FolderID != folderID {
			t.Errorf("asset %s FolderID = %s, want %s", a.FileName, a.FolderID, folderID)
		}
		if a.Hash == "" || a.PixelWidth == 0 || a.ThumbnailPixelWidth == 0 {
			t.Errorf("asset %s missing metadata: %+v", a.FileName, a)
		}
		if a.ThumbnailPixelWidth > 200 || a.ThumbnailPixelHeight > 150 {
			t.Errorf("thumbnail of %s is %dx%d, exceeds 200x150", a.FileName, a.ThumbnailPixelWidth, a.ThumbnailPixelHeight)
		}
	}

	if h.store.HasChanges() {
		t.Error("catalog should be committed")
	}
	if summary.FoldersInspected != 1 {
		t.Errorf("FoldersInspected = %d, want 1", summary.FoldersInspected)
	}
	if !summary.Committed || summary.AssetsCreated != 4 || summary.FoldersCreated != 1 || summary.Outcome() != "completed" {
		t.Errorf("unexpected summary %+v", summary)
	}
	if _, err := os.Stat(h.blobPath(folderID)); err != nil {
		t.Errorf("blob missing: %v", err)
	}
}

func TestSynchronizeIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	testutil.WriteJPEG(t, h.root, "a.jpg", 64, 48, 1)
	testutil.WriteJPEG(t, h.root, "b.jpg", 64, 48, 2)

	h.run(context.Background())
	before := h.store.GetAllAssets()

	h.reopen()
	events, summary := h.run(context.Background())

	want := append([]string{"FolderInspected:" + filepath.Base(h.root)}, closing("")...)
	assertEvents(t, events, want)

	if len(events[0].CataloguedAssets) != 2 {
		t.Errorf("inspecting event carries %d assets, want 2", len(events[0].CataloguedAssets))
	}
	after := h.store.GetAllAssets()
	if len(after) != len(before) {
		t.Fatalf("asset count changed from %d to %d", len(before), len(after))
	}
	for i := range before {
		if before[i].FileName != after[i].FileName || before[i].Hash != after[i].Hash {
			t.Errorf("asset %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
	if summary.Backup != "unchanged" {
		t.Errorf("backup action = %s, want unchanged", summary.Backup)
	}
}

func TestSynchronizeDetectsUpdate(t *testing.T) {
	h := newHarness(t, nil)
	path := testutil.WriteJPEG(t, h.root, "a.jpg", 64, 48, 1)
	testutil.WriteJPEG(t, h.root, "b.jpg", 64, 48, 2)
	h.run(context.Background())
	original, _ := h.store.GetAssetByName(h.root, "a.jpg")

	testutil.WriteJPEG(t, h.root, "a.jpg", 96, 64, 42)
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}

	events, _ := h.run(context.Background())
	want := append([]string{
		"FolderInspected:" + filepath.Base(h.root),
		"AssetUpdated:a.jpg",
	}, closing(backup.UpdatingMessage)...)
	assertEvents(t, events, want)

	updated, ok := h.store.GetAssetByName(h.root, "a.jpg")
	if !ok {
		t.Fatal("updated asset missing")
	}
	if updated.FolderID != original.FolderID {
		t.Error("update changed the asset's folder")
	}
	if updated.Hash == original.Hash || updated.PixelWidth != 96 {
		t.Errorf("asset metadata not refreshed: %+v", updated)
	}
	if len(h.store.GetAllAssets()) != 2 {
		t.Error("update changed the asset count")
	}

	// The refreshed record is not seen as updated again.
	events, _ = h.run(context.Background())
	assertEvents(t, events, append([]string{"FolderInspected:" + filepath.Base(h.root)}, closing("")...))
}

func TestSynchronizeDetectsDeletion(t *testing.T) {
	h := newHarness(t, nil)
	a := testutil.WriteJPEG(t, h.root, "a.jpg", 64, 48, 1)
	b := testutil.WriteJPEG(t, h.root, "b.jpg", 64, 48, 2)
	h.run(context.Background())
	folder := h.store.GetFolderByPath(h.root)

	if err := os.Remove(a); err != nil {
		t.Fatal(err)
	}
	events, _ := h.run(context.Background())
	assertEvents(t, events, append([]string{
		"FolderInspected:" + filepath.Base(h.root),
		"AssetDeleted:a.jpg",
	}, closing(backup.UpdatingMessage)...))

	h.reopen()
	if got := h.store.GetAssetsByPath(h.root); len(got) != 1 || got[0].FileName != "b.jpg" {
		t.Fatalf("assets after deletion = %+v", got)
	}
	if h.store.ContainsThumbnail(folder.ID, "a.jpg") || !h.store.ContainsThumbnail(folder.ID, "b.jpg") {
		t.Error("blob does not match remaining assets")
	}

	if err := os.Remove(b); err != nil {
		t.Fatal(err)
	}
	h.run(context.Background())
	if _, err := os.Stat(h.blobPath(folder.ID)); !os.IsNotExist(err) {
		t.Errorf("blob of emptied folder should be deleted, stat err = %v", err)
	}
}

func TestSynchronizeBatchSize(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.BatchSize = 2 })
	for i := 0; i < 5; i++ {
		testutil.WriteJPEG(t, h.root, string(rune('a'+i))+".jpg", 32, 24, uint8(i))
	}

	wantCreated := []int{2, 2, 1, 0}
	total := 0
	for run, want := range wantCreated {
		h.reopen()
		events, summary := h.run(context.Background())

		created := 0
		for _, e := range events {
			if e.Reason == catalog.ReasonAssetCreated && e.Asset != nil {
				created++
			}
		}
		if created != want || summary.AssetsCreated != want {
			t.Errorf("run %d created %d assets, want %d", run+1, created, want)
		}
		if wantExhausted := run < 2; summary.BatchExhausted != wantExhausted {
			t.Errorf("run %d BatchExhausted = %v, want %v", run+1, summary.BatchExhausted, wantExhausted)
		}
		total += want
		if got := len(h.store.GetAllAssets()); got != total {
			t.Errorf("after run %d catalog holds %d assets, want %d", run+1, got, total)
		}
		if h.store.HasChanges() {
			t.Errorf("run %d left uncommitted changes", run+1)
		}
	}
}

func TestSynchronizeSpentBudgetStillInspectsIdleFolders(t *testing.T) {
	h := newHarness(t, nil)
	testutil.WriteJPEG(t, h.root, "a.jpg", 32, 24, 1)
	testutil.WriteJPEG(t, h.root, "sub/b.jpg", 32, 24, 2)
	h.run(context.Background())

	testutil.WriteJPEG(t, h.root, "c.jpg", 32, 24, 3)
	h.opts.BatchSize = 1
	h.reopen()
	events, summary := h.run(context.Background())

	assertEvents(t, events, append([]string{
		"FolderInspected:" + filepath.Base(h.root),
		"AssetCreated:c.jpg",
		"FolderInspected:sub",
	}, closing(backup.UpdatingMessage)...))

	if summary.BatchExhausted || summary.Outcome() != "completed" {
		t.Errorf("a budget spent on the last pending file is not exhausted: %+v", summary)
	}
}

func TestSynchronizeParallelBuildsKeepWalkOrder(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.BatchSize = 6
		o.Workers = 4
	})
	for i := 0; i < 10; i++ {
		testutil.WriteJPEG(t, h.root, string(rune('a'+i))+".jpg", 48, 36, uint8(i))
	}
	// A corrupt file still counts against the budget.
	if err := os.WriteFile(filepath.Join(h.root, "c.jpg"), []byte("not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	events, summary := h.run(context.Background())

	want := []string{"FolderCreated:" + filepath.Base(h.root)}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		want = append(want, "AssetCreated:"+name+".jpg")
	}
	want = append(want, closing(backup.CreatingMessage)...)
	assertEvents(t, events, want)

	if !summary.BatchExhausted {
		t.Error("BatchExhausted = false, want true")
	}
	corrupt, ok := h.store.GetAssetByName(h.root, "c.jpg")
	if !ok || !corrupt.IsAssetCorrupted {
		t.Errorf("c.jpg = %+v, want a corrupted asset", corrupt)
	}
}

func TestSynchronizeShortCircuit(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int
		cancelled bool
	}{
		{"pre-cancelled", 100, true},
		{"zero batch size", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(o *Options) { o.BatchSize = tt.batchSize })
			testutil.WriteJPEG(t, h.root, "a.jpg", 32, 24, 1)

			ctx, cancel := context.WithCancel(context.Background())
			if tt.cancelled {
				cancel()
			} else {
				defer cancel()
			}

			events, summary := h.run(ctx)
			if len(events) != 4 {
				t.Fatalf("expected 4 events, got %d", len(events))
			}
			if events[0].Message != backup.CreatingMessage {
				t.Errorf("backup message = %q", events[0].Message)
			}
			for _, e := range events[1:] {
				if !e.IsEmpty() {
					t.Errorf("expected empty closing event, got %s", describe(e))
				}
			}
			if !h.store.HasChanges() {
				t.Error("HasChanges should remain true")
			}
			if summary.Committed || summary.FoldersInspected != 0 {
				t.Errorf("nothing should be inspected or committed: %+v", summary)
			}
			if _, err := os.Stat(filepath.Join(h.catalogDir, storage.TablesDirName, storage.AssetsTable+storage.TableExt)); !os.IsNotExist(err) {
				t.Errorf("assets table should not exist, stat err = %v", err)
			}
		})
	}
}

func TestSynchronizeBuildsSeriallyByDefault(t *testing.T) {
	t.Setenv(workers.OverrideEnv, "")
	h := newHarness(t, nil)
	for i := 0; i < 5; i++ {
		testutil.WriteJPEG(t, h.root, string(rune('a'+i))+".jpg", 32, 24, uint8(i))
	}
	thumbs := &countingThumbnails{Thumbnailer: media.NewThumbnailGenerator(false)}
	h.sync = New(Dependencies{
		Store:        h.store,
		Fingerprints: fingerprint.New(fingerprint.SHA512),
		Thumbnails:   thumbs,
		Clock:        h.clock,
	}, h.opts)

	if h.sync.opts.Workers != 1 {
		t.Fatalf("default Workers = %d, want 1", h.sync.opts.Workers)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.sync.Synchronize(ctx, func(e catalog.ChangeEvent) {
		if e.Reason == catalog.ReasonAssetCreated {
			cancel()
		}
	})

	if got := thumbs.calls.Load(); got != 1 {
		t.Errorf("rendered %d thumbnails before honouring cancellation, want 1", got)
	}
}

func TestSynchronizeCancelledMidRun(t *testing.T) {
	h := newHarness(t, nil)
	for i := 0; i < 3; i++ {
		testutil.WriteJPEG(t, h.root, string(rune('a'+i))+".jpg", 32, 24, uint8(i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events []catalog.ChangeEvent
	summary := h.sync.Synchronize(ctx, func(e catalog.ChangeEvent) {
		events = append(events, e)
		if e.Reason == catalog.ReasonAssetCreated && e.Asset != nil {
			cancel()
		}
	})

	assertEvents(t, events, append([]string{
		"FolderCreated:" + filepath.Base(h.root),
		"AssetCreated:a.jpg",
	}, closing(backup.CreatingMessage)...))

	if !summary.Cancelled || summary.Committed || summary.Outcome() != "cancelled" {
		t.Errorf("unexpected summary %+v", summary)
	}
	if !h.store.HasChanges() {
		t.Error("cancelled run must leave changes uncommitted")
	}

	h.reopen()
	if n := len(h.store.GetAllAssets()); n != 0 {
		t.Errorf("cancelled run committed %d assets", n)
	}
}

func TestSynchronizeBackupMatchesCatalog(t *testing.T) {
	h := newHarness(t, nil)
	testutil.WriteJPEG(t, h.root, "a.jpg", 64, 48, 1)
	testutil.WriteJPEG(t, h.root, "sub/b.jpg", 64, 48, 2)
	h.run(context.Background())

	archive := filepath.Join(h.catalogDir, backup.DirName, backup.ArchiveName(h.clock.Now()))
	r, err := zip.OpenReader(archive)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer r.Close()

	live := 0
	for _, sub := range []string{storage.TablesDirName, storage.BlobsDirName} {
		entries, err := os.ReadDir(filepath.Join(h.catalogDir, sub))
		if err != nil {
			t.Fatal(err)
		}
		live += len(entries)
	}
	if len(r.File) != live {
		t.Fatalf("archive has %d entries, live catalog has %d files", len(r.File), live)
	}

	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		archived, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		current, err := os.ReadFile(filepath.Join(h.catalogDir, filepath.FromSlash(f.Name)))
		if err != nil {
			t.Fatalf("archived entry %s has no live file: %v", f.Name, err)
		}
		if !bytes.Equal(archived, current) {
			t.Errorf("archived %s differs from live file", f.Name)
		}
	}
}

func TestSynchronizeCorruptedAndRotatedAssets(t *testing.T) {
	h := newHarness(t, nil)
	testutil.WriteFile(t, h.root, "broken.jpg", []byte("definitely not a jpeg"))
	rotated := testutil.WithOrientation(t, testutil.JPEGBytes(t, 64, 48, 3), 6)
	testutil.WriteFile(t, h.root, "rotated.jpg", rotated)

	h.run(context.Background())

	broken, ok := h.store.GetAssetByName(h.root, "broken.jpg")
	if !ok {
		t.Fatal("corrupted asset should still be catalogued")
	}
	if !broken.IsAssetCorrupted || broken.AssetCorruptedMessage != fingerprint.CorruptedMessage || broken.Hash == "" {
		t.Errorf("unexpected corrupted asset %+v", broken)
	}
	if h.store.ContainsThumbnail(broken.FolderID, "broken.jpg") {
		t.Error("corrupted asset should have no thumbnail")
	}

	turned, ok := h.store.GetAssetByName(h.root, "rotated.jpg")
	if !ok {
		t.Fatal("rotated asset missing")
	}
	if !turned.IsAssetRotated || turned.ImageRotation != catalog.Rotate90 || turned.AssetRotatedMessage != media.RotatedMessage {
		t.Errorf("unexpected rotated asset %+v", turned)
	}
	if turned.PixelWidth != 64 || turned.ThumbnailPixelWidth != 48 {
		t.Errorf("rotated sizes: raw %dx%d thumb %dx%d", turned.PixelWidth, turned.PixelHeight,
			turned.ThumbnailPixelWidth, turned.ThumbnailPixelHeight)
	}
}

func TestSynchronizeWalksSubfoldersAndSkipsHidden(t *testing.T) {
	h := newHarness(t, nil)
	testutil.WriteJPEG(t, h.root, "a.jpg", 32, 24, 1)
	testutil.WriteJPEG(t, h.root, ".secret.jpg", 32, 24, 2)
	testutil.WriteJPEG(t, h.root, ".cache/c.jpg", 32, 24, 3)
	testutil.WriteJPEG(t, h.root, "sub/b.jpg", 32, 24, 4)
	testutil.WriteFile(t, h.root, "notes.txt", []byte("not media"))

	events, summary := h.run(context.Background())
	assertEvents(t, events, append([]string{
		"FolderCreated:" + filepath.Base(h.root),
		"AssetCreated:a.jpg",
		"FolderCreated:sub",
		"AssetCreated:b.jpg",
	}, closing(backup.CreatingMessage)...))

	if summary.FoldersInspected != 2 {
		t.Errorf("FoldersInspected = %d, want 2", summary.FoldersInspected)
	}
}

func TestSynchronizeRemovesVanishedFolders(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping multi-root integration test in short mode")
	}

	second := t.TempDir()
	h := newHarness(t, nil)
	h.opts.Roots = append(h.opts.Roots, second)
	h.reopen()

	testutil.WriteJPEG(t, h.root, "a.jpg", 32, 24, 1)
	testutil.WriteJPEG(t, h.root, "sub/b.jpg", 32, 24, 2)
	testutil.WriteJPEG(t, second, "c.jpg", 32, 24, 3)
	h.run(context.Background())

	if err := os.RemoveAll(filepath.Join(h.root, "sub")); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(second); err != nil {
		t.Fatal(err)
	}

	events, summary := h.run(context.Background())
	assertEvents(t, events, append([]string{
		"FolderInspected:" + filepath.Base(h.root),
		"FolderDeleted:sub",
		"FolderDeleted:" + filepath.Base(second),
	}, closing(backup.UpdatingMessage)...))

	if summary.FoldersDeleted != 2 {
		t.Errorf("FoldersDeleted = %d, want 2", summary.FoldersDeleted)
	}
	assets := h.store.GetAllAssets()
	if len(assets) != 1 || assets[0].FileName != "a.jpg" {
		t.Errorf("remaining assets = %+v", assets)
	}
	if len(h.store.GetFolders()) != 1 {
		t.Errorf("expected only the live root to remain, got %+v", h.store.GetFolders())
	}
}

func TestSynchronizeRemovesRootReplacedByFile(t *testing.T) {
	second := filepath.Join(t.TempDir(), "extra")
	h := newHarness(t, nil)
	h.opts.Roots = append(h.opts.Roots, second)
	h.reopen()

	testutil.WriteJPEG(t, h.root, "a.jpg", 32, 24, 1)
	testutil.WriteJPEG(t, second, "c.jpg", 32, 24, 3)
	h.run(context.Background())

	if err := os.RemoveAll(second); err != nil {
		t.Fatal(err)
	}
	testutil.WriteFile(t, filepath.Dir(second), "extra", []byte("now a file"))

	events, _ := h.run(context.Background())
	assertEvents(t, events, append([]string{
		"FolderInspected:" + filepath.Base(h.root),
		"FolderDeleted:extra",
	}, closing(backup.UpdatingMessage)...))

	if h.store.GetFolderByPath(second) != nil {
		t.Error("folder of a root that became a file should be removed")
	}
	if len(h.store.GetAllAssets()) != 1 {
		t.Errorf("remaining assets = %+v", h.store.GetAllAssets())
	}
}

func TestSynchronizeVideoFirstFrames(t *testing.T) {
	var frameDir string
	h := newHarness(t, func(o *Options) { o.AnalyseVideos = true })
	frameDir = filepath.Join(h.root, "firstframes")
	h.opts.FirstFrameDir = frameDir
	h.reopen()

	testutil.WriteJPEG(t, h.root, "a.jpg", 32, 24, 1)
	testutil.WriteFile(t, h.root, "clip.mp4", []byte("fake video"))

	events, _ := h.run(context.Background())
	assertEvents(t, events, append([]string{
		"FolderCreated:" + filepath.Base(h.root),
		"AssetCreated:a.jpg",
		"FolderCreated:firstframes",
		"AssetCreated:clip.jpg",
	}, closing(backup.CreatingMessage)...))

	if _, ok := h.store.GetAssetByName(frameDir, "clip.jpg"); !ok {
		t.Error("first frame should be catalogued in the first-frame folder")
	}
	if _, ok := h.store.GetAssetByName(h.root, "clip.mp4"); ok {
		t.Error("videos themselves are not catalogued")
	}

	events, _ = h.run(context.Background())
	assertEvents(t, events, append([]string{
		"FolderInspected:" + filepath.Base(h.root),
		"FolderInspected:firstframes",
	}, closing("")...))
	if h.frames.calls != 2 {
		t.Errorf("frame extractor called %d times, want 2", h.frames.calls)
	}
}

func TestSynchronizeNilCallback(t *testing.T) {
	h := newHarness(t, nil)
	testutil.WriteJPEG(t, h.root, "a.jpg", 32, 24, 1)

	summary := h.sync.Synchronize(context.Background(), nil)
	if summary.AssetsCreated != 1 || summary.Events != 6 {
		t.Errorf("unexpected summary %+v", summary)
	}
}
