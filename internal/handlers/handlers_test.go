package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/database"
	"media-catalog/internal/storage"
	"media-catalog/internal/synchronizer"
	"media-catalog/internal/testutil"
)

type mockRunner struct {
	ready     bool
	status    synchronizer.HealthStatus
	accept    bool
	triggered []synchronizer.Trigger
}

func (m *mockRunner) IsReady() bool { return m.ready }

func (m *mockRunner) GetHealthStatus() synchronizer.HealthStatus { return m.status }

func (m *mockRunner) TriggerRun(trigger synchronizer.Trigger) bool {
	m.triggered = append(m.triggered, trigger)
	return m.accept
}

type mockJournal struct {
	runs      []database.Run
	err       error
	lastLimit int
}

func (m *mockJournal) LastRuns(_ context.Context, limit int) ([]database.Run, error) {
	m.lastLimit = limit
	return m.runs, m.err
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(t.TempDir(), testutil.NewStubIDGenerator())
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	return store
}

// seedFolder adds a folder holding one asset with a thumbnail.
func seedFolder(t *testing.T, store *storage.Store, path, name string, thumb []byte) *catalog.Folder {
	t.Helper()
	folder, _ := store.UpsertFolder(path)
	assets := []catalog.Asset{{FileName: name, FileSize: 42, PixelWidth: 640, PixelHeight: 480}}
	if err := store.ReplaceAssetsForFolder(folder.ID, assets, map[string][]byte{name: thumb}); err != nil {
		t.Fatalf("ReplaceAssetsForFolder() error = %v", err)
	}
	return folder
}

func TestHealthCheck(t *testing.T) {
	finished := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		status     synchronizer.HealthStatus
		wantCode   int
		wantStatus string
	}{
		{
			name:       "starting",
			status:     synchronizer.HealthStatus{Syncing: true},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: statusStarting,
		},
		{
			name: "healthy",
			status: synchronizer.HealthStatus{
				Ready:   true,
				LastRun: &synchronizer.Summary{FinishedAt: finished},
			},
			wantCode:   http.StatusOK,
			wantStatus: statusHealthy,
		},
		{
			name:       "degraded",
			status:     synchronizer.HealthStatus{Ready: true, InitialRunError: "commit failed"},
			wantCode:   http.StatusOK,
			wantStatus: statusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(&mockRunner{status: tt.status}, newTestStore(t), nil, nil)

			rec := httptest.NewRecorder()
			h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}

			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if tt.status.LastRun != nil && resp.LastSynced == "" {
				t.Error("lastSynced should be set when a run finished")
			}
		})
	}
}

func TestLivenessCheck(t *testing.T) {
	h := New(&mockRunner{}, nil, nil, nil)

	rec := httptest.NewRecorder()
	h.LivenessCheck(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET status code = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.Len() == 0 {
		t.Error("GET should write a body")
	}

	rec = httptest.NewRecorder()
	h.LivenessCheck(rec, httptest.NewRequest(http.MethodHead, "/livez", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("HEAD status code = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD body length = %d, want 0", rec.Body.Len())
	}
}

func TestReadinessCheck(t *testing.T) {
	for _, ready := range []bool{false, true} {
		h := New(&mockRunner{ready: ready}, nil, nil, nil)
		rec := httptest.NewRecorder()
		h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		want := http.StatusServiceUnavailable
		if ready {
			want = http.StatusOK
		}
		if rec.Code != want {
			t.Errorf("ready=%v: status code = %d, want %d", ready, rec.Code, want)
		}
	}
}

func TestGetVersion(t *testing.T) {
	h := New(&mockRunner{}, nil, nil, nil)
	rec := httptest.NewRecorder()
	h.GetVersion(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
	var info map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if info["version"] == "" || info["goVersion"] == "" {
		t.Errorf("incomplete build info: %v", info)
	}
}

func TestTriggerSync(t *testing.T) {
	tests := []struct {
		name     string
		accept   bool
		wantCode int
	}{
		{name: "started", accept: true, wantCode: http.StatusAccepted},
		{name: "already running", accept: false, wantCode: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{accept: tt.accept}
			h := New(runner, newTestStore(t), nil, nil)

			rec := httptest.NewRecorder()
			h.TriggerSync(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			if len(runner.triggered) != 1 || runner.triggered[0] != synchronizer.TriggerManual {
				t.Errorf("triggered = %v, want [%s]", runner.triggered, synchronizer.TriggerManual)
			}
		})
	}
}

func TestGetStatus(t *testing.T) {
	store := newTestStore(t)
	seedFolder(t, store, filepath.Join(t.TempDir(), "photos"), "a.jpg", []byte{0xFF, 0xD8})

	h := New(&mockRunner{status: synchronizer.HealthStatus{Ready: true}}, store, nil, nil)
	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Ready {
		t.Error("ready = false, want true")
	}
	if resp.Catalog.TotalAssets != 1 || resp.Catalog.TotalFolders != 1 {
		t.Errorf("catalog = %+v, want 1 asset in 1 folder", resp.Catalog)
	}
	if !resp.HasChanges {
		t.Error("hasChanges = false before commit")
	}
}

func TestGetRuns(t *testing.T) {
	journal := &mockJournal{runs: []database.Run{{ID: 1, Trigger: "manual", Outcome: "completed"}}}

	tests := []struct {
		name      string
		journal   RunJournal
		query     string
		wantCode  int
		wantLimit int
	}{
		{name: "default limit", journal: journal, wantCode: http.StatusOK, wantLimit: defaultRunsLimit},
		{name: "explicit limit", journal: journal, query: "?limit=5", wantCode: http.StatusOK, wantLimit: 5},
		{name: "capped limit", journal: journal, query: "?limit=100000", wantCode: http.StatusOK, wantLimit: maxRunsLimit},
		{name: "invalid limit", journal: journal, query: "?limit=abc", wantCode: http.StatusBadRequest},
		{name: "no journal", journal: nil, wantCode: http.StatusServiceUnavailable},
		{name: "journal error", journal: &mockJournal{err: errors.New("disk I/O error")}, wantCode: http.StatusInternalServerError, wantLimit: defaultRunsLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(&mockRunner{}, nil, tt.journal, nil)
			rec := httptest.NewRecorder()
			h.GetRuns(rec, httptest.NewRequest(http.MethodGet, "/api/runs"+tt.query, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			if mj, ok := tt.journal.(*mockJournal); ok && tt.wantLimit > 0 && mj.lastLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", mj.lastLimit, tt.wantLimit)
			}
		})
	}
}

func TestListFoldersAndAssets(t *testing.T) {
	store := newTestStore(t)
	photos := filepath.Join(t.TempDir(), "photos")
	seedFolder(t, store, photos, "a.jpg", []byte{0xFF, 0xD8})
	h := New(&mockRunner{}, store, nil, nil)

	rec := httptest.NewRecorder()
	h.ListFolders(rec, httptest.NewRequest(http.MethodGet, "/api/folders", nil))
	var folders []FolderResponse
	if err := json.NewDecoder(rec.Body).Decode(&folders); err != nil {
		t.Fatalf("decode folders: %v", err)
	}
	if len(folders) != 1 || folders[0].Path != photos || folders[0].AssetCount != 1 {
		t.Errorf("folders = %+v", folders)
	}

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantCount int
	}{
		{name: "all assets", query: "", wantCode: http.StatusOK, wantCount: 1},
		{name: "by folder", query: "?path=" + photos, wantCode: http.StatusOK, wantCount: 1},
		{name: "unknown folder", query: "?path=" + filepath.Join(photos, "missing"), wantCode: http.StatusNotFound},
		{name: "relative path", query: "?path=photos", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ListAssets(rec, httptest.NewRequest(http.MethodGet, "/api/assets"+tt.query, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var assets []catalog.Asset
			if err := json.NewDecoder(rec.Body).Decode(&assets); err != nil {
				t.Fatalf("decode assets: %v", err)
			}
			if len(assets) != tt.wantCount {
				t.Errorf("got %d assets, want %d", len(assets), tt.wantCount)
			}
		})
	}
}

func TestGetThumbnail(t *testing.T) {
	store := newTestStore(t)
	photos := filepath.Join(t.TempDir(), "photos")
	thumb := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	seedFolder(t, store, photos, "a.jpg", thumb)
	h := New(&mockRunner{}, store, nil, nil)

	tests := []struct {
		name     string
		query    string
		wantCode int
	}{
		{name: "found", query: "?path=" + photos + "&name=a.jpg", wantCode: http.StatusOK},
		{name: "missing name", query: "?path=" + photos, wantCode: http.StatusBadRequest},
		{name: "unknown asset", query: "?path=" + photos + "&name=b.jpg", wantCode: http.StatusNotFound},
		{name: "unknown folder", query: "?path=/nowhere&name=a.jpg", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.GetThumbnail(rec, httptest.NewRequest(http.MethodGet, "/api/thumbnail"+tt.query, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK {
				if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
					t.Errorf("Content-Type = %q, want image/jpeg", ct)
				}
				if rec.Body.String() != string(thumb) {
					t.Errorf("body = %x, want %x", rec.Body.Bytes(), thumb)
				}
			}
		})
	}
}
