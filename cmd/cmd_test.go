package cmd

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/handlers"
	"media-catalog/internal/startup"
	"media-catalog/internal/synchronizer"
)

type idleRunner struct{}

func (idleRunner) IsReady() bool                              { return true }
func (idleRunner) GetHealthStatus() synchronizer.HealthStatus { return synchronizer.HealthStatus{Ready: true} }
func (idleRunner) TriggerRun(synchronizer.Trigger) bool       { return true }

func TestRootCmdSubcommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	sort.Strings(names)

	for _, want := range []string{"backup", "serve", "status", "sync"} {
		i := sort.SearchStrings(names, want)
		if i >= len(names) || names[i] != want {
			t.Errorf("missing subcommand %q in %v", want, names)
		}
	}

	for _, flag := range []string{"config", "verbose"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestSetupRouter(t *testing.T) {
	router := setupRouter(handlers.New(idleRunner{}, nil, nil, nil))

	routes, err := startup.GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}

	paths := make(map[string]bool)
	for _, r := range routes {
		paths[r.Path] = true
	}
	for _, want := range []string{"/healthz", "/livez", "/readyz", "/version", "/metrics",
		"/api/sync", "/api/status", "/api/runs", "/api/folders", "/api/assets", "/api/thumbnail"} {
		if !paths[want] {
			t.Errorf("route %s not registered", want)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	if rec.Code != http.StatusAccepted {
		t.Errorf("POST /api/sync status = %d, want %d", rec.Code, http.StatusAccepted)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sync", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/sync status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("405 Content-Type = %q, want application/json", ct)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/folders", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE /api/folders status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /api/unknown status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSyncOptions(t *testing.T) {
	cfg := startup.DefaultConfig()
	cfg.AssetDirs = []string{"/photos", "/scans"}
	cfg.BatchSize = 7
	cfg.FirstFrameDir = "/catalog/firstframes"

	opts := syncOptions(cfg, true)

	if len(opts.Roots) != 2 || opts.Roots[1] != "/scans" {
		t.Errorf("Roots = %v", opts.Roots)
	}
	if opts.BatchSize != 7 {
		t.Errorf("BatchSize = %d, want 7", opts.BatchSize)
	}
	if opts.ThumbnailMaxWidth != 200 || opts.ThumbnailMaxHeight != 150 {
		t.Errorf("thumbnail bounds = %dx%d, want 200x150", opts.ThumbnailMaxWidth, opts.ThumbnailMaxHeight)
	}
	if !opts.AnalyseVideos || opts.FirstFrameDir != cfg.FirstFrameDir {
		t.Errorf("video options = %v %q", opts.AnalyseVideos, opts.FirstFrameDir)
	}
}

func TestDescribeEvent(t *testing.T) {
	folder := &catalog.Folder{ID: "folder-1", Path: filepath.FromSlash("/photos/2024")}
	asset := &catalog.Asset{FileName: "a.jpg"}

	tests := []struct {
		name  string
		event catalog.ChangeEvent
		want  string
	}{
		{name: "folder", event: catalog.ChangeEvent{Folder: folder, Reason: catalog.ReasonFolderCreated}, want: "FolderCreated"},
		{name: "asset", event: catalog.ChangeEvent{Folder: folder, Asset: asset, Reason: catalog.ReasonAssetCreated}, want: filepath.Join(folder.Path, "a.jpg")},
		{name: "message", event: catalog.ChangeEvent{Message: "Creating backup..."}, want: "Creating backup..."},
		{name: "error", event: catalog.ChangeEvent{Err: errors.New("boom"), Message: "boom"}, want: "error: boom"},
		{name: "terminator", event: catalog.ChangeEvent{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describeEvent(tt.event)
			if tt.want == "" {
				if got != "" {
					t.Errorf("describeEvent() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("describeEvent() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestProgressPrinter(t *testing.T) {
	folder := &catalog.Folder{ID: "folder-1", Path: "/photos"}
	events := []catalog.ChangeEvent{
		{Folder: folder, Reason: catalog.ReasonFolderCreated},
		{Folder: folder, Asset: &catalog.Asset{FileName: "a.jpg"}, Reason: catalog.ReasonAssetCreated},
		{},
	}

	t.Run("plain output", func(t *testing.T) {
		var buf bytes.Buffer
		p := &progressPrinter{out: &buf}
		for _, e := range events {
			p.handle(e)
		}
		if lines := strings.Count(buf.String(), "\n"); lines != 2 {
			t.Errorf("printed %d lines, want 2:\n%s", lines, buf.String())
		}
		if p.events != 3 {
			t.Errorf("events = %d, want 3", p.events)
		}
	})

	t.Run("interactive output", func(t *testing.T) {
		var buf bytes.Buffer
		p := &progressPrinter{out: &buf, interactive: true, width: 40}
		for _, e := range events {
			p.handle(e)
		}
		if strings.Contains(buf.String(), "\n") {
			t.Errorf("interactive output should stay on one line: %q", buf.String())
		}
		if !strings.HasPrefix(buf.String(), "\r[1] ") {
			t.Errorf("output = %q, want a counted status line", buf.String())
		}
		p.clear()
		if p.lastLen != 0 {
			t.Error("clear() should reset the status line")
		}
	})
}

func TestPrintSummary(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	summary := synchronizer.Summary{
		StartedAt:      start,
		FinishedAt:     start.Add(1500 * time.Millisecond),
		AssetsCreated:  3,
		BatchExhausted: true,
		Committed:      true,
		Backup:         "created",
		Errors:         []string{"failed to read /photos/x.jpg"},
	}

	var buf bytes.Buffer
	printSummary(&buf, summary)
	out := buf.String()

	for _, want := range []string{"batch_exhausted", "1.5s", "3 created", "Backup:  created", "/photos/x.jpg"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
