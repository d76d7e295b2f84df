package memory

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestMonitor(limit int64) *Monitor {
	cfg := DefaultConfig()
	cfg.LimitBytes = limit
	cfg.CheckInterval = 10 * time.Millisecond
	return NewMonitor(cfg)
}

func TestMonitorPauseAndResume(t *testing.T) {
	m := newTestMonitor(1000)

	m.observe(500)
	if m.Paused() {
		t.Fatal("paused at 50% usage")
	}
	if got := m.Usage(); got != 0.5 {
		t.Errorf("Usage() = %v, want 0.5", got)
	}

	m.observe(900)
	if !m.Paused() {
		t.Fatal("not paused at 90% usage")
	}

	// Between the marks the state holds.
	m.observe(800)
	if !m.Paused() {
		t.Fatal("resumed above the high water mark")
	}

	done := make(chan error, 1)
	go func() { done <- m.Wait(context.Background()) }()

	select {
	case <-done:
		t.Fatal("Wait returned while paused")
	case <-time.After(20 * time.Millisecond):
	}

	m.observe(100)
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after memory recovered")
	}
}

func TestMonitorWaitHonoursContext(t *testing.T) {
	m := newTestMonitor(1000)
	m.observe(950)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestMonitorStopReleasesWaiters(t *testing.T) {
	m := newTestMonitor(1000)
	m.Start()
	m.observe(950)

	done := make(chan error, 1)
	go func() { done <- m.Wait(context.Background()) }()

	m.Stop()
	m.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Stop")
	}
}

func TestNilMonitor(t *testing.T) {
	var m *Monitor
	m.Start()
	m.Stop()
	if err := m.Wait(context.Background()); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
	if m.Paused() || m.Usage() != 0 || m.Limit() != 0 {
		t.Error("nil monitor should report no pressure")
	}
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		current    int64
		wantSource string
		wantSet    int64
		wantRatio  float64
	}{
		{
			name:       "nothing set",
			env:        map[string]string{},
			wantSource: SourceNone,
		},
		{
			name:       "GOMEMLIMIT wins",
			env:        map[string]string{"GOMEMLIMIT": "512MiB", "MEMORY_LIMIT": "1073741824"},
			current:    512 << 20,
			wantSource: SourceGoMemLimit,
		},
		{
			name:       "container limit with default ratio",
			env:        map[string]string{"MEMORY_LIMIT": "1000000"},
			wantSource: SourceMemoryLimit,
			wantSet:    850000,
			wantRatio:  DefaultMemoryRatio,
		},
		{
			name:       "custom ratio",
			env:        map[string]string{"MEMORY_LIMIT": "1000000", "MEMORY_RATIO": "0.5"},
			wantSource: SourceMemoryLimit,
			wantSet:    500000,
			wantRatio:  0.5,
		},
		{
			name:       "ratio out of range",
			env:        map[string]string{"MEMORY_LIMIT": "1000000", "MEMORY_RATIO": "1.5"},
			wantSource: SourceMemoryLimit,
			wantSet:    850000,
			wantRatio:  DefaultMemoryRatio,
		},
		{
			name:       "invalid limit",
			env:        map[string]string{"MEMORY_LIMIT": "lots"},
			wantSource: SourceNone,
		},
		{
			name:       "negative limit",
			env:        map[string]string{"MEMORY_LIMIT": "-5"},
			wantSource: SourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var set int64
			setLimit := func(v int64) int64 {
				if v < 0 {
					return tt.current
				}
				set = v
				return tt.current
			}

			got := configure(func(k string) string { return tt.env[k] }, setLimit)

			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
			if set != tt.wantSet {
				t.Errorf("limit set to %d, want %d", set, tt.wantSet)
			}
			if tt.wantSet > 0 && (got.GoMemLimit != tt.wantSet || got.Ratio != tt.wantRatio || !got.Configured) {
				t.Errorf("result = %+v", got)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1 << 20, "1.0 MiB"},
		{5 << 30, "5.0 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
