package memory

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// Config holds memory monitor configuration
type Config struct {
	// LimitBytes is the heap limit. Zero means GOMEMLIMIT, if any.
	LimitBytes int64
	// HighWaterMark is the usage ratio below which paused work resumes.
	HighWaterMark float64
	// CriticalWaterMark is the usage ratio at which work pauses.
	CriticalWaterMark float64
	CheckInterval     time.Duration
}

// DefaultConfig returns sensible defaults for memory management
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor tracks heap usage and pauses callers of Wait under pressure.
// A nil *Monitor never pauses.
type Monitor struct {
	config Config
	limit  int64

	mu      sync.RWMutex
	current uint64
	paused  bool
	resume  chan struct{}

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMonitor creates a new memory monitor
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < math.MaxInt64 {
			limit = l
		}
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no memory limit configured, backpressure disabled")
	}

	return &Monitor{
		config: config,
		limit:  limit,
		resume: make(chan struct{}),
		stop:   make(chan struct{}),
	}
}

// Limit returns the heap limit in bytes, or zero when unlimited.
func (m *Monitor) Limit() int64 {
	if m == nil {
		return 0
	}
	return m.limit
}

// Start begins sampling. It does nothing without a limit.
func (m *Monitor) Start() {
	if m == nil || m.limit == 0 {
		return
	}
	go m.loop()
}

// Stop ends sampling and releases any waiters. Safe to call more than once.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			m.observe(stats.Alloc)
		case <-m.stop:
			return
		}
	}
}

// observe records a heap sample and updates the paused state.
func (m *Monitor) observe(alloc uint64) {
	if m.limit <= 0 {
		return
	}
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = alloc

	switch {
	case usage >= m.config.CriticalWaterMark && !m.paused:
		logging.Warn("Memory critical (%.1f%% of limit), pausing thumbnail work", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPausesTotal.Inc()
		go runtime.GC()
	case usage < m.config.HighWaterMark && m.paused:
		logging.Info("Memory recovered (%.1f%% of limit), resuming thumbnail work", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
	}
}

// Wait blocks while memory is critical. It returns ctx.Err() if ctx ends
// first, and nil once work may proceed or the monitor stops.
func (m *Monitor) Wait(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return nil
	}
	resume := m.resume
	m.mu.RUnlock()

	select {
	case <-resume:
		return nil
	case <-m.stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether work is currently held back.
func (m *Monitor) Paused() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the last sampled heap usage as a fraction of the limit.
func (m *Monitor) Usage() float64 {
	if m == nil || m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) / float64(m.limit)
}
