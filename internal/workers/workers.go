package workers

import (
	"os"
	"runtime"
	"strconv"
	"sync"
)

// OverrideEnv names the environment variable that fixes the worker count.
const OverrideEnv = "CATALOG_WORKERS"

// Count returns multiplier workers per available CPU, at least one and at
// most limit. A limit of 0 means no cap.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(OverrideEnv); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	workers := max(int(float64(runtime.GOMAXPROCS(0))*multiplier), 1)
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForMixed returns worker count for mixed tasks such as thumbnailing
// (1.5 per CPU).
func ForMixed(limit int) int {
	return Count(1.5, limit)
}

// Requested returns the worker count asked for through OverrideEnv, at most
// limit: a number, or "auto" for ForMixed. Without a request it returns 1.
func Requested(limit int) int {
	v := os.Getenv(OverrideEnv)
	if v == "auto" {
		return ForMixed(limit)
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return Count(1.0, limit)
	}
	return 1
}

// Group runs jobs with bounded concurrency.
type Group struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

// NewGroup creates a Group running at most n jobs at once. n < 1 is
// treated as 1.
func NewGroup(n int) *Group {
	return &Group{sem: make(chan struct{}, max(n, 1))}
}

// Size returns the concurrency bound.
func (g *Group) Size() int {
	return cap(g.sem)
}

// Wait blocks until every submitted job has finished.
func (g *Group) Wait() {
	g.wg.Wait()
}

// Future is the pending result of a submitted job.
type Future[T any] struct {
	done chan struct{}
	val  T
}

// Get blocks until the job finishes and returns its result.
func (f *Future[T]) Get() T {
	<-f.done
	return f.val
}

// Submit starts fn on g once a slot is free. It does not block the caller.
func Submit[T any](g *Group, fn func() T) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.sem <- struct{}{}
		defer func() { <-g.sem }()
		defer close(f.done)
		f.val = fn()
	}()
	return f
}
