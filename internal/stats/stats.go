// Package stats aggregates scheduler counters and a bounded rolling
// window of recent execution samples.
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

const DefaultWindowSize = 100

type sample struct {
	latency time.Duration
	ok      bool
}

// Registry is safe for concurrent use. Counter writes are lock-free;
// the sample window is guarded by a mutex.
type Registry struct {
	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	cancelled atomic.Uint64

	mu     sync.Mutex
	window []sample
	next   int
	filled int
}

func NewRegistry(windowSize int) *Registry {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Registry{
		window: make([]sample, windowSize),
	}
}

func (r *Registry) IncSubmitted() { r.submitted.Add(1) }
func (r *Registry) IncCompleted() { r.completed.Add(1) }
func (r *Registry) IncFailed()    { r.failed.Add(1) }
func (r *Registry) IncCancelled() { r.cancelled.Add(1) }

// Observe records one terminal execution sample into the rolling window.
func (r *Registry) Observe(latency time.Duration, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.window[r.next] = sample{latency: latency, ok: ok}
	r.next = (r.next + 1) % len(r.window)
	if r.filled < len(r.window) {
		r.filled++
	}
}

// QueueStats is a point-in-time view of scheduler activity.
type QueueStats struct {
	Submitted uint64
	Pending   int
	Running   int
	Completed uint64
	Failed    uint64
	Cancelled uint64

	// SuccessRate is completed over all submissions observed so far.
	SuccessRate float64

	// AvgLatency is averaged over the rolling sample window.
	AvgLatency time.Duration

	// Utilization is running over the concurrency ceiling.
	Utilization float64
}

// Snapshot assembles QueueStats from the registry counters plus the
// caller-supplied live counts.
func (r *Registry) Snapshot(pending, running, ceiling int) QueueStats {
	qs := QueueStats{
		Submitted: r.submitted.Load(),
		Pending:   pending,
		Running:   running,
		Completed: r.completed.Load(),
		Failed:    r.failed.Load(),
		Cancelled: r.cancelled.Load(),
	}

	if qs.Submitted > 0 {
		qs.SuccessRate = float64(qs.Completed) / float64(qs.Submitted)
	}
	if ceiling > 0 {
		qs.Utilization = float64(running) / float64(ceiling)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.filled > 0 {
		var total time.Duration
		for i := 0; i < r.filled; i++ {
			total += r.window[i].latency
		}
		qs.AvgLatency = total / time.Duration(r.filled)
	}

	return qs
}
