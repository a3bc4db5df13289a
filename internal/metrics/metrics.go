// Package metrics defines the sink the scheduler emits telemetry
// through. How the numbers are stored or exported is the sink's
// business, not the scheduler's.
package metrics

// Well-known event and observation names emitted by the scheduler.
const (
	EventSubmitted = "tasks_submitted"
	EventCompleted = "tasks_completed"
	EventFailed    = "tasks_failed"
	EventCancelled = "tasks_cancelled"
	EventRetried   = "tasks_retried"

	ObsLatencySeconds = "task_latency_seconds"
	ObsUtilization    = "utilization"
)

// Sink receives counters and gauges from the scheduler.
//
// Implementations must be safe for concurrent use and keep both methods
// lightweight; they are called on the scheduler's hot paths.
type Sink interface {
	// Increment bumps the named counter by one.
	Increment(name string)

	// Observe records one value of the named measurement.
	Observe(name string, value float64)
}

// NoopSink discards all telemetry. Used when metrics collection is
// disabled.
type NoopSink struct{}

func (NoopSink) Increment(name string)              {}
func (NoopSink) Observe(name string, value float64) {}
