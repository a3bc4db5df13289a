package scheduler

import (
	"time"

	"github.com/trungvx/schedq/internal/metrics"
	"github.com/trungvx/schedq/internal/retry"
	"github.com/trungvx/schedq/internal/state"
)

// complete routes an execution outcome to the terminal or retry path.
// Failures are absorbed into the task's own state and never propagate.
func (s *scheduler) complete(id string, result any, execErr error, latency time.Duration) {
	if execErr == nil {
		s.completeSuccess(id, result, latency)
		return
	}
	s.completeFailure(id, execErr, latency)
}

func (s *scheduler) completeSuccess(id string, result any, latency time.Duration) {
	ok, err := s.store.Update(id, func(t *state.Task) bool {
		if t.Status != state.TaskStatusRunning {
			return false
		}
		now := time.Now()
		t.Status = state.TaskStatusCompleted
		t.Result = result
		t.CompletedAt = &now
		return true
	})
	if err != nil || !ok {
		return
	}

	s.stats.IncCompleted()
	s.stats.Observe(latency, true)
	s.sink.Increment(metrics.EventCompleted)
	s.sink.Observe(metrics.ObsLatencySeconds, latency.Seconds())

	s.logger.
		With("task_id", id).
		With("latency", latency).
		Debug("task completed")
}

func (s *scheduler) completeFailure(id string, execErr error, latency time.Duration) {
	var (
		retrying bool
		delay    time.Duration
		attempts int
	)

	ok, err := s.store.Update(id, func(t *state.Task) bool {
		if t.Status != state.TaskStatusRunning {
			return false
		}

		pol := retry.Policy{
			MaxRetries: t.MaxRetries,
			BaseDelay:  t.RetryDelay,
			Factor:     s.cfg.BackoffFactor,
			MaxDelay:   s.cfg.MaxRetryDelay,
		}.FillDefaults()

		// decide before counting so RetryCount tops out at MaxRetries
		if pol.Allow(t.RetryCount) {
			t.RetryCount++
			attempts = t.RetryCount
			t.Status = state.TaskStatusRetrying
			t.Err = execErr
			delay = pol.Delay(t.RetryCount)
			retrying = true
		} else {
			attempts = t.RetryCount
			now := time.Now()
			t.Status = state.TaskStatusFailed
			t.Err = execErr
			t.CompletedAt = &now
		}
		return true
	})
	if err != nil || !ok {
		return
	}

	if retrying {
		s.sink.Increment(metrics.EventRetried)
		s.logger.
			With("task_id", id).
			With("err", execErr).
			With("attempt", attempts).
			With("delay", delay).
			Warn("task failed, scheduling retry")
		s.scheduleRetry(id, delay)
		return
	}

	s.stats.IncFailed()
	s.stats.Observe(latency, false)
	s.sink.Increment(metrics.EventFailed)
	s.sink.Observe(metrics.ObsLatencySeconds, latency.Seconds())

	s.logger.
		With("task_id", id).
		With("err", execErr).
		With("retries", attempts).
		Error("task failed permanently")
}

// scheduleRetry re-enqueues the task after its backoff delay. The wait
// happens on a timer and never occupies a concurrency slot.
func (s *scheduler) scheduleRetry(id string, delay time.Duration) {
	timer := time.AfterFunc(delay, func() {
		s.timersMu.Lock()
		delete(s.timers, id)
		s.timersMu.Unlock()

		if s.isStopped() {
			return
		}

		var p state.Priority
		ok, err := s.store.Update(id, func(t *state.Task) bool {
			if t.Status != state.TaskStatusRetrying {
				return false
			}
			t.Status = state.TaskStatusPending
			t.StartedAt = nil
			t.CompletedAt = nil
			t.Err = nil
			p = t.Priority
			return true
		})
		if err != nil || !ok {
			return
		}

		s.lanes.Push(p, id)

		s.logger.
			With("task_id", id).
			Debug("task re-enqueued after backoff")
	})

	s.timersMu.Lock()
	s.timers[id] = timer
	s.timersMu.Unlock()
}
