package scheduler

import (
	"time"

	"github.com/trungvx/schedq/internal/metrics"
	"github.com/trungvx/schedq/internal/state"
)

// Cancel is advisory: only a pending task can be cancelled. Running
// tasks are left alone and the call reports false.
func (s *scheduler) Cancel(id string) bool {
	var p state.Priority

	ok, err := s.store.Update(id, func(t *state.Task) bool {
		if t.Status != state.TaskStatusPending {
			return false
		}
		now := time.Now()
		t.Status = state.TaskStatusCanceled
		t.CompletedAt = &now
		p = t.Priority
		return true
	})
	if err != nil || !ok {
		return false
	}

	s.lanes.Remove(p, id)
	s.stats.IncCancelled()
	s.sink.Increment(metrics.EventCancelled)

	s.logger.
		With("task_id", id).
		Info("task cancelled")
	return true
}
