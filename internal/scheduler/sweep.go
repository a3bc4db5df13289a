package scheduler

import (
	"sort"
	"time"

	"github.com/trungvx/schedq/internal/state"
)

// sweep runs the periodic health check and history cleanup.
func (s *scheduler) sweep() {
	defer s.bgWg.Done()

	timer := time.NewTimer(s.cfg.CleanupInterval)
	defer timer.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-timer.C:
			s.flagStuck()
			s.cleanup()
			timer.Reset(s.cfg.CleanupInterval)
		}
	}
}

// flagStuck marks tasks running longer than twice their timeout.
// Diagnostic only; the work itself is never terminated here.
func (s *scheduler) flagStuck() {
	now := time.Now()

	var stuck []string
	s.store.Each(func(t *state.Task) {
		if t.Status != state.TaskStatusRunning || t.Stuck {
			return
		}
		if t.StartedAt == nil {
			return
		}
		if now.Sub(*t.StartedAt) > 2*t.Timeout {
			t.Stuck = true
			stuck = append(stuck, t.ID)
		}
	})

	for _, id := range stuck {
		s.logger.
			With("task_id", id).
			Warn("task running past twice its timeout, flagged as stuck")
	}
}

type expired struct {
	id          string
	completedAt time.Time
}

// cleanup evicts terminal tasks past the retention window and trims the
// remaining history to the configured cap, oldest first.
func (s *scheduler) cleanup() {
	cutoff := time.Now().Add(-s.cfg.RetentionPeriod)

	var terminal []expired
	s.store.Each(func(t *state.Task) {
		if !t.Status.IsTerminal() || t.CompletedAt == nil {
			return
		}
		terminal = append(terminal, expired{id: t.ID, completedAt: *t.CompletedAt})
	})

	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].completedAt.Before(terminal[j].completedAt)
	})

	evicted := 0
	remaining := len(terminal)
	for _, e := range terminal {
		overCap := remaining > s.cfg.MaxTaskHistory
		if !overCap && !e.completedAt.Before(cutoff) {
			break
		}
		if s.store.Delete(e.id) {
			evicted++
			remaining--
		}
	}

	if evicted > 0 {
		s.logger.
			With("count", evicted).
			Debug("evicted terminal tasks from history")
	}
}

// ClearHistory evicts every terminal task immediately and returns how
// many were removed.
func (s *scheduler) ClearHistory() int {
	var ids []string
	s.store.Each(func(t *state.Task) {
		if t.Status.IsTerminal() {
			ids = append(ids, t.ID)
		}
	})

	cleared := 0
	for _, id := range ids {
		if s.store.Delete(id) {
			cleared++
		}
	}

	s.logger.
		With("count", cleared).
		Info("task history cleared")
	return cleared
}
