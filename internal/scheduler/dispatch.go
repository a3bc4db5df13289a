package scheduler

import (
	"time"

	"github.com/trungvx/schedq/internal/state"
)

func (s *scheduler) loop() {
	defer s.bgWg.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			s.logger.Info("dispatch loop stopping")
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick dispatches eligible tasks until the concurrency ceiling is
// reached or no eligible task remains.
func (s *scheduler) tick() {
	for int(s.running.Load()) < s.cfg.MaxConcurrent {
		id, found := s.lanes.Next(s.eligible)
		if !found {
			return
		}
		s.dispatch(id)
	}
}

// eligible reports whether a lane entry is ready to run: still pending
// with every dependency completed. Unknown IDs count as eligible so the
// lane sheds them; dispatch drops them on the floor.
func (s *scheduler) eligible(id string) bool {
	t, err := s.store.Get(id)
	if err != nil {
		return true
	}

	if t.Status != state.TaskStatusPending {
		return true
	}

	for _, dep := range t.Dependencies {
		d, err := s.store.Get(dep)
		if err != nil {
			// evicted from history; a tracked dependency can only
			// leave the registry after reaching a terminal state
			continue
		}
		if d.Status != state.TaskStatusCompleted {
			s.noteRotation(id)
			return false
		}
	}

	return true
}

// noteRotation bumps the task's stale-rotation counter and warns once
// when it crosses the limit. An entry that rotates forever points at a
// dependency cycle or a dependency that terminated without completing;
// it is flagged but never force-failed.
func (s *scheduler) noteRotation(id string) {
	crossed := false
	_, _ = s.store.Update(id, func(t *state.Task) bool {
		t.Rotations++
		crossed = t.Rotations == s.cfg.StaleRotationLimit
		return true
	})

	if crossed {
		s.logger.
			With("task_id", id).
			With("rotations", s.cfg.StaleRotationLimit).
			Warn("task rotated past stale limit, dependencies may be cyclic or unsatisfiable")
	}
}

func (s *scheduler) dispatch(id string) {
	var (
		inv     state.Invocable
		timeout time.Duration
	)

	ok, err := s.store.Update(id, func(t *state.Task) bool {
		if t.Status != state.TaskStatusPending {
			return false
		}
		now := time.Now()
		t.Status = state.TaskStatusRunning
		t.StartedAt = &now
		inv = t.Invocation
		timeout = t.Timeout
		return true
	})
	if err != nil || !ok {
		// gone or no longer pending; the lane already dropped it
		return
	}

	s.running.Add(1)
	s.execWg.Add(1)
	go s.execute(id, inv, timeout)

	s.logger.
		With("task_id", id).
		With("running", s.running.Load()).
		Debug("task dispatched")
}
