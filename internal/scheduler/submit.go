package scheduler

import (
	"fmt"
	"time"

	errs "github.com/trungvx/schedq/internal/errors"
	"github.com/trungvx/schedq/internal/metrics"
	"github.com/trungvx/schedq/internal/state"
	"github.com/trungvx/schedq/internal/utils"
)

func (s *scheduler) Submit(t *state.Task) (id string, err error) {
	if err = validateTask(t); err != nil {
		s.logger.
			With("err", err).
			With("name", t.Name).
			Error("unable to submit, invalid task")
		return
	}

	if s.isStopped() {
		return "", errs.ErrStopped
	}

	id, err = s.submitTask(t)
	if err != nil {
		s.logger.
			With("err", err).
			With("name", t.Name).
			Error("failed to submit task")
		return
	}

	s.stats.IncSubmitted()
	s.sink.Increment(metrics.EventSubmitted)

	s.logger.
		With("task_id", id).
		With("name", t.Name).
		With("priority", t.Priority).
		Debug("task submitted")
	return id, nil
}

func validateTask(t *state.Task) (err error) {
	if len(t.Name) == 0 {
		return errs.NewErrValidation("name is required")
	}

	if t.Invocation == nil {
		return errs.NewErrValidation("invocation is required")
	}

	if !t.Priority.Valid() {
		return errs.NewErrValidation(fmt.Sprintf("unknown priority %d", t.Priority))
	}

	if t.Timeout < 0 {
		return errs.NewErrValidation("timeout must be greater than or equal to 0")
	}

	if t.MaxRetries < 0 {
		return errs.NewErrValidation("max retries must be greater than or equal to 0")
	}

	if t.RetryDelay < 0 {
		return errs.NewErrValidation("retry delay must be greater than or equal to 0")
	}

	seen := make(utils.UniqueSet, len(t.Dependencies))
	for _, dep := range t.Dependencies {
		if len(dep) == 0 {
			return errs.NewErrValidation("dependency id must not be empty")
		}
		if seen.AlreadyExists(dep) {
			return errs.NewErrValidation(fmt.Sprintf("duplicate dependency %q", dep))
		}
		seen.Add(dep)
	}

	return nil
}

func (s *scheduler) submitTask(t *state.Task) (id string, err error) {
	if t.Timeout == 0 {
		t.Timeout = s.cfg.DefaultTimeout
	}
	if t.RetryDelay == 0 {
		t.RetryDelay = s.cfg.DefaultRetryDelay
	}
	t.Status = state.TaskStatusPending
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	// the lock keeps the size check and the insert atomic across
	// concurrent submitters
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	if s.store.Len() >= s.cfg.MaxQueueSize {
		return "", errs.ErrQueueFull
	}

	id, err = s.store.Record(t)
	if err != nil {
		return "", fmt.Errorf("failed to record task: %w", err)
	}

	s.lanes.Push(t.Priority, id)
	return id, nil
}
