package scheduler

import (
	"fmt"
	"time"

	errs "github.com/trungvx/schedq/internal/errors"
	"github.com/trungvx/schedq/internal/state"
)

// Await blocks the calling goroutine only. Terminal fields are safe to
// read once the task's done channel closes; the store closes it after
// the terminal transition completes.
func (s *scheduler) Await(id string, timeout time.Duration) (any, error) {
	t, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	var expire <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expire = timer.C
	}

	select {
	case <-t.Done():
	case <-expire:
		return nil, fmt.Errorf("%w after %s", errs.ErrResultTimeout, timeout)
	}

	switch t.Status {
	case state.TaskStatusCompleted:
		return t.Result, nil
	case state.TaskStatusCanceled:
		return nil, errs.ErrTaskCanceled
	default:
		if t.Err != nil {
			return nil, t.Err
		}
		return nil, fmt.Errorf("%w: no error recorded", errs.ErrExecution)
	}
}
