package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "github.com/trungvx/schedq/internal/errors"
	"github.com/trungvx/schedq/internal/state"
)

type outcome struct {
	result any
	err    error
}

// execute runs one task body off the dispatch loop. The slot is
// released when the invocation returns or its deadline expires,
// whichever comes first.
func (s *scheduler) execute(id string, inv state.Invocable, timeout time.Duration) {
	defer s.execWg.Done()
	defer s.running.Add(-1)

	start := time.Now()
	result, err := s.invoke(inv, timeout)
	s.complete(id, result, err, time.Since(start))
}

// invoke bounds the invocation with a deadline and converts panics into
// execution errors so a single task can never take down the loop.
//
// Cancellation is cooperative: a body that ignores its context keeps
// running in the background after the deadline, but its slot and its
// task record are released here regardless.
func (s *scheduler) invoke(inv state.Invocable, timeout time.Duration) (any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("%w: panic: %v", errs.ErrExecution, r)}
			}
		}()

		result, err := inv.Call(ctx)
		ch <- outcome{result: result, err: err}
	}()

	select {
	case out := <-ch:
		if out.err == nil {
			return out.result, nil
		}
		if errors.Is(out.err, errs.ErrExecution) || errors.Is(out.err, errs.ErrTimeout) {
			return nil, out.err
		}
		if errors.Is(out.err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", errs.ErrTimeout, timeout)
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrExecution, out.err)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w after %s", errs.ErrTimeout, timeout)
	}
}
