package errs

import "fmt"

var (
	ErrNotFound      = fmt.Errorf("not found")
	ErrAlreadyExists = fmt.Errorf("already exists")

	// ErrValidation marks a malformed submission, rejected before a task
	// record is created.
	ErrValidation = fmt.Errorf("invalid submission")

	// ErrQueueFull is returned by Submit when the total number of tracked
	// tasks has reached the queue size ceiling.
	ErrQueueFull = fmt.Errorf("queue is full")

	// ErrStopped is returned by Submit when the scheduler is not running.
	ErrStopped = fmt.Errorf("scheduler is stopped")

	// ErrExecution marks a failure raised by the task's own invocation.
	ErrExecution = fmt.Errorf("execution failed")

	// ErrTimeout marks an invocation that exceeded its execution bound.
	// It drives the same retry decision as ErrExecution but is recorded
	// distinctly for diagnostics.
	ErrTimeout = fmt.Errorf("execution timed out")

	// ErrResultTimeout is returned when AwaitResult gives up waiting.
	// Distinct from the task's own execution timeout.
	ErrResultTimeout = fmt.Errorf("result wait timed out")

	// ErrTaskCanceled is returned when awaiting a task that was cancelled
	// before it could run.
	ErrTaskCanceled = fmt.Errorf("task canceled")
)

func NewErrNotFound(kind string) error {
	return fmt.Errorf("%s %w", kind, ErrNotFound)
}

func NewErrAlreadyExists(kind string) error {
	return fmt.Errorf("%s %w", kind, ErrAlreadyExists)
}

func NewErrValidation(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}
