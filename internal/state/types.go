package state

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trungvx/schedq/internal/utils"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCanceled  TaskStatus = "canceled"
	TaskStatusRetrying  TaskStatus = "retrying"
)

// IsTerminal reports whether no further transitions can occur.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCanceled:
		return true
	default:
		return false
	}
}

// Priority orders tasks across lanes. Higher values dispatch first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(s) {
	case "", "normal":
		return PriorityNormal, nil
	case "low":
		return PriorityLow, nil
	case "high":
		return PriorityHigh, nil
	case "critical":
		return PriorityCritical, nil
	default:
		return PriorityNormal, fmt.Errorf("unknown priority %q", s)
	}
}

// Invocable is one unit of work. The context carries the execution
// deadline; well-behaved bodies observe it. Bodies that do not may keep
// running past their nominal timeout, which is a known limitation.
type Invocable interface {
	Call(ctx context.Context) (any, error)
}

// InvocableFunc adapts a plain function to Invocable.
type InvocableFunc func(ctx context.Context) (any, error)

func (f InvocableFunc) Call(ctx context.Context) (any, error) {
	return f(ctx)
}

// Task is one unit of submitted work. The scheduler exclusively owns the
// record for its entire lifetime; everything mutable on it is written
// through Store.Update.
//
// ID, Name, Priority, Invocation, Dependencies, Timeout, MaxRetries,
// RetryDelay, Tags and Metadata are immutable once recorded.
type Task struct {
	ID           string
	Name         string
	Priority     Priority
	Status       TaskStatus
	Invocation   Invocable
	Dependencies []string
	Timeout      time.Duration
	MaxRetries   int
	RetryCount   int
	RetryDelay   time.Duration

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	// Result and Err are mutually exclusive and populated only in a
	// terminal state.
	Result any
	Err    error

	Tags     []string
	Metadata map[string]any

	// Stuck marks a task observed running past twice its timeout.
	// Diagnostic only.
	Stuck bool

	// Rotations counts how many times the task was visited in its lane
	// and found ineligible. Diagnostic only.
	Rotations int

	done chan utils.Empty
}

func NewTask(name string, inv Invocable) *Task {
	return &Task{
		Name:       name,
		Invocation: inv,
		Status:     TaskStatusPending,
		CreatedAt:  time.Now(),
	}
}

// Done returns a channel closed when the task reaches a terminal state.
// All terminal fields are safe to read after it is closed.
func (t *Task) Done() <-chan utils.Empty {
	return t.done
}
