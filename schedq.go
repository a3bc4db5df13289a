// Package schedq is an in-process asynchronous priority task scheduler.
//
// Callers submit named units of work; the scheduler orders them by
// priority, gates them on inter-task dependencies, bounds concurrent
// execution, enforces per-task timeouts and retries failures with
// exponential backoff. An optional HTTP API submits work by registered
// handler name.
package schedq

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	errs "github.com/trungvx/schedq/internal/errors"
	"github.com/trungvx/schedq/internal/scheduler"
	"github.com/trungvx/schedq/internal/server"
	"github.com/trungvx/schedq/internal/state"
	"github.com/trungvx/schedq/internal/stats"
	"github.com/trungvx/schedq/internal/utils"
)

// Invocable is one unit of work; see state.Invocable.
type Invocable = state.Invocable

// InvocableFunc adapts a plain function to Invocable.
type InvocableFunc = state.InvocableFunc

// Priority levels, lowest to highest.
type Priority = state.Priority

const (
	PriorityLow      = state.PriorityLow
	PriorityNormal   = state.PriorityNormal
	PriorityHigh     = state.PriorityHigh
	PriorityCritical = state.PriorityCritical
)

// TaskStatus values for GetStatus snapshots.
type TaskStatus = state.TaskStatus

const (
	TaskStatusPending   = state.TaskStatusPending
	TaskStatusRunning   = state.TaskStatusRunning
	TaskStatusCompleted = state.TaskStatusCompleted
	TaskStatusFailed    = state.TaskStatusFailed
	TaskStatusCanceled  = state.TaskStatusCanceled
	TaskStatusRetrying  = state.TaskStatusRetrying
)

// QueueStats is a point-in-time view of scheduler activity.
type QueueStats = stats.QueueStats

// Handler is a named task body invocable through the HTTP API.
type Handler func(ctx context.Context, input map[string]any) (any, error)

// SubmitOptions carry the recognized per-task options. Zero values fall
// back to scheduler-wide defaults.
type SubmitOptions struct {
	Priority     Priority
	Timeout      time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	Dependencies []string
	Tags         []string
	Metadata     map[string]any
}

type Schedq struct {
	opts *Options

	stop chan utils.Empty

	logger *slog.Logger

	sched scheduler.Scheduler
	hs    *server.Server

	mu       sync.RWMutex
	handlers map[string]Handler
}

func New(opts *Options) *Schedq {
	o := DefaultOptions(opts)

	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(
			os.Stdout,
			&slog.HandlerOptions{
				Level: slog.LevelInfo,
			},
		))
	}

	s := &Schedq{
		opts:     o,
		logger:   logger,
		stop:     make(chan utils.Empty, 1),
		handlers: make(map[string]Handler),
	}
	s.init()

	return s
}

func (s *Schedq) init() {
	st := state.NewStore(&state.StoreOpts{
		Logger: s.logger,
	})

	cfg := scheduler.Config{
		MaxConcurrent:     s.opts.MaxConcurrentTasks,
		MaxQueueSize:      s.opts.MaxQueueSize,
		DefaultTimeout:    s.opts.DefaultTimeout,
		DefaultRetryDelay: s.opts.DefaultRetryDelay,
		MaxRetryDelay:     s.opts.MaxRetryDelay,
		BackoffFactor:     s.opts.RetryBackoffFactor,
		PollInterval:      s.opts.PollInterval,
		CleanupInterval:   s.opts.CleanupInterval,
		RetentionPeriod:   s.opts.RetentionPeriod,
		MaxTaskHistory:    s.opts.MaxTaskHistory,
	}

	s.sched = scheduler.New(s.logger, cfg, st, s.opts.Sink)

	s.hs = server.NewServer(&server.Options{
		Addr:   s.opts.Addr,
		Logger: s.logger,
	},
		s.sched,
		s.resolveInvocation,
	)
}

// Start launches the dispatch loop and background sweeps without the
// HTTP server. Use it when schedq is embedded as a library.
func (s *Schedq) Start() error {
	return s.sched.Run()
}

// Run starts the scheduler and the HTTP API, then blocks until Close.
func (s *Schedq) Run() error {
	if err := s.sched.Run(); err != nil {
		s.logger.
			With("err", err).
			Error("failed to run scheduler")
		return err
	}

	if err := s.hs.Run(); err != nil {
		s.logger.
			With("err", err).
			Error("failed to run server")
		return err
	}

	<-s.stop

	s.logger.Info("schedq is stopping")
	if err := s.hs.Close(); err != nil {
		s.logger.
			With("err", err).
			Error("failed to close server")
	}

	if err := s.sched.Shutdown(context.Background()); err != nil {
		s.logger.
			With("err", err).
			Error("failed to shut down scheduler")
	}

	s.logger.Info("schedq is stopped")

	return nil
}

// Close unblocks Run and triggers a graceful shutdown.
func (s *Schedq) Close() {
	s.stop <- utils.Empty{}
}

// RegisterHandler binds a name to a task body so the HTTP API can
// submit it. It returns ErrAlreadyExists on a duplicate name.
func (s *Schedq) RegisterHandler(name string, h Handler) error {
	if len(name) == 0 {
		return errs.NewErrValidation("handler name is required")
	}
	if h == nil {
		return errs.NewErrValidation("handler is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handlers[name]; exists {
		return errs.NewErrAlreadyExists("handler")
	}

	s.handlers[name] = h

	s.logger.
		With("handler", name).
		Info("handler registered")
	return nil
}

func (s *Schedq) resolveInvocation(name string, input map[string]any) (state.Invocable, bool) {
	s.mu.RLock()
	h, exists := s.handlers[name]
	s.mu.RUnlock()

	if !exists {
		return nil, false
	}

	return state.InvocableFunc(func(ctx context.Context) (any, error) {
		return h(ctx, input)
	}), true
}

// Submit schedules a unit of work and returns its task ID.
func (s *Schedq) Submit(name string, inv Invocable, opts SubmitOptions) (string, error) {
	t := state.NewTask(name, inv)
	t.Priority = opts.Priority
	t.Timeout = opts.Timeout
	t.MaxRetries = opts.MaxRetries
	t.RetryDelay = opts.RetryDelay
	t.Dependencies = opts.Dependencies
	t.Tags = opts.Tags
	t.Metadata = opts.Metadata

	return s.sched.Submit(t)
}

// SubmitFunc is Submit for a plain function body.
func (s *Schedq) SubmitFunc(name string, fn func(ctx context.Context) (any, error), opts SubmitOptions) (string, error) {
	return s.Submit(name, state.InvocableFunc(fn), opts)
}

// Cancel cancels a pending task. Running tasks are not cancellable and
// report false.
func (s *Schedq) Cancel(taskID string) bool {
	return s.sched.Cancel(taskID)
}

// GetStatus returns a snapshot of the task, or nil if it is unknown.
func (s *Schedq) GetStatus(taskID string) *state.Task {
	t, err := s.sched.Get(taskID)
	if err != nil {
		return nil
	}
	return &t
}

// AwaitResult blocks until the task reaches a terminal state and
// returns its result or error. A zero timeout waits indefinitely.
func (s *Schedq) AwaitResult(taskID string, timeout time.Duration) (any, error) {
	return s.sched.Await(taskID, timeout)
}

// GetStats reports current queue activity.
func (s *Schedq) GetStats() QueueStats {
	return s.sched.Stats()
}

// ClearHistory evicts all terminal tasks immediately.
func (s *Schedq) ClearHistory() int {
	return s.sched.ClearHistory()
}

// Shutdown stops intake, cancels waiting tasks and lets running ones
// finish within drainTimeout (zero waits indefinitely).
func (s *Schedq) Shutdown(drainTimeout time.Duration) error {
	ctx := context.Background()
	if drainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, drainTimeout)
		defer cancel()
	}
	return s.sched.Shutdown(ctx)
}
