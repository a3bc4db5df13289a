// Package scheduler implements the dispatch loop: it pulls ready tasks
// from the priority lanes, bounds concurrent execution, enforces
// per-task timeouts and routes failures through the retry policy.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trungvx/schedq/internal/lanes"
	"github.com/trungvx/schedq/internal/metrics"
	"github.com/trungvx/schedq/internal/retry"
	"github.com/trungvx/schedq/internal/state"
	"github.com/trungvx/schedq/internal/stats"
	"github.com/trungvx/schedq/internal/utils"
)

type Config struct {
	// MaxConcurrent caps the number of tasks in Running status.
	MaxConcurrent int

	// MaxQueueSize caps total tracked tasks, terminal history included.
	MaxQueueSize int

	DefaultTimeout    time.Duration
	DefaultRetryDelay time.Duration
	MaxRetryDelay     time.Duration
	BackoffFactor     float64

	// PollInterval is the dispatch loop tick.
	PollInterval time.Duration

	// CleanupInterval is the period of the health and cleanup sweeps.
	CleanupInterval time.Duration

	// RetentionPeriod is how long terminal tasks stay in history.
	RetentionPeriod time.Duration

	// MaxTaskHistory caps the number of terminal tasks kept in history.
	MaxTaskHistory int

	// StaleRotationLimit is the number of ineligible lane rotations
	// after which a task is flagged as possibly starved (unmet or
	// cyclic dependencies). Diagnostic only.
	StaleRotationLimit int
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrent:      10,
		MaxQueueSize:       1000,
		DefaultTimeout:     30 * time.Second,
		DefaultRetryDelay:  retry.DefaultBaseDelay,
		MaxRetryDelay:      retry.DefaultMaxDelay,
		BackoffFactor:      retry.DefaultFactor,
		PollInterval:       20 * time.Millisecond,
		CleanupInterval:    1 * time.Minute,
		RetentionPeriod:    24 * time.Hour,
		MaxTaskHistory:     1000,
		StaleRotationLimit: 1000,
	}
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = def.MaxConcurrent
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = def.MaxQueueSize
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = def.DefaultTimeout
	}
	if c.DefaultRetryDelay <= 0 {
		c.DefaultRetryDelay = def.DefaultRetryDelay
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = def.MaxRetryDelay
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = def.BackoffFactor
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = def.CleanupInterval
	}
	if c.RetentionPeriod <= 0 {
		c.RetentionPeriod = def.RetentionPeriod
	}
	if c.MaxTaskHistory <= 0 {
		c.MaxTaskHistory = def.MaxTaskHistory
	}
	if c.StaleRotationLimit <= 0 {
		c.StaleRotationLimit = def.StaleRotationLimit
	}
}

type Scheduler interface {
	// Run starts the dispatch loop and the background sweeps.
	Run() error

	// Submit records a task and enqueues it at the tail of its
	// priority lane.
	Submit(t *state.Task) (id string, err error)

	// Cancel cancels a pending task. It returns false if the task is
	// unknown or already past pending; cancellation of running work is
	// not supported.
	Cancel(id string) bool

	// Get returns a copy of the task record, or ErrNotFound.
	Get(id string) (t state.Task, err error)

	// List returns copies of tracked tasks, oldest first.
	List(skip uint64, limit uint64) []state.Task

	// Await blocks until the task reaches a terminal state, or until
	// timeout elapses (zero waits indefinitely).
	Await(id string, timeout time.Duration) (result any, err error)

	// Stats returns a point-in-time view of queue activity.
	Stats() stats.QueueStats

	// ClearHistory evicts all terminal tasks immediately.
	ClearHistory() int

	// Shutdown stops intake, cancels pending tasks and waits for
	// running ones until ctx expires.
	Shutdown(ctx context.Context) error
}

type scheduler struct {
	cfg    Config
	logger *slog.Logger
	sink   metrics.Sink

	store state.Store
	lanes *lanes.Lanes
	stats *stats.Registry

	running atomic.Int32
	execWg  sync.WaitGroup

	submitMu sync.Mutex

	timersMu sync.Mutex
	timers   map[string]*time.Timer

	started  atomic.Bool
	stop     chan utils.Empty
	bgWg     sync.WaitGroup
	stopOnce sync.Once
}

func New(logger *slog.Logger, cfg Config, st state.Store, sink metrics.Sink) Scheduler {
	cfg.fillDefaults()

	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = metrics.NoopSink{}
	}

	return &scheduler{
		cfg:    cfg,
		logger: logger.With("component", "scheduler"),
		sink:   sink,
		store:  st,
		lanes:  lanes.New(),
		stats:  stats.NewRegistry(stats.DefaultWindowSize),
		timers: make(map[string]*time.Timer),
		stop:   make(chan utils.Empty),
	}
}

func (s *scheduler) Run() error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler already started")
	}

	s.bgWg.Add(2)
	go s.loop()
	go s.sweep()

	s.logger.
		With("max_concurrent", s.cfg.MaxConcurrent).
		With("poll_interval", s.cfg.PollInterval).
		Info("scheduler started")
	return nil
}

func (s *scheduler) isStopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return !s.started.Load()
	}
}

func (s *scheduler) Get(id string) (state.Task, error) {
	return s.store.Snapshot(id)
}

func (s *scheduler) List(skip uint64, limit uint64) []state.Task {
	return s.store.List(skip, limit)
}

func (s *scheduler) Stats() stats.QueueStats {
	pending := s.store.CountByStatus(state.TaskStatusPending)
	running := int(s.running.Load())

	qs := s.stats.Snapshot(pending, running, s.cfg.MaxConcurrent)
	s.sink.Observe(metrics.ObsUtilization, qs.Utilization)
	return qs
}

func (s *scheduler) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})

	s.bgWg.Wait()

	s.cancelAllWaiting()
	s.stopRetryTimers()

	done := make(chan utils.Empty)
	go func() {
		defer close(done)
		s.execWg.Wait()
	}()

	select {
	case <-done:
		// a task that failed during the drain with retries remaining
		// re-entered the waiting set as Retrying after the first sweep;
		// cancel it so every task ends terminal
		s.cancelAllWaiting()
		s.stopRetryTimers()
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.
			With("running", s.running.Load()).
			Warn("drain deadline reached with tasks still running")
		return ctx.Err()
	}
}

// cancelAllWaiting cancels every task that has not started running:
// pending tasks and tasks parked in retry backoff.
func (s *scheduler) cancelAllWaiting() {
	var ids []string
	s.store.Each(func(t *state.Task) {
		switch t.Status {
		case state.TaskStatusPending, state.TaskStatusRetrying:
			ids = append(ids, t.ID)
		}
	})

	for _, id := range ids {
		var p state.Priority
		ok, _ := s.store.Update(id, func(t *state.Task) bool {
			switch t.Status {
			case state.TaskStatusPending, state.TaskStatusRetrying:
			default:
				return false
			}
			now := time.Now()
			t.Status = state.TaskStatusCanceled
			t.CompletedAt = &now
			p = t.Priority
			return true
		})
		if !ok {
			continue
		}

		s.lanes.Remove(p, id)
		s.stats.IncCancelled()
		s.sink.Increment(metrics.EventCancelled)
	}

	if len(ids) > 0 {
		s.logger.
			With("count", len(ids)).
			Info("cancelled waiting tasks on shutdown")
	}
}

func (s *scheduler) stopRetryTimers() {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
