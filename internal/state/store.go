package state

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	errs "github.com/trungvx/schedq/internal/errors"
	"github.com/trungvx/schedq/internal/utils"
)

type Store interface {
	// Record inserts a task into the registry, generating an ID when the
	// task carries none. It returns ErrAlreadyExists on an ID collision.
	Record(t *Task) (id string, err error)

	// Get retrieves the live task record. Callers outside the scheduler
	// must use Snapshot instead; the returned pointer is only safe for
	// reading immutable fields and the Done channel.
	Get(id string) (t *Task, err error)

	// Snapshot returns a copy of the task taken under the registry lock.
	Snapshot(id string) (t Task, err error)

	// Update mutates a task atomically. The update func returns false to
	// abort. When the update leaves the task in a terminal state, the
	// store closes the task's done channel.
	Update(id string, upd func(*Task) bool) (ok bool, err error)

	// Delete removes a task from the registry.
	// It returns true if the task exists and is deleted.
	Delete(id string) (ok bool)

	// List returns copies of tracked tasks sorted oldest first.
	List(skip uint64, limit uint64) []Task

	// Each calls fn for every tracked task under the registry lock.
	// fn may mutate the task but must not block or call back into the
	// store.
	Each(fn func(*Task))

	// CountByStatus returns the number of tasks currently in the given
	// status.
	CountByStatus(s TaskStatus) int

	// Len returns the total number of tracked tasks, terminal history
	// included.
	Len() int
}

type store struct {
	mu sync.RWMutex

	logger *slog.Logger
	tasks  map[string]*Task
}

type StoreOpts struct {
	Logger *slog.Logger
}

func NewStore(opts *StoreOpts) Store {
	o := defaultOpts(opts)
	return &store{
		logger: o.Logger,
		tasks:  make(map[string]*Task),
	}
}

func defaultOpts(o *StoreOpts) *StoreOpts {
	def := &StoreOpts{
		Logger: slog.Default(),
	}
	if o == nil {
		return def
	}
	if o.Logger != nil {
		def.Logger = o.Logger
	}

	return def
}

func (s *store) Record(t *Task) (id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(t.ID) > 0 {
		id = t.ID
	} else {
		id = uuid.NewString()
		t.ID = id
	}

	if _, exists := s.tasks[id]; exists {
		return "", errs.NewErrAlreadyExists("task")
	}

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if len(t.Status) == 0 {
		t.Status = TaskStatusPending
	}
	t.done = make(chan utils.Empty)

	s.tasks[id] = t
	return id, nil
}

func (s *store) Get(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.tasks[id]
	if !exists {
		return nil, errs.NewErrNotFound("task")
	}
	return t, nil
}

func (s *store) Snapshot(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.tasks[id]
	if !exists {
		return Task{}, errs.NewErrNotFound("task")
	}
	return *t, nil
}

func (s *store) Update(id string, upd func(*Task) bool) (ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.tasks[id]
	if !exists {
		return false, errs.NewErrNotFound("task")
	}

	wasTerminal := t.Status.IsTerminal()
	if !upd(t) {
		return false, nil
	}

	if !wasTerminal && t.Status.IsTerminal() {
		close(t.done)
	}

	return true, nil
}

func (s *store) Delete(id string) (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; !exists {
		return false
	}

	delete(s.tasks, id)
	return true
}

func (s *store) List(skip uint64, limit uint64) []Task {
	s.mu.RLock()
	all := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		all = append(all, *t)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	if skip >= uint64(len(all)) {
		return nil
	}
	all = all[skip:]

	if limit > 0 && limit < uint64(len(all)) {
		all = all[:limit]
	}
	return all
}

func (s *store) Each(fn func(*Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks {
		fn(t)
	}
}

func (s *store) CountByStatus(status TaskStatus) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, t := range s.tasks {
		if t.Status == status {
			count++
		}
	}
	return count
}

func (s *store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tasks)
}
