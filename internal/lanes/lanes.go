// Package lanes holds the per-priority FIFO queues of ready task IDs.
//
// A lane owns ordering only; task state lives in the scheduler's registry.
// Selection scans lanes from Critical down to Low and rotates ineligible
// entries to the tail so a single blocked task cannot starve its lane.
package lanes

import (
	"sync"

	"github.com/trungvx/schedq/internal/state"
)

// scan order, highest priority first
var order = []state.Priority{
	state.PriorityCritical,
	state.PriorityHigh,
	state.PriorityNormal,
	state.PriorityLow,
}

type Lanes struct {
	mu    sync.Mutex
	lanes map[state.Priority][]string
}

func New() *Lanes {
	l := &Lanes{
		lanes: make(map[state.Priority][]string, len(order)),
	}
	for _, p := range order {
		l.lanes[p] = nil
	}
	return l
}

// Push appends a task ID at the tail of its priority lane.
func (l *Lanes) Push(p state.Priority, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lanes[p] = append(l.lanes[p], id)
}

// Remove takes a task ID out of its lane, wherever it sits.
// It returns true if the ID was found.
func (l *Lanes) Remove(p state.Priority, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lane := l.lanes[p]
	for i, cur := range lane {
		if cur != id {
			continue
		}
		l.lanes[p] = append(lane[:i], lane[i+1:]...)
		return true
	}
	return false
}

// Next returns the first eligible task across all lanes, preferring
// higher priority and FIFO order within a lane.
//
// Lanes are attempted top to bottom in a single pass. Each lane is
// scanned head to tail at most once: an entry found ineligible is
// rotated to the tail and the scan continues. When a higher lane holds
// only ineligible entries the scan falls through to the next lane
// within the same pass.
func (l *Lanes) Next(eligible func(id string) bool) (id string, found bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range order {
		lane := l.lanes[p]
		for i := 0; i < len(lane); i++ {
			head := lane[0]
			lane = lane[1:]
			if eligible(head) {
				l.lanes[p] = lane
				return head, true
			}
			lane = append(lane, head)
		}
		l.lanes[p] = lane
	}

	return "", false
}

// Len returns the total number of queued IDs across all lanes.
func (l *Lanes) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := 0
	for _, lane := range l.lanes {
		total += len(lane)
	}
	return total
}

// LaneLen returns the number of queued IDs in one lane.
func (l *Lanes) LaneLen(p state.Priority) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.lanes[p])
}
