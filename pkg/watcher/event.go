package watcher

import (
	"sort"
	"time"
)

// Op is the kind of change delivered for a source file
type Op int

const (
	Created Op = iota + 1
	Modified
	Deleted
)

func (o Op) String() string {
	switch o {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	}
	return "unknown"
}

// Event is a coalesced change to one source file
type Event struct {
	Path string
	Op   Op
}

type pendingEvent struct {
	op Op
	at time.Time
}

// queue coalesces raw events per path until they have been quiet for the
// debounce window
type queue struct {
	debounce time.Duration
	pending  map[string]*pendingEvent
}

func newQueue(debounce time.Duration) *queue {
	return &queue{
		debounce: debounce,
		pending:  make(map[string]*pendingEvent),
	}
}

// add records op for path, restarting its debounce window
func (q *queue) add(path string, op Op, now time.Time) {
	existing, ok := q.pending[path]
	if !ok {
		q.pending[path] = &pendingEvent{op: op, at: now}
		return
	}
	existing.op = merge(existing.op, op)
	existing.at = now
}

// merge folds a new op into a pending one. A file that is created and then
// written is still new; a file removed and recreated (an editor's atomic
// save) has been modified.
func merge(pending, next Op) Op {
	switch {
	case pending == Created && next == Modified:
		return Created
	case pending == Deleted && next == Created:
		return Modified
	}
	return next
}

// ready removes and returns the events whose window has elapsed, sorted
// by path
func (q *queue) ready(now time.Time) []Event {
	var events []Event
	for path, p := range q.pending {
		if now.Sub(p.at) >= q.debounce {
			events = append(events, Event{Path: path, Op: p.op})
			delete(q.pending, path)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	return events
}

func (q *queue) len() int {
	return len(q.pending)
}
