// Package progress carries stage progress from concurrent workers to observers.
// Workers only send events; a single consumer goroutine owns every counter.
package progress

import (
	"sync"
	"time"
)

// Unknown is passed as total while a paginated listing has not reached its last page
const Unknown = -1

// Func receives (completed, total, label) after each finished item
type Func func(completed, total int, label string)

// Report calls f when it is set
func (f Func) Report(completed, total int, label string) {
	if f != nil {
		f(completed, total, label)
	}
}

// Event is one progress report of a stage
type Event struct {
	Stage     string
	Completed int
	Total     int
	Label     string
}

// StageState is the latest known position of a stage
type StageState struct {
	Stage     string    `json:"stage"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	LastItem  string    `json:"last_item,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tracker collects events for one pipeline run
type Tracker struct {
	runID    string
	events   chan Event
	done     chan struct{}
	observer func(Event)

	sendMu sync.RWMutex
	closed bool

	// written only by the consumer, read by Snapshot
	mu     sync.RWMutex
	stages map[string]*StageState
	order  []string
}

// NewTracker starts the consumer goroutine. observer may be nil; when set it
// is called from the consumer goroutine for every event, in arrival order.
func NewTracker(runID string, observer func(Event)) *Tracker {
	t := &Tracker{
		runID:    runID,
		events:   make(chan Event, 256),
		done:     make(chan struct{}),
		observer: observer,
		stages:   make(map[string]*StageState),
	}
	go t.consume()
	return t
}

func (t *Tracker) RunID() string {
	return t.runID
}

// Stage returns a Func that reports into the named stage
func (t *Tracker) Stage(name string) Func {
	return func(completed, total int, label string) {
		t.sendMu.RLock()
		defer t.sendMu.RUnlock()
		if t.closed {
			return
		}
		t.events <- Event{Stage: name, Completed: completed, Total: total, Label: label}
	}
}

func (t *Tracker) consume() {
	defer close(t.done)
	for ev := range t.events {
		t.mu.Lock()
		st, ok := t.stages[ev.Stage]
		if !ok {
			st = &StageState{Stage: ev.Stage}
			t.stages[ev.Stage] = st
			t.order = append(t.order, ev.Stage)
		}
		st.Completed = ev.Completed
		st.Total = ev.Total
		st.LastItem = ev.Label
		st.UpdatedAt = time.Now().UTC()
		t.mu.Unlock()

		if t.observer != nil {
			t.observer(ev)
		}
	}
}

// Snapshot returns the stages in the order they first reported
func (t *Tracker) Snapshot() []StageState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]StageState, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.stages[name])
	}
	return out
}

// Close drains pending events and waits for the consumer. Reports sent after Close are dropped.
func (t *Tracker) Close() {
	t.sendMu.Lock()
	if !t.closed {
		t.closed = true
		close(t.events)
	}
	t.sendMu.Unlock()
	<-t.done
}
