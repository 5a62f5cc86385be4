package widget

import "sync"

// FocusMonitor reports focus transitions of the phone input. The returned
// stop function unregisters the observer.
type FocusMonitor interface {
	Monitor(fn func(focused bool)) (stop func())
}

// FocusTracker is a FocusMonitor fed by explicit Set calls, e.g. from
// focus and blur events relayed by a client.
type FocusTracker struct {
	mu        sync.Mutex
	next      int
	observers map[int]func(bool)
	focused   bool
}

func NewFocusTracker() *FocusTracker {
	return &FocusTracker{observers: make(map[int]func(bool))}
}

func (t *FocusTracker) Monitor(fn func(focused bool)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.next
	t.next++
	t.observers[id] = fn

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.observers, id)
	}
}

// Set records a focus transition and notifies observers.
func (t *FocusTracker) Set(focused bool) {
	t.mu.Lock()
	t.focused = focused
	fns := make([]func(bool), 0, len(t.observers))
	for _, fn := range t.observers {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(focused)
	}
}

// Observers returns the number of registered observers.
func (t *FocusTracker) Observers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.observers)
}
