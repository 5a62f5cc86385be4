package widget

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs fn once after d. The returned stop function reports
// whether it prevented fn from running.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (stop func() bool)
}

// TimerScheduler schedules on the runtime timer.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// lifetime tracks deferred jobs owned by one widget. Jobs are skipped once
// the lifetime is closed.
type lifetime struct {
	sched  Scheduler
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	next    uint64
	pending map[uint64]func() bool
	idle    chan struct{}
}

func newLifetime(sched Scheduler) *lifetime {
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &lifetime{
		sched:   sched,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[uint64]func() bool),
		idle:    idle,
	}
}

// after schedules fn. It returns false when the lifetime is already over.
func (l *lifetime) after(d time.Duration, fn func(ctx context.Context)) bool {
	l.mu.Lock()
	if l.ctx.Err() != nil {
		l.mu.Unlock()
		return false
	}
	id := l.next
	l.next++
	if len(l.pending) == 0 {
		l.idle = make(chan struct{})
	}
	l.pending[id] = nil
	l.mu.Unlock()

	stop := l.sched.Schedule(d, func() {
		defer l.done(id)
		if l.ctx.Err() != nil {
			return
		}
		fn(l.ctx)
	})

	l.mu.Lock()
	if _, ok := l.pending[id]; ok {
		l.pending[id] = stop
	}
	l.mu.Unlock()
	return true
}

func (l *lifetime) done(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, id)
	l.markIdleLocked()
}

func (l *lifetime) markIdleLocked() {
	if len(l.pending) != 0 {
		return
	}
	select {
	case <-l.idle:
	default:
		close(l.idle)
	}
}

// wait blocks until no job is pending or ctx is done.
func (l *lifetime) wait(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close ends the lifetime and stops every job that has not started.
func (l *lifetime) close() {
	l.cancel()

	l.mu.Lock()
	defer l.mu.Unlock()
	for id, stop := range l.pending {
		if stop != nil && stop() {
			delete(l.pending, id)
		}
	}
	l.markIdleLocked()
}
