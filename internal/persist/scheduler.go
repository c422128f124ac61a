// Package persist debounces writes of the in-memory store to durable
// storage.
package persist

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period after the last ScheduleSave before a
// flush happens.
const DefaultDelay = 3 * time.Second

// Flusher is the thing being saved.
type Flusher interface {
	HasChanges() bool
	Flush() error
}

// Timer is the part of *time.Timer the scheduler uses.
type Timer interface {
	Stop() bool
}

// AfterFunc arms a timer that calls f once after d. time.AfterFunc is the
// default.
type AfterFunc func(d time.Duration, f func()) Timer

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithErrorHandler sets the hook that receives flush errors. Errors are
// never returned to the caller of SaveNow or ScheduleSave.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Scheduler) { s.onError = fn }
}

// WithAfterFunc replaces the timer factory.
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Scheduler) { s.afterFunc = fn }
}

// Scheduler coalesces save requests. At most one delayed flush is pending at
// any time. Cancelling a pending flush and the flush firing are mutually
// exclusive: the timer callback checks a sequence token and flushes while
// holding the scheduler lock.
type Scheduler struct {
	mu        sync.Mutex
	flusher   Flusher
	delay     time.Duration
	afterFunc AfterFunc
	onError   func(error)

	timer   Timer
	seq     uint64
	stopped bool
}

// New returns a scheduler for flusher. A non-positive delay selects
// DefaultDelay.
func New(flusher Flusher, delay time.Duration, opts ...Option) *Scheduler {
	if delay <= 0 {
		delay = DefaultDelay
	}
	s := &Scheduler{
		flusher: flusher,
		delay:   delay,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delay returns the debounce interval.
func (s *Scheduler) Delay() time.Duration {
	return s.delay
}

// ScheduleSave replaces any pending flush with a new one that fires after
// the delay.
func (s *Scheduler) ScheduleSave() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	s.cancel()
	token := s.seq
	s.timer = s.afterFunc(s.delay, func() {
		s.fire(token)
	})
}

// SaveNow cancels any pending flush and flushes immediately if there is
// anything to write.
func (s *Scheduler) SaveNow() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	s.flush()
}

// Pending reports whether a delayed flush is armed.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Stop cancels any pending flush without flushing. Later ScheduleSave calls
// are ignored; SaveNow still works.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	s.stopped = true
}

func (s *Scheduler) fire(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A cancelled timer may still run if Stop lost the race.
	if token != s.seq || s.timer == nil {
		return
	}
	s.timer = nil
	s.flush()
}

// cancel invalidates the pending timer. Callers must hold the lock.
func (s *Scheduler) cancel() {
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// flush writes when there are changes. Callers must hold the lock.
func (s *Scheduler) flush() {
	if !s.flusher.HasChanges() {
		return
	}
	if err := s.flusher.Flush(); err != nil && s.onError != nil {
		s.onError(err)
	}
}
