package persist

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeFlusher struct {
	mu      sync.Mutex
	dirty   bool
	flushes int
	err     error
}

func (f *fakeFlusher) HasChanges() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty
}

func (f *fakeFlusher) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	if f.err != nil {
		return f.err
	}
	f.dirty = false
	return nil
}

func (f *fakeFlusher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushes
}

// fakeTimer records the callback instead of arming a real timer.
type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	t := &fakeTimer{d: d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// fireAll runs every callback, including stopped ones, to simulate timers
// that raced their cancellation.
func (c *fakeClock) fireAll() {
	for _, t := range c.timers {
		t.fn()
	}
}

func newTestScheduler(t *testing.T, f Flusher, opts ...Option) (*Scheduler, *fakeClock) {
	t.Helper()
	clock := &fakeClock{}
	opts = append([]Option{WithAfterFunc(clock.AfterFunc)}, opts...)
	return New(f, 0, opts...), clock
}

func TestNewDefaultDelay(t *testing.T) {
	s := New(&fakeFlusher{}, 0)
	if s.Delay() != DefaultDelay {
		t.Errorf("Delay = %v, want %v", s.Delay(), DefaultDelay)
	}
	s = New(&fakeFlusher{}, time.Second)
	if s.Delay() != time.Second {
		t.Errorf("Delay = %v, want 1s", s.Delay())
	}
}

func TestScheduleSaveCoalesces(t *testing.T) {
	f := &fakeFlusher{dirty: true}
	s, clock := newTestScheduler(t, f)

	for i := 0; i < 5; i++ {
		s.ScheduleSave()
	}

	if len(clock.timers) != 5 {
		t.Fatalf("timers armed = %d, want 5", len(clock.timers))
	}
	for i, tm := range clock.timers[:4] {
		if !tm.stopped {
			t.Errorf("timer %d not stopped by a later schedule", i)
		}
	}
	if clock.timers[4].d != DefaultDelay {
		t.Errorf("delay = %v, want %v", clock.timers[4].d, DefaultDelay)
	}

	clock.fireAll()
	if got := f.count(); got != 1 {
		t.Errorf("flushes = %d, want exactly 1", got)
	}
	if s.Pending() {
		t.Error("Pending = true after the flush fired")
	}
}

func TestSaveNowCancelsPending(t *testing.T) {
	f := &fakeFlusher{dirty: true}
	s, clock := newTestScheduler(t, f)

	s.ScheduleSave()
	if !s.Pending() {
		t.Fatal("Pending = false after ScheduleSave")
	}

	s.SaveNow()
	if got := f.count(); got != 1 {
		t.Fatalf("flushes after SaveNow = %d, want 1", got)
	}
	if s.Pending() {
		t.Error("SaveNow should cancel the pending flush")
	}

	f.mu.Lock()
	f.dirty = true
	f.mu.Unlock()

	// The cancelled timer firing late must not flush again.
	clock.fireAll()
	if got := f.count(); got != 1 {
		t.Errorf("flushes after stale fire = %d, want 1", got)
	}
}

func TestFlushSkippedWithoutChanges(t *testing.T) {
	f := &fakeFlusher{}
	s, clock := newTestScheduler(t, f)

	s.SaveNow()
	s.ScheduleSave()
	clock.fireAll()

	if got := f.count(); got != 0 {
		t.Errorf("flushes = %d, want 0", got)
	}
}

func TestFlushErrorsAreSwallowed(t *testing.T) {
	f := &fakeFlusher{dirty: true, err: errors.New("disk full")}

	var reported []error
	s, clock := newTestScheduler(t, f, WithErrorHandler(func(err error) {
		reported = append(reported, err)
	}))

	s.SaveNow()
	s.ScheduleSave()
	clock.fireAll()

	if len(reported) != 2 {
		t.Fatalf("reported = %d errors, want 2", len(reported))
	}
	if !f.HasChanges() {
		t.Error("failed flush should leave changes pending")
	}
}

func TestFlushErrorWithoutHandler(t *testing.T) {
	f := &fakeFlusher{dirty: true, err: errors.New("disk full")}
	s, _ := newTestScheduler(t, f)

	// Must not panic.
	s.SaveNow()
}

func TestStopCancelsAndIgnoresLaterSchedules(t *testing.T) {
	f := &fakeFlusher{dirty: true}
	s, clock := newTestScheduler(t, f)

	s.ScheduleSave()
	s.Stop()
	s.ScheduleSave()

	if len(clock.timers) != 1 {
		t.Errorf("timers armed = %d, want 1", len(clock.timers))
	}
	clock.fireAll()
	if got := f.count(); got != 0 {
		t.Errorf("flushes = %d, want 0", got)
	}

	s.SaveNow()
	if got := f.count(); got != 1 {
		t.Errorf("SaveNow after Stop flushes = %d, want 1", got)
	}
}

func TestRealTimerFires(t *testing.T) {
	f := &fakeFlusher{dirty: true}
	s := New(f, 10*time.Millisecond)

	s.ScheduleSave()
	deadline := time.Now().Add(2 * time.Second)
	for f.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := f.count(); got != 1 {
		t.Errorf("flushes = %d, want 1", got)
	}
}
