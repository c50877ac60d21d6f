package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MRamiBalles/babyturt/internal/platform/logger"
	"github.com/MRamiBalles/babyturt/internal/platform/metrics"
)

// TickRate is the default wall-clock length of one world tick (20 ticks per second).
const TickRate = 50 * time.Millisecond

// TaskID identifies a scheduled callback.
type TaskID uint64

type task struct {
	id        TaskID
	due       int64
	interval  int64 // 0 for one-shot
	fn        func()
	cancelled bool
}

// Scheduler is the single logical thread of the world. Every event callback,
// deferred continuation and timer runs inside Step, one at a time, so the
// systems it drives need no locks of their own.
type Scheduler struct {
	logger   *logger.Logger
	metrics  *metrics.Collector
	tickRate time.Duration

	mu     sync.Mutex
	tick   int64
	nextID TaskID
	tasks  []*task
	index  map[TaskID]*task // pending tasks, including a one-shot batch being run
	inbox  []func()
	hooks  []func(tick int64)

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a scheduler ticking at rate (TickRate when zero).
func NewScheduler(rate time.Duration, log *logger.Logger, m *metrics.Collector) *Scheduler {
	if rate <= 0 {
		rate = TickRate
	}
	return &Scheduler{
		logger:   log,
		metrics:  m,
		tickRate: rate,
		index:    make(map[TaskID]*task),
		stopChan: make(chan struct{}),
	}
}

// Start drives Step from a wall-clock ticker until ctx ends or Stop is called.
// Call in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started", "tick_rate", s.tickRate.String())

	ticker := time.NewTicker(s.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped by context")
			return
		case <-s.stopChan:
			s.logger.Info("scheduler stopped manually")
			return
		case <-ticker.C:
			s.Step()
		}
	}
}

// Stop gracefully stops the scheduler loop.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// CurrentTick returns the number of completed ticks.
func (s *Scheduler) CurrentTick() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// AddHook registers a callback that runs every tick before due tasks.
func (s *Scheduler) AddHook(fn func(tick int64)) {
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Run schedules fn for the next tick. Used to leave a restricted
// before-event context.
func (s *Scheduler) Run(fn func()) TaskID {
	return s.schedule(fn, 1, 0)
}

// RunTimeout schedules fn once after delay ticks (at least one).
func (s *Scheduler) RunTimeout(fn func(), delay int64) TaskID {
	return s.schedule(fn, delay, 0)
}

// RunInterval schedules fn every interval ticks, first run after one interval.
func (s *Scheduler) RunInterval(fn func(), interval int64) TaskID {
	if interval < 1 {
		interval = 1
	}
	return s.schedule(fn, interval, interval)
}

// Clear cancels a scheduled task, also one already due in the tick being
// stepped. Unknown or finished ids are ignored.
func (s *Scheduler) Clear(id TaskID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.index[id]
	if !ok {
		return
	}
	t.cancelled = true
	delete(s.index, id)
	for i, pending := range s.tasks {
		if pending == t {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}

// Pending returns the number of scheduled tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Submit hands fn to the tick thread; it runs at the start of the next tick.
// This is the only entry point that is safe from other goroutines.
func (s *Scheduler) Submit(fn func()) {
	s.mu.Lock()
	s.inbox = append(s.inbox, fn)
	s.mu.Unlock()
}

// Do submits fn and waits until it ran or ctx ends.
func (s *Scheduler) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan struct{})
	s.Submit(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) schedule(fn func(), delay, interval int64) TaskID {
	if delay < 1 {
		delay = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &task{
		id:       s.nextID,
		due:      s.tick + delay,
		interval: interval,
		fn:       fn,
	}
	s.tasks = append(s.tasks, t)
	s.index[t.id] = t
	return t.id
}

// Step processes a single tick: submitted work, hooks, then due tasks in
// scheduling order. Tasks scheduled while stepping run on a later tick.
func (s *Scheduler) Step() {
	start := time.Now()

	s.mu.Lock()
	s.tick++
	tick := s.tick
	inbox := s.inbox
	s.inbox = nil
	hooks := append(([]func(int64))(nil), s.hooks...)
	s.mu.Unlock()

	for _, fn := range inbox {
		s.safeRun(fn)
	}
	for _, h := range hooks {
		s.safeRun(func() { h(tick) })
	}

	s.mu.Lock()
	var due []*task
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.due > tick {
			kept = append(kept, t)
			continue
		}
		due = append(due, t)
		if t.interval > 0 {
			t.due = tick + t.interval
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	s.mu.Unlock()

	for _, t := range due {
		s.mu.Lock()
		cancelled := t.cancelled
		s.mu.Unlock()
		if !cancelled {
			s.safeRun(t.fn)
		}
		if t.interval == 0 {
			s.mu.Lock()
			delete(s.index, t.id)
			s.mu.Unlock()
		}
	}

	if s.metrics != nil {
		s.metrics.RecordTick(time.Since(start))
	}
}

// safeRun keeps a misbehaving callback from taking the world down.
func (s *Scheduler) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled callback panicked", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}
