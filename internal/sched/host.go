// internal/sched/host.go

package sched

import (
	"context"
	"sync"
	"time"

	"github.com/uber-go/tally/v4"
	"go.uber.org/atomic"
)

// DefaultQuantum is the work a host takes off its running task per step.
const DefaultQuantum = 100 * time.Millisecond

// State is the coarse state of a host's run loop.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateShuttingDown:
		return "ShuttingDown"
	default:
		return "Unknown"
	}
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithQuantum sets the work taken off the running task per step.
func WithQuantum(q time.Duration) HostOption {
	return func(h *Host) {
		if q > 0 {
			h.quantum = q
		}
	}
}

// WithListener registers a callback for host events.
func WithListener(l Listener) HostOption {
	return func(h *Host) {
		h.listener = l
	}
}

// WithMetrics reports host metrics under the given scope.
func WithMetrics(scope tally.Scope) HostOption {
	return func(h *Host) {
		h.metrics = NewMetrics(scope)
	}
}

// Host owns one waiting queue and at most one running task, and executes
// its work one quantum at a time on its own goroutine.
//
// Only the waiting queue is locked. The running slot is written by the run
// loop alone. QueueSize and WorkLeft read counters without taking the queue
// lock: they are a point-in-time signal for routing, not a snapshot
// consistent with the queue.
type Host struct {
	id      int
	quantum time.Duration
	clock   Clock

	waiting *waitQueue
	running slot

	pending *atomic.Int64    // waiting + running
	work    *atomic.Duration // remaining work over waiting + running

	shutdown  *atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	wake      chan struct{}

	listener Listener
	metrics  *Metrics
}

// NewHost creates a host paced by clock. The loop does not start until Run.
func NewHost(id int, clock Clock, opts ...HostOption) *Host {
	h := &Host{
		id:       id,
		quantum:  DefaultQuantum,
		clock:    clock,
		waiting:  newWaitQueue(),
		pending:  atomic.NewInt64(0),
		work:     atomic.NewDuration(0),
		shutdown: atomic.NewBool(false),
		done:     make(chan struct{}),
		wake:     make(chan struct{}, 1),
		metrics:  NewMetrics(tally.NoopScope),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ID returns the host's index.
func (h *Host) ID() int { return h.id }

// Quantum returns the work taken off the running task per step.
func (h *Host) Quantum() time.Duration { return h.quantum }

// Enqueue adds a task to the waiting queue and wakes an idle loop.
// Finished tasks are ignored.
func (h *Host) Enqueue(t *Task) {
	if t == nil || t.Finished() {
		return
	}

	// counters go up before the task becomes visible so a concurrent reader
	// never sees the host lighter than it is
	h.pending.Inc()
	h.work.Add(t.Remaining())
	h.waiting.push(t)

	h.emit(StatusEnqueue, t)
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// QueueSize returns the number of waiting tasks plus one if a task is
// running. The value may be stale by the time the caller looks at it.
func (h *Host) QueueSize() int {
	return int(h.pending.Load())
}

// WorkLeft returns the remaining work over waiting and running tasks. Same
// staleness caveat as QueueSize.
func (h *Host) WorkLeft() time.Duration {
	if w := h.work.Load(); w > 0 {
		return w
	}
	return 0
}

// Running returns the task in the running slot, if any.
func (h *Host) Running() (*Task, bool) {
	return h.running.get()
}

// Waiting returns the waiting tasks in the order they would run.
func (h *Host) Waiting() []*Task {
	return h.waiting.snapshot()
}

// State reports whether the host is idle, running a task, or shutting down.
func (h *Host) State() State {
	if h.shutdown.Load() {
		return StateShuttingDown
	}
	if _, ok := h.running.get(); ok {
		return StateRunning
	}
	return StateIdle
}

// Shutdown asks the run loop to stop. It does not wait, and the quantum in
// flight still completes. Safe to call more than once.
func (h *Host) Shutdown() {
	h.shutdown.Store(true)
	h.closeOnce.Do(func() { close(h.done) })
}

// Run executes steps until Shutdown is called or ctx is done. Shutdown is
// checked once per step, so Run returns at most one quantum after it.
//
// After an interrupted quantum the loop parks for up to one quantum before
// asking the clock again, so a stopped clock does not spin the loop.
func (h *Host) Run(ctx context.Context) error {
	defer h.emit(StatusShutdown, nil)

	for {
		if h.shutdown.Load() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		ran, credited := h.step()
		if credited {
			continue
		}

		// idle: park until there is work or we are told to stop
		var backoff *time.Timer
		var retry <-chan time.Time
		if ran {
			backoff = time.NewTimer(h.quantum)
			retry = backoff.C
		}
		select {
		case <-h.wake:
		case <-h.done:
		case <-ctx.Done():
		case <-retry:
		}
		if backoff != nil {
			backoff.Stop()
		}
	}
}

// Step performs one loop iteration: fill an empty running slot, preempt if
// the waiting head outranks a preemptible running task, then execute one
// quantum. It returns false if there was nothing to run.
//
// Step must only be called from one goroutine at a time, normally Run's.
func (h *Host) Step() bool {
	ran, _ := h.step()
	return ran
}

// step reports whether a task was given a quantum and whether that quantum
// completed and was credited.
func (h *Host) step() (ran, credited bool) {
	t, ok := h.running.get()
	if !ok {
		if t = h.waiting.pop(); t == nil {
			return false, false
		}
		h.running.set(t)
		h.metrics.Dispatched.Inc(1)
		h.emit(StatusDispatch, t)
	}

	// the preempted task goes back with its original arrival order
	if t.Preemptible() {
		if next := h.waiting.exchange(t); next != nil {
			h.running.set(next)
			h.metrics.Preempted.Inc(1)
			h.metrics.Dispatched.Inc(1)
			h.emit(StatusPreempt, t)
			h.emit(StatusDispatch, next)
			t = next
		}
	}

	return true, h.execute(t)
}

// execute runs t for one quantum and retires it if its work is done. An
// interrupted quantum is not credited; t stays in the running slot and
// execute returns false.
func (h *Host) execute(t *Task) bool {
	if !h.clock.Wait() {
		h.metrics.Interrupted.Inc(1)
		h.emit(StatusInterrupted, t)
		return false
	}

	left := t.Remaining()
	consumed := h.quantum
	if left < consumed {
		consumed = left
	}
	t.SetRemaining(left - h.quantum)
	h.work.Sub(consumed)
	h.metrics.Quanta.Inc(1)

	if t.Remaining() <= 0 {
		t.Finish()
		h.running.clear()
		h.pending.Dec()
		h.metrics.Finished.Inc(1)
		h.emit(StatusFinish, t)
	} else {
		h.emit(StatusQuantum, t)
	}

	h.metrics.QueueSize.Update(float64(h.QueueSize()))
	h.metrics.WorkLeft.Update(float64(h.WorkLeft().Milliseconds()))
	return true
}

func (h *Host) emit(kind StatusKind, t *Task) {
	ev := StatusEvent{
		Time: time.Now(),
		Kind: kind,
		Host: h.id,
	}
	if t != nil {
		ev.TaskID = t.ID
		ev.Priority = t.Priority()
		ev.Remaining = t.Remaining()
	}

	if h.listener != nil {
		h.listener(ev)
	}
}

// slot is the optional running task. All readers go through get and must
// handle the empty case.
type slot struct {
	task atomic.Pointer[Task]
}

func (s *slot) get() (*Task, bool) {
	t := s.task.Load()
	return t, t != nil
}

func (s *slot) set(t *Task) { s.task.Store(t) }

func (s *slot) clear() { s.task.Store(nil) }
