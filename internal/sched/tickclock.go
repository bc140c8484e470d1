// internal/sched/tickclock.go

package sched

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Clock paces a host's execution quanta. Wait blocks for one quantum and
// reports false if the quantum was interrupted before it elapsed.
type Clock interface {
	Wait() bool
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() bool

func (f ClockFunc) Wait() bool { return f() }

// TickClock blocks for a fixed interval per quantum and counts completed
// quanta atomically.
type TickClock struct {
	interval time.Duration
	count    atomic.Int64
	stop     chan struct{}
	once     sync.Once
}

// NewTickClock creates a clock whose quanta last interval.
func NewTickClock(interval time.Duration) *TickClock {
	return &TickClock{
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Wait sleeps one interval. A Stop during the sleep interrupts it.
func (c *TickClock) Wait() bool {
	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		c.count.Inc()
		return true
	case <-c.stop:
		return false
	}
}

// Stop interrupts the current and all later waits.
func (c *TickClock) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// Count returns the number of completed quanta.
func (c *TickClock) Count() int64 {
	return c.count.Load()
}

// ManualClock lets a driver release quanta one at a time. Each Tick unblocks
// exactly one Wait; Stop makes every pending and future Wait report an
// interruption.
type ManualClock struct {
	ticks chan struct{}
	stop  chan struct{}
	once  sync.Once
	count atomic.Int64
}

func NewManualClock() *ManualClock {
	return &ManualClock{
		ticks: make(chan struct{}),
		stop:  make(chan struct{}),
	}
}

func (c *ManualClock) Wait() bool {
	select {
	case <-c.ticks:
		c.count.Inc()
		return true
	case <-c.stop:
		return false
	}
}

// Tick blocks until a waiter takes the quantum. It returns false if the
// clock is stopped first.
func (c *ManualClock) Tick() bool {
	select {
	case c.ticks <- struct{}{}:
		return true
	case <-c.stop:
		return false
	}
}

func (c *ManualClock) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// Count returns the number of quanta handed out.
func (c *ManualClock) Count() int64 {
	return c.count.Load()
}
