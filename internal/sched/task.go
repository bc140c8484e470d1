package sched

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// Category is the size class of a task. Only the static size-partition
// routing policy looks at it.
type Category int

const (
	CategoryShort Category = iota
	CategoryMedium
	CategoryLong
)

// NumCategories is the number of size classes, and therefore the number of
// hosts the static size-partition policy needs.
const NumCategories = 3

func (c Category) String() string {
	switch c {
	case CategoryShort:
		return "SHORT"
	case CategoryMedium:
		return "MEDIUM"
	case CategoryLong:
		return "LONG"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether c is one of the three fixed classes.
func (c Category) Valid() bool {
	return c >= CategoryShort && c <= CategoryLong
}

// ParseCategory maps SHORT/MEDIUM/LONG (case-insensitive) to a Category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SHORT":
		return CategoryShort, nil
	case "MEDIUM":
		return CategoryMedium, nil
	case "LONG":
		return CategoryLong, nil
	}
	return 0, fmt.Errorf("unknown task category %q", s)
}

// Task represents one unit of work routed to a host.
//
// Everything except the remaining work and the terminal flag is fixed at
// creation. Those two are read by load queries from other goroutines, so they
// live in atomics.
type Task struct {
	ID          string
	priority    int    // higher is more urgent
	arrival     uint64 // fairness tie-breaker, never changes
	preemptible bool
	category    Category
	remaining   *atomic.Duration
	finished    *atomic.Bool
}

// NewTask creates a task with a fresh ID. Negative work is clamped to zero;
// such a task finishes on its first quantum.
func NewTask(arrival uint64, priority int, category Category, work time.Duration, preemptible bool) *Task {
	if work < 0 {
		work = 0
	}
	return &Task{
		ID:          uuid.NewString(),
		priority:    priority,
		arrival:     arrival,
		preemptible: preemptible,
		category:    category,
		remaining:   atomic.NewDuration(work),
		finished:    atomic.NewBool(false),
	}
}

func (t *Task) Priority() int { return t.priority }

func (t *Task) Arrival() uint64 { return t.arrival }

func (t *Task) Preemptible() bool { return t.preemptible }

func (t *Task) Category() Category { return t.category }

func (t *Task) Remaining() time.Duration { return t.remaining.Load() }

// SetRemaining stores the remaining work, clamped at zero.
func (t *Task) SetRemaining(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.remaining.Store(d)
}

// Finish marks the task terminal. Calling it again has no effect.
func (t *Task) Finish() { t.finished.Store(true) }

// Finished reports whether Finish has been called.
func (t *Task) Finished() bool { return t.finished.Load() }

func (t *Task) String() string {
	return fmt.Sprintf("task{id=%s prio=%d arrival=%d left=%s preemptible=%t %s}",
		t.ID, t.priority, t.arrival, t.Remaining(), t.preemptible, t.category)
}
