// internal/sched/schedulerEvent.go

package sched

import (
	"time"
)

// StatusKind represents the type of host event
type StatusKind int

const (
	StatusEnqueue StatusKind = iota
	StatusDispatch
	StatusPreempt
	StatusQuantum
	StatusFinish
	StatusInterrupted
	StatusShutdown
)

// StatusEvent is emitted on every quantum and on key actions of a host.
type StatusEvent struct {
	Time      time.Time
	Kind      StatusKind
	Host      int
	TaskID    string
	Priority  int
	Remaining time.Duration
}

// Listener receives host events. It is called from the goroutine that
// caused the event and must not block for long.
type Listener func(StatusEvent)

func (sk StatusKind) String() string {
	switch sk {
	case StatusEnqueue:
		return "Enqueued"
	case StatusDispatch:
		return "Dispatch"
	case StatusPreempt:
		return "Preempt"
	case StatusQuantum:
		return "Quantum"
	case StatusFinish:
		return "Finish"
	case StatusInterrupted:
		return "Interrupted"
	case StatusShutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}
