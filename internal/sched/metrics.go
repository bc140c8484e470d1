package sched

import (
	"github.com/uber-go/tally/v4"
)

// Metrics is a placeholder for all metrics in a host
type Metrics struct {
	Dispatched  tally.Counter
	Preempted   tally.Counter
	Finished    tally.Counter
	Quanta      tally.Counter
	Interrupted tally.Counter

	QueueSize tally.Gauge
	WorkLeft  tally.Gauge
}

// NewMetrics returns a new instance of sched.Metrics
func NewMetrics(scope tally.Scope) *Metrics {
	return &Metrics{
		Dispatched:  scope.Counter("dispatched"),
		Preempted:   scope.Counter("preempted"),
		Finished:    scope.Counter("finished"),
		Quanta:      scope.Counter("quanta"),
		Interrupted: scope.Counter("interrupted"),

		QueueSize: scope.Gauge("queue_size"),
		WorkLeft:  scope.Gauge("work_left_ms"),
	}
}
