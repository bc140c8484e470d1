package dispatch

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
	"go.uber.org/atomic"

	"lbsim/internal/sched"
)

// DefaultNoiseThreshold is how close two hosts' work left must be for
// LEAST_WORK_LEFT to treat them as equally loaded.
const DefaultNoiseThreshold = 10 * sched.DefaultQuantum

var (
	// ErrNoHosts is returned when a dispatcher is built without hosts.
	ErrNoHosts = errors.New("dispatcher needs at least one host")
	// ErrPartitionHosts is returned when STATIC_SIZE_PARTITION gets fewer
	// hosts than there are task categories.
	ErrPartitionHosts = errors.New("static size partition needs one host per category")
	// ErrUnknownPolicy is returned for a policy name or value that is not one
	// of the four supported policies.
	ErrUnknownPolicy = errors.New("unknown dispatch policy")
	// ErrUnknownCategory is returned when a task's category has no partition.
	ErrUnknownCategory = errors.New("unknown task category")
	// ErrNilTask is returned by Submit for a nil task.
	ErrNilTask = errors.New("nil task")
)

//go:generate mockgen -package mocks -destination mocks/mock_host.go lbsim/internal/dispatch Host

// Host is what the dispatcher needs from a worker host.
type Host interface {
	Enqueue(t *sched.Task)
	QueueSize() int
	WorkLeft() time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithNoiseThreshold sets the LEAST_WORK_LEFT tie threshold.
func WithNoiseThreshold(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d >= 0 {
			disp.threshold = d
		}
	}
}

// WithMetrics reports dispatcher metrics under the given scope.
func WithMetrics(scope tally.Scope) Option {
	return func(disp *Dispatcher) {
		disp.scope = scope
	}
}

// Dispatcher routes each submitted task to exactly one of a fixed list of
// hosts. Host indices never change after New.
//
// SHORTEST_QUEUE and LEAST_WORK_LEFT read each host's load without any
// coordination with the hosts or with other submitters, so concurrent
// submissions may act on the same stale view.
type Dispatcher struct {
	policy    Policy
	hosts     []Host
	cursor    *atomic.Uint64
	threshold time.Duration

	scope     tally.Scope
	submitted tally.Counter
	routed    []tally.Counter
}

// New builds a dispatcher over hosts. The slice is copied.
func New(policy Policy, hosts []Host, opts ...Option) (*Dispatcher, error) {
	if _, ok := policyNames[policy]; !ok {
		return nil, errors.Wrapf(ErrUnknownPolicy, "policy %d", int(policy))
	}
	if len(hosts) == 0 {
		return nil, ErrNoHosts
	}
	if policy == StaticSizePartition && len(hosts) < sched.NumCategories {
		return nil, errors.Wrapf(ErrPartitionHosts, "got %d hosts, need %d", len(hosts), sched.NumCategories)
	}

	d := &Dispatcher{
		policy:    policy,
		hosts:     append([]Host(nil), hosts...),
		cursor:    atomic.NewUint64(0),
		threshold: DefaultNoiseThreshold,
		scope:     tally.NoopScope,
	}
	for _, opt := range opts {
		opt(d)
	}

	if policy == StaticSizePartition && len(hosts) > sched.NumCategories {
		log.WithFields(log.Fields{
			"hosts":  len(hosts),
			"policy": policy.String(),
		}).Warn("hosts beyond the partitioned ones will never receive work")
	}

	scope := d.scope.Tagged(map[string]string{"policy": policy.String()})
	d.submitted = scope.Counter("submitted")
	d.routed = make([]tally.Counter, len(d.hosts))
	for i := range d.hosts {
		d.routed[i] = scope.Tagged(map[string]string{"host": strconv.Itoa(i)}).Counter("routed")
	}
	return d, nil
}

// Policy returns the routing policy.
func (d *Dispatcher) Policy() Policy { return d.policy }

// NumHosts returns the number of hosts.
func (d *Dispatcher) NumHosts() int { return len(d.hosts) }

// Submit routes t to a host and returns that host's index. Safe for
// concurrent use.
func (d *Dispatcher) Submit(t *sched.Task) (int, error) {
	if t == nil {
		return 0, ErrNilTask
	}

	idx, err := d.pick(t)
	if err != nil {
		return 0, err
	}

	d.hosts[idx].Enqueue(t)
	d.submitted.Inc(1)
	d.routed[idx].Inc(1)

	log.WithFields(log.Fields{
		"policy":   d.policy.String(),
		"host":     idx,
		"task":     t.ID,
		"priority": t.Priority(),
		"category": t.Category().String(),
	}).Debug("task routed")
	return idx, nil
}

func (d *Dispatcher) pick(t *sched.Task) (int, error) {
	switch d.policy {
	case RoundRobin:
		// fetch-and-increment: the first submission gets cursor 0
		return selectRoundRobin(d.cursor.Inc()-1, len(d.hosts)), nil
	case ShortestQueue:
		return selectShortestQueue(d.hosts), nil
	case LeastWorkLeft:
		return selectLeastWorkLeft(d.hosts, d.threshold), nil
	case StaticSizePartition:
		return selectStaticPartition(t.Category())
	}
	return 0, errors.Wrapf(ErrUnknownPolicy, "policy %d", int(d.policy))
}
