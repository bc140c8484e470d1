package dispatch

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"lbsim/internal/sched"
)

// Policy selects how the dispatcher picks a host.
type Policy int

const (
	RoundRobin Policy = iota
	ShortestQueue
	LeastWorkLeft
	StaticSizePartition
)

var policyNames = map[Policy]string{
	RoundRobin:          "ROUND_ROBIN",
	ShortestQueue:       "SHORTEST_QUEUE",
	LeastWorkLeft:       "LEAST_WORK_LEFT",
	StaticSizePartition: "STATIC_SIZE_PARTITION",
}

func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return "UNKNOWN"
}

// PolicyNames lists the accepted policy names in declaration order.
func PolicyNames() []string {
	return []string{
		RoundRobin.String(),
		ShortestQueue.String(),
		LeastWorkLeft.String(),
		StaticSizePartition.String(),
	}
}

// ParsePolicy maps a policy name (case-insensitive) to a Policy.
func ParsePolicy(s string) (Policy, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownPolicy, "%q", s)
}

// The selection functions below are pure: they look at the load values
// handed to them and return a host index. Ties go to the lowest index.

func selectRoundRobin(cursor uint64, n int) int {
	return int(cursor % uint64(n))
}

func selectShortestQueue(hosts []Host) int {
	best, bestSize := 0, hosts[0].QueueSize()
	for i := 1; i < len(hosts); i++ {
		if size := hosts[i].QueueSize(); size < bestSize {
			best, bestSize = i, size
		}
	}
	return best
}

// selectLeastWorkLeft only moves off the current best when a host is lighter
// by at least threshold; smaller differences are treated as noise.
func selectLeastWorkLeft(hosts []Host, threshold time.Duration) int {
	best, bestWork := 0, hosts[0].WorkLeft()
	for i := 1; i < len(hosts); i++ {
		if work := hosts[i].WorkLeft(); work < bestWork && bestWork-work >= threshold {
			best, bestWork = i, work
		}
	}
	return best
}

func selectStaticPartition(c sched.Category) (int, error) {
	if !c.Valid() {
		return 0, errors.Wrapf(ErrUnknownCategory, "category %d", int(c))
	}
	return int(c), nil
}
