package dispatch

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lbsim/internal/sched"
)

// load is a host with fixed load readings.
type load struct {
	size int
	work time.Duration
}

func (l load) Enqueue(*sched.Task) {}

func (l load) QueueSize() int { return l.size }

func (l load) WorkLeft() time.Duration { return l.work }

func sizes(n ...int) []Host {
	out := make([]Host, len(n))
	for i, s := range n {
		out[i] = load{size: s}
	}
	return out
}

func works(ms ...int) []Host {
	out := make([]Host, len(ms))
	for i, w := range ms {
		out[i] = load{work: time.Duration(w) * time.Millisecond}
	}
	return out
}

func TestParsePolicy(t *testing.T) {
	for _, name := range PolicyNames() {
		p, err := ParsePolicy(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.String())
	}

	p, err := ParsePolicy(" least_work_left ")
	require.NoError(t, err)
	assert.Equal(t, LeastWorkLeft, p)

	_, err = ParsePolicy("RANDOM")
	assert.True(t, errors.Is(err, ErrUnknownPolicy))
	assert.Equal(t, "UNKNOWN", Policy(42).String())
}

func TestSelectRoundRobin(t *testing.T) {
	var got []int
	for c := uint64(0); c < 7; c++ {
		got = append(got, selectRoundRobin(c, 3))
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 0}, got)
}

func TestSelectShortestQueue(t *testing.T) {
	assert.Equal(t, 1, selectShortestQueue(sizes(3, 1, 2)))
	assert.Equal(t, 1, selectShortestQueue(sizes(3, 1, 1)), "ties go to the lowest index")
	assert.Equal(t, 0, selectShortestQueue(sizes(0, 0, 0)))
	assert.Equal(t, 3, selectShortestQueue(sizes(4, 4, 4, 0)))
}

func TestSelectLeastWorkLeft(t *testing.T) {
	threshold := time.Second

	assert.Equal(t, 1, selectLeastWorkLeft(works(5000, 2000, 2500), threshold))
	assert.Equal(t, 0, selectLeastWorkLeft(works(1000, 500, 200), threshold),
		"hosts within the threshold are tied")
	assert.Equal(t, 1, selectLeastWorkLeft(works(2000, 1000), threshold),
		"a difference of exactly the threshold is not a tie")
	assert.Equal(t, 0, selectLeastWorkLeft(works(2000, 1001), threshold))
	assert.Equal(t, 2, selectLeastWorkLeft(works(2100, 1000, 0), threshold),
		"each lighter-by-threshold host replaces the best so far")
	assert.Equal(t, 2, selectLeastWorkLeft(works(4000, 3500, 1000), threshold))
	assert.Equal(t, 1, selectLeastWorkLeft(works(300, 200), 0),
		"zero threshold picks the strict minimum")
	assert.Equal(t, 0, selectLeastWorkLeft(works(200, 200), 0))
}

func TestSelectStaticPartition(t *testing.T) {
	for c, want := range map[sched.Category]int{
		sched.CategoryShort:  0,
		sched.CategoryMedium: 1,
		sched.CategoryLong:   2,
	} {
		got, err := selectStaticPartition(c)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := selectStaticPartition(sched.Category(3))
	assert.True(t, errors.Is(err, ErrUnknownCategory))
}
