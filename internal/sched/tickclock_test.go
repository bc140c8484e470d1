package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickClockCountsQuanta(t *testing.T) {
	c := NewTickClock(time.Millisecond)
	assert.True(t, c.Wait())
	assert.True(t, c.Wait())
	assert.Equal(t, int64(2), c.Count())
}

func TestTickClockStopInterrupts(t *testing.T) {
	c := NewTickClock(time.Hour)
	go func() {
		time.Sleep(10 * time.Millisecond)
		c.Stop()
	}()
	assert.False(t, c.Wait())
	c.Stop()
	assert.False(t, c.Wait())
	assert.Equal(t, int64(0), c.Count())
}

func TestManualClock(t *testing.T) {
	c := NewManualClock()
	got := make(chan bool)
	go func() { got <- c.Wait() }()

	assert.True(t, c.Tick())
	assert.True(t, <-got)
	assert.Equal(t, int64(1), c.Count())

	c.Stop()
	assert.False(t, c.Wait())
	assert.False(t, c.Tick())
}
