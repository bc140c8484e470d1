package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskClampsNegativeWork(t *testing.T) {
	task := NewTask(1, 0, CategoryShort, -time.Second, true)
	assert.Equal(t, time.Duration(0), task.Remaining())
	assert.NotEmpty(t, task.ID)
}

func TestSetRemainingClampsAtZero(t *testing.T) {
	task := NewTask(1, 0, CategoryLong, time.Second, false)
	task.SetRemaining(-50 * time.Millisecond)
	assert.Equal(t, time.Duration(0), task.Remaining())
}

func TestFinishIsIdempotent(t *testing.T) {
	task := NewTask(1, 0, CategoryMedium, time.Second, false)
	assert.False(t, task.Finished())
	task.Finish()
	task.Finish()
	assert.True(t, task.Finished())
}

func TestParseCategory(t *testing.T) {
	for in, want := range map[string]Category{
		"SHORT":   CategoryShort,
		"medium":  CategoryMedium,
		" Long ": CategoryLong,
	} {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCategory("HUGE")
	assert.Error(t, err)
	assert.False(t, Category(7).Valid())
	assert.Equal(t, "UNKNOWN", Category(7).String())
}
