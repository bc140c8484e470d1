package job

import (
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lbsim/internal/sched"
)

func TestSequencerIsMonotonicUnderConcurrency(t *testing.T) {
	var (
		seq  Sequencer
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[uint64]bool)
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prev := uint64(0)
			for i := 0; i < 100; i++ {
				v := seq.Next()
				assert.Greater(t, v, prev)
				prev = v
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 800)
	assert.Equal(t, uint64(801), seq.Next())
}

func TestLoadWorkloadAndBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workload.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
tasks:
  - priority: 1
    work_ms: 300
    preemptible: true
    category: LONG
  - priority: 5
    work_ms: 100
    category: short
    delay_ms: 50
`), 0o644))

	w, err := LoadWorkload(path)
	require.NoError(t, err)
	require.Len(t, w.Tasks, 2)

	var seq Sequencer
	items, err := w.Build(&seq)
	require.NoError(t, err)
	require.Len(t, items, 2)

	first, second := items[0].Task, items[1].Task
	assert.Equal(t, uint64(1), first.Arrival())
	assert.Equal(t, uint64(2), second.Arrival())
	assert.Equal(t, sched.CategoryLong, first.Category())
	assert.True(t, first.Preemptible())
	assert.Equal(t, 300*time.Millisecond, first.Remaining())
	assert.Equal(t, 5, second.Priority())
	assert.False(t, second.Preemptible())
	assert.Equal(t, time.Duration(0), items[0].Delay)
	assert.Equal(t, 50*time.Millisecond, items[1].Delay)
}

func TestBuildRejectsUnknownCategory(t *testing.T) {
	w := &Workload{Tasks: []Spec{{Priority: 1, WorkMS: 10, Category: "GIANT"}}}
	_, err := w.Build(&Sequencer{})
	assert.Error(t, err)
}

func TestLoadWorkloadMissingFile(t *testing.T) {
	_, err := LoadWorkload(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestRandomWorkload(t *testing.T) {
	const quantum = 10 * time.Millisecond
	var seq Sequencer
	a := Random(rand.New(rand.NewSource(7)), 50, quantum, &seq)
	b := Random(rand.New(rand.NewSource(7)), 50, quantum, &Sequencer{})
	require.Len(t, a, 50)

	for i, it := range a {
		task := it.Task
		assert.Equal(t, uint64(i+1), task.Arrival())
		assert.True(t, task.Category().Valid())
		lo, hi := categoryQuanta[task.Category()][0], categoryQuanta[task.Category()][1]
		assert.GreaterOrEqual(t, task.Remaining(), time.Duration(lo)*quantum)
		assert.LessOrEqual(t, task.Remaining(), time.Duration(hi)*quantum)

		// same seed, same workload
		assert.Equal(t, task.Priority(), b[i].Task.Priority())
		assert.Equal(t, task.Remaining(), b[i].Task.Remaining())
		assert.Equal(t, it.Delay, b[i].Delay)
	}
}
