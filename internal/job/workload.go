package job

import (
	"math/rand"
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"lbsim/internal/sched"
)

// Sequencer hands out arrival order values. Safe for concurrent use.
type Sequencer struct {
	next atomic.Uint64
}

// Next returns the next arrival value, starting at 1.
func (s *Sequencer) Next() uint64 { return s.next.Inc() }

// Spec describes one task in a workload file.
type Spec struct {
	Priority    int    `yaml:"priority"`
	WorkMS      int64  `yaml:"work_ms"`
	Preemptible bool   `yaml:"preemptible"`
	Category    string `yaml:"category"` // SHORT, MEDIUM or LONG
	DelayMS     int64  `yaml:"delay_ms"` // pause before submitting this task
}

// Workload is the content of a workload file.
type Workload struct {
	Tasks []Spec `yaml:"tasks"`
}

// Item is a task ready to submit, with the pause to take before submitting it.
type Item struct {
	Task  *sched.Task
	Delay time.Duration
}

// LoadWorkload reads a YAML workload file.
func LoadWorkload(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read workload %s", path)
	}
	var w Workload
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrapf(err, "parse workload %s", path)
	}
	return &w, nil
}

// Build turns the specs into tasks, stamping arrival order from seq in file
// order.
func (w *Workload) Build(seq *Sequencer) ([]Item, error) {
	items := make([]Item, 0, len(w.Tasks))
	for i, s := range w.Tasks {
		cat, err := sched.ParseCategory(s.Category)
		if err != nil {
			return nil, errors.Wrapf(err, "task %d", i)
		}
		t := sched.NewTask(seq.Next(), s.Priority, cat,
			time.Duration(s.WorkMS)*time.Millisecond, s.Preemptible)
		items = append(items, Item{Task: t, Delay: time.Duration(s.DelayMS) * time.Millisecond})
	}
	return items, nil
}

// Work ranges per category, in quanta.
var categoryQuanta = [sched.NumCategories][2]int{
	sched.CategoryShort:  {1, 5},
	sched.CategoryMedium: {5, 20},
	sched.CategoryLong:   {20, 60},
}

// Random generates n tasks with random priority (0-9), category and
// preemptibility. Work is drawn from the category's range.
func Random(rng *rand.Rand, n int, quantum time.Duration, seq *Sequencer) []Item {
	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		cat := sched.Category(rng.Intn(sched.NumCategories))
		lo, hi := categoryQuanta[cat][0], categoryQuanta[cat][1]
		work := time.Duration(lo+rng.Intn(hi-lo+1)) * quantum
		t := sched.NewTask(seq.Next(), rng.Intn(10), cat, work, rng.Intn(2) == 0)
		items = append(items, Item{Task: t, Delay: time.Duration(rng.Intn(3)) * quantum})
	}
	return items
}
