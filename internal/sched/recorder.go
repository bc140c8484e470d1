// internal/sched/recorder.go

package sched

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Recorder collects host events: it logs them and, once EnableCSV is called,
// appends them to a CSV file. Record is safe to call from every host.
type Recorder struct {
	mu     sync.Mutex
	quanta map[string]int64 // cumulative quanta per task

	csvFile   *os.File
	csvWriter *csv.Writer
}

func NewRecorder() *Recorder {
	return &Recorder{quanta: make(map[string]int64)}
}

// EnableCSV creates (or truncates) path, writes the column header and
// appends one row per recorded event from then on. Call it before the
// hosts start.
func (r *Recorder) EnableCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create event log %s", path)
	}
	w := csv.NewWriter(f)

	// write header
	if err := w.Write([]string{"timestamp", "host", "event", "task_id", "priority", "remaining_ms", "quanta"}); err != nil {
		f.Close()
		return errors.Wrap(err, "write csv header")
	}
	w.Flush()

	r.mu.Lock()
	r.csvFile = f
	r.csvWriter = w
	r.mu.Unlock()
	return nil
}

// Listener returns r.Record as a host Listener.
func (r *Recorder) Listener() Listener { return r.Record }

// Record handles one event.
func (r *Recorder) Record(ev StatusEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.Kind == StatusQuantum || ev.Kind == StatusFinish {
		r.quanta[ev.TaskID]++
	}
	ran := r.quanta[ev.TaskID]

	// per-quantum events are only interesting at trace level; interrupted
	// quanta repeat while a clock is stopped, so they stay at debug
	entry := log.WithFields(log.Fields{
		"host":      ev.Host,
		"event":     ev.Kind.String(),
		"task":      ev.TaskID,
		"priority":  ev.Priority,
		"remaining": ev.Remaining,
		"quanta":    ran,
	})
	switch ev.Kind {
	case StatusQuantum, StatusEnqueue:
		entry.Trace("event")
	case StatusInterrupted:
		entry.Debug("event")
	default:
		entry.Info("event")
	}

	if r.csvWriter != nil {
		rec := []string{
			ev.Time.Format(time.RFC3339Nano),
			strconv.Itoa(ev.Host),
			ev.Kind.String(),
			ev.TaskID,
			strconv.Itoa(ev.Priority),
			strconv.FormatInt(ev.Remaining.Milliseconds(), 10),
			strconv.FormatInt(ran, 10),
		}
		if err := r.csvWriter.Write(rec); err != nil {
			log.WithError(err).Warn("failed to write event row")
		}
		r.csvWriter.Flush()
	}
}

// Quanta returns how many quanta the task has been credited with so far.
func (r *Recorder) Quanta(taskID string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quanta[taskID]
}

// Close flushes and closes the CSV file, if any.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.csvFile == nil {
		return nil
	}
	r.csvWriter.Flush()
	err := r.csvWriter.Error()
	if cerr := r.csvFile.Close(); err == nil {
		err = cerr
	}
	r.csvFile, r.csvWriter = nil, nil
	return err
}
