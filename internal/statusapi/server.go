package statusapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"lbsim/internal/dispatch"
	"lbsim/internal/job"
	"lbsim/internal/sched"
)

// Server exposes host load and task submission over HTTP.
type Server struct {
	dispatcher *dispatch.Dispatcher
	hosts      []*sched.Host
	seq        *job.Sequencer
}

func New(d *dispatch.Dispatcher, hosts []*sched.Host, seq *job.Sequencer) *Server {
	return &Server{dispatcher: d, hosts: hosts, seq: seq}
}

// Handler builds the root router and mounts the API under /api/v1.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "Use a versioned path like /api/v1/..."})
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/hosts", s.listHosts)
		api.Get("/hosts/{index}", s.getHost)
		api.Post("/tasks", s.submitTask)
	})
	return r
}

type runningTask struct {
	ID          string `json:"id"`
	Priority    int    `json:"priority"`
	RemainingMS int64  `json:"remainingMs"`
	Preemptible bool   `json:"preemptible"`
}

type hostStatus struct {
	Index      int          `json:"index"`
	State      string       `json:"state"`
	QueueSize  int          `json:"queueSize"`
	WorkLeftMS int64        `json:"workLeftMs"`
	Running    *runningTask `json:"running"`
}

// maxSubmitBody caps the size of a task submission.
const maxSubmitBody = 64 << 10

type submitRequest struct {
	Priority    int    `json:"priority"`
	WorkMS      int64  `json:"workMs"`
	Preemptible bool   `json:"preemptible"`
	Category    string `json:"category"`
}

type submitResponse struct {
	ID      string `json:"id"`
	Host    int    `json:"host"`
	Arrival uint64 `json:"arrival"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func statusOf(h *sched.Host) hostStatus {
	st := hostStatus{
		Index:      h.ID(),
		State:      h.State().String(),
		QueueSize:  h.QueueSize(),
		WorkLeftMS: h.WorkLeft().Milliseconds(),
	}
	if t, ok := h.Running(); ok {
		st.Running = &runningTask{
			ID:          t.ID,
			Priority:    t.Priority(),
			RemainingMS: t.Remaining().Milliseconds(),
			Preemptible: t.Preemptible(),
		}
	}
	return st
}

func (s *Server) listHosts(w http.ResponseWriter, r *http.Request) {
	out := make([]hostStatus, 0, len(s.hosts))
	for _, h := range s.hosts {
		out = append(out, statusOf(h))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getHost(w http.ResponseWriter, r *http.Request) {
	idx, err := parseIndex(chi.URLParam(r, "index"), len(s.hosts))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown_host", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, statusOf(s.hosts[idx]))
}

func (s *Server) submitTask(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: err.Error()})
		return
	}
	if req.Category == "" {
		req.Category = sched.CategoryShort.String()
	}
	cat, err := sched.ParseCategory(req.Category)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: err.Error()})
		return
	}

	t := sched.NewTask(s.seq.Next(), req.Priority, cat, time.Duration(req.WorkMS)*time.Millisecond, req.Preemptible)
	idx, err := s.dispatcher.Submit(t)
	if err != nil {
		log.WithError(err).WithField("task", t.ID).Error("submit failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "submit_failed", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{ID: t.ID, Host: idx, Arrival: t.Arrival()})
}

func parseIndex(s string, n int) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("invalid host index %q", s)
	}
	if idx < 0 || idx >= n {
		return 0, errors.Errorf("host index %d out of range [0,%d)", idx, n)
	}
	return idx, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}
