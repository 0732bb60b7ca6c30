// Package dashboard derives summary counts over the task collection. It
// holds no state of its own: every request is a fresh scan, so the summary
// always reflects the latest mutation.
package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/liteplan/liteplan/internal/task"
	"github.com/liteplan/liteplan/pkg/cerr"
)

type Summary struct {
	Total      int                   `json:"total"`
	ByStatus   map[task.Status]int   `json:"by_status"`
	ByPriority map[task.Priority]int `json:"by_priority"`
}

type Server struct {
	taskRepo task.Repository
}

func NewServer(taskRepo task.Repository) *Server {
	return &Server{taskRepo: taskRepo}
}

func (s *Server) Register(r chi.Router) {
	r.Get("/", s.handleSummary)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tasks, err := s.taskRepo.List(ctx, task.Filter{})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	summary := Summary{
		Total:      len(tasks),
		ByStatus:   make(map[task.Status]int, len(task.Statuses)),
		ByPriority: make(map[task.Priority]int, len(task.Priorities)),
	}
	for _, st := range task.Statuses {
		summary.ByStatus[st] = 0
	}
	for _, p := range task.Priorities {
		summary.ByPriority[p] = 0
	}
	for _, t := range tasks {
		// Out-of-enum values (impossible when everything goes through the
		// parse step) are skipped rather than surfaced as errors.
		if _, ok := summary.ByStatus[t.Status]; ok {
			summary.ByStatus[t.Status]++
		}
		if _, ok := summary.ByPriority[t.Priority]; ok {
			summary.ByPriority[t.Priority]++
		}
	}

	cerr.SetJSONResponse(ctx, summary)
}
