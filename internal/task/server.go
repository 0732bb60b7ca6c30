package task

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/liteplan/liteplan/internal/agent"
	"github.com/liteplan/liteplan/internal/eventbus"
	"github.com/liteplan/liteplan/pkg/cerr"
)

type Server struct {
	repo      Repository
	agentRepo agent.Repository
	eventBus  *eventbus.Bus
}

func NewServer(repo Repository, agentRepo agent.Repository, eventBus *eventbus.Bus) *Server {
	return &Server{
		repo:      repo,
		agentRepo: agentRepo,
		eventBus:  eventBus,
	}
}

func (s *Server) Register(r chi.Router) {
	r.Post("/", s.handleCreate)
	r.Get("/", s.handleList)
	r.Get("/{taskID}", s.handleGet)
	r.Put("/{taskID}", s.handleUpdate)
	r.Delete("/{taskID}", s.handleDelete)
	r.Patch("/{taskID}/status", s.handleUpdateStatus)
	r.Patch("/{taskID}/assign", s.handleAssign)
}

type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// UpdateRequest carries a partial update: nil fields are left untouched.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

type AssignRequest struct {
	AgentID string `json:"agent_id"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}

	priority := PriorityMedium
	if req.Priority != "" {
		var err error
		priority, err = ParsePriority(req.Priority)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	}

	t := &Task{
		ID:          ulid.Make().String(),
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		Status:      StatusTodo,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.TypeTaskCreated, t.ID, map[string]string{"title": t.Title})

	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, t)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var f Filter
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		status, err := ParseStatus(v)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		f.Status = &status
	}
	if v := q.Get("assigned_to"); v != "" {
		f.AssignedTo = &v
	}
	if v := q.Get("priority"); v != "" {
		priority, err := ParsePriority(v)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		f.Priority = &priority
	}

	tasks, err := s.repo.List(ctx, f)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if tasks == nil {
		tasks = []*Task{}
	}
	cerr.SetJSONResponse(ctx, tasks)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	t, err := s.repo.Get(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}

	t, err := s.repo.Get(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Priority != nil {
		priority, err := ParsePriority(*req.Priority)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		t.Priority = priority
	}
	// updated_at moves on every update call, supplied fields or not.
	now := time.Now().UTC()
	t.UpdatedAt = &now

	if err := s.repo.Update(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.TypeTaskUpdated, t.ID, map[string]string{"title": t.Title})

	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "taskID")
	if err := s.repo.Delete(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.TypeTaskDeleted, id, nil)

	cerr.SetJSONResponseWithStatus(ctx, http.StatusNoContent, nil)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	t, err := s.repo.Get(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	t.Status = status
	now := time.Now().UTC()
	t.UpdatedAt = &now

	if err := s.repo.Update(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.TypeTaskStatusChanged, t.ID, map[string]string{"status": string(t.Status)})

	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}

	// Task existence is checked before the agent so a request that misses
	// both reports the task.
	t, err := s.repo.Get(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	a, err := s.agentRepo.Get(ctx, req.AgentID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	// Snapshot copy: the task records the agent as it is right now, and a
	// re-assignment simply replaces the previous snapshot.
	t.AssignedTo = &AssignedAgent{
		ID:   a.ID,
		Name: a.Name,
		Role: a.Role,
	}
	now := time.Now().UTC()
	t.UpdatedAt = &now

	if err := s.repo.Update(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.TypeTaskAssigned, t.ID, map[string]string{"agent_id": a.ID})

	cerr.SetJSONResponse(ctx, t)
}
