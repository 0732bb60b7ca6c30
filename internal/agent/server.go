package agent

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/liteplan/liteplan/internal/eventbus"
	"github.com/liteplan/liteplan/pkg/cerr"
)

type Server struct {
	repo     Repository
	eventBus *eventbus.Bus
}

func NewServer(repo Repository, eventBus *eventbus.Bus) *Server {
	return &Server{
		repo:     repo,
		eventBus: eventBus,
	}
}

func (s *Server) Register(r chi.Router) {
	r.Post("/", s.handleCreate)
	r.Get("/", s.handleList)
	r.Get("/{agentID}", s.handleGet)
}

type CreateRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}

	a := &Agent{
		ID:   ulid.Make().String(),
		Name: req.Name,
		Role: req.Role,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.TypeAgentCreated, a.ID, map[string]string{"name": a.Name, "role": a.Role})

	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, a)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	agents, err := s.repo.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if agents == nil {
		agents = []*Agent{}
	}
	cerr.SetJSONResponse(ctx, agents)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	a, err := s.repo.Get(ctx, chi.URLParam(r, "agentID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, a)
}
