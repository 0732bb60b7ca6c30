package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/liteplan/liteplan/internal/agent"
	"github.com/liteplan/liteplan/internal/config"
	"github.com/liteplan/liteplan/internal/dashboard"
	"github.com/liteplan/liteplan/internal/event"
	"github.com/liteplan/liteplan/internal/task"
	"github.com/liteplan/liteplan/pkg/cerr"
	"github.com/liteplan/liteplan/pkg/clog"
)

type Server struct {
	server          *http.Server
	env             *config.Env
	agentServer     *agent.Server
	taskServer      *task.Server
	dashboardServer *dashboard.Server
	eventServer     *event.Server
}

func NewServer(
	env *config.Env,
	agentServer *agent.Server,
	taskServer *task.Server,
	dashboardServer *dashboard.Server,
	eventServer *event.Server,
) *Server {
	return &Server{
		env:             env,
		agentServer:     agentServer,
		taskServer:      taskServer,
		dashboardServer: dashboardServer,
		eventServer:     eventServer,
	}
}

// Handler builds the full route tree. Exposed separately from
// ListenAndServe so tests can drive the server through httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
		)
		r.Route("/agents", s.agentServer.Register)
		r.Route("/tasks", s.taskServer.Register)
		r.Route("/dashboard", s.dashboardServer.Register)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
	})

	// The SSE stream writes its own response incrementally, so it stays
	// outside the JSON response middleware.
	r.Group(func(r chi.Router) {
		r.Use(clog.SlogChiMiddleware())
		r.Get("/events", s.eventServer.Stream)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(r)
}

// ListenAndServe starts the HTTP server. The provided context becomes the
// base context for all incoming requests, so cancelling it (e.g. on a
// shutdown signal) also tears down open event streams.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     h2c.NewHandler(s.Handler(), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
