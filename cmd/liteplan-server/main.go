package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	server "github.com/liteplan/liteplan/internal"
	"github.com/liteplan/liteplan/internal/agent"
	agentrepo "github.com/liteplan/liteplan/internal/agent/repositoryimpl"
	"github.com/liteplan/liteplan/internal/config"
	"github.com/liteplan/liteplan/internal/dashboard"
	"github.com/liteplan/liteplan/internal/event"
	"github.com/liteplan/liteplan/internal/eventbus"
	"github.com/liteplan/liteplan/internal/seed"
	"github.com/liteplan/liteplan/internal/task"
	taskrepo "github.com/liteplan/liteplan/internal/task/repositoryimpl"
	"github.com/liteplan/liteplan/pkg/clog"
	"github.com/liteplan/liteplan/pkg/memstore"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup store and repositories
	agentStore := memstore.NewCollection[agent.Agent]()
	taskStore := memstore.NewCollection[task.Task]()
	agentRepo := agentrepo.NewMemoryRepository(agentStore)
	taskRepo := taskrepo.NewMemoryRepository(taskStore)

	// Setup event bus
	bus := eventbus.New()

	// Setup servers
	agentServer := agent.NewServer(agentRepo, bus)
	taskServer := task.NewServer(taskRepo, agentRepo, bus)
	dashboardServer := dashboard.NewServer(taskRepo)
	eventServer := event.NewServer(bus)

	srv := server.NewServer(env, agentServer, taskServer, dashboardServer, eventServer)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if env.SeedFile != "" {
		f, err := seed.Load(env.SeedFile)
		if err != nil {
			slog.Error("failed to load seed file", "path", env.SeedFile, "error", err)
			os.Exit(1)
		}
		if err := seed.Apply(ctx, f, agentRepo, taskRepo); err != nil {
			slog.Error("failed to apply seed file", "path", env.SeedFile, "error", err)
			os.Exit(1)
		}
		slog.Info("applied seed file", "path", env.SeedFile, "agents", len(f.Agents), "tasks", len(f.Tasks))
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	})

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give active connections time to finish after stream contexts are cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	wg.Wait()
}
