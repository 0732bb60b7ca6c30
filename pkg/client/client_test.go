package client_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "github.com/liteplan/liteplan/internal"
	"github.com/liteplan/liteplan/internal/agent"
	agentrepo "github.com/liteplan/liteplan/internal/agent/repositoryimpl"
	"github.com/liteplan/liteplan/internal/config"
	"github.com/liteplan/liteplan/internal/dashboard"
	"github.com/liteplan/liteplan/internal/event"
	"github.com/liteplan/liteplan/internal/eventbus"
	"github.com/liteplan/liteplan/internal/task"
	taskrepo "github.com/liteplan/liteplan/internal/task/repositoryimpl"
	"github.com/liteplan/liteplan/pkg/client"
	"github.com/liteplan/liteplan/pkg/memstore"
)

func newTestServer(t *testing.T) *client.Client {
	t.Helper()

	agentRepo := agentrepo.NewMemoryRepository(memstore.NewCollection[agent.Agent]())
	taskRepo := taskrepo.NewMemoryRepository(memstore.NewCollection[task.Task]())
	bus := eventbus.New()

	srv := server.NewServer(
		&config.Env{Env: "test"},
		agent.NewServer(agentRepo, bus),
		task.NewServer(taskRepo, agentRepo, bus),
		dashboard.NewServer(taskRepo),
		event.NewServer(bus),
	)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return client.New(ts.URL)
}

func TestClientAgentLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	created, err := c.CreateAgent(ctx, "Alice", "senior_dev")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := c.GetAgent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	agents, err := c.ListAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, *created, agents[0])
}

func TestClientTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	a, err := c.CreateAgent(ctx, "Alice", "senior_dev")
	require.NoError(t, err)

	created, err := c.CreateTask(ctx, client.CreateTaskParams{Title: "T", Description: "D"})
	require.NoError(t, err)
	assert.Equal(t, "medium", created.Priority)
	assert.Equal(t, "todo", created.Status)
	assert.Nil(t, created.UpdatedAt)

	title := "T2"
	updated, err := c.UpdateTask(ctx, created.ID, client.UpdateTaskParams{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, "D", updated.Description)
	require.NotNil(t, updated.UpdatedAt)

	moved, err := c.UpdateTaskStatus(ctx, created.ID, "in_progress")
	require.NoError(t, err)
	assert.Equal(t, "in_progress", moved.Status)

	assigned, err := c.AssignTask(ctx, created.ID, a.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, a.ID, assigned.AssignedTo.ID)

	tasks, err := c.ListTasks(ctx, client.ListTasksParams{Status: "in_progress", AssignedTo: a.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, created.ID, tasks[0].ID)

	d, err := c.GetDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Total)
	assert.Equal(t, 1, d.ByStatus["in_progress"])

	require.NoError(t, c.DeleteTask(ctx, created.ID))
	_, err = c.GetTask(ctx, created.ID)
	require.Error(t, err)
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	_, err := c.GetTask(ctx, "ghost")
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Equal(t, "NotFound", apiErr.Code)
	assert.Equal(t, "task not found", apiErr.Message)

	_, err = c.CreateTask(ctx, client.CreateTaskParams{Title: "T", Priority: "urgent"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
}
