package task_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liteplan/liteplan/internal/agent"
	agentrepo "github.com/liteplan/liteplan/internal/agent/repositoryimpl"
	"github.com/liteplan/liteplan/internal/eventbus"
	"github.com/liteplan/liteplan/internal/task"
	taskrepo "github.com/liteplan/liteplan/internal/task/repositoryimpl"
	"github.com/liteplan/liteplan/pkg/cerr"
	"github.com/liteplan/liteplan/pkg/memstore"
)

type fixture struct {
	handler   http.Handler
	agentRepo agent.Repository
	taskRepo  task.Repository
	bus       *eventbus.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	agentRepo := agentrepo.NewMemoryRepository(memstore.NewCollection[agent.Agent]())
	taskRepo := taskrepo.NewMemoryRepository(memstore.NewCollection[task.Task]())
	bus := eventbus.New()

	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	r.Route("/tasks", task.NewServer(taskRepo, agentRepo, bus).Register)

	return &fixture{
		handler:   r,
		agentRepo: agentRepo,
		taskRepo:  taskRepo,
		bus:       bus,
	}
}

func (f *fixture) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) task.Task {
	t.Helper()
	var got task.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

func (f *fixture) createAgent(t *testing.T, name, role string) *agent.Agent {
	t.Helper()
	a := &agent.Agent{ID: ulid.Make().String(), Name: name, Role: role}
	require.NoError(t, f.agentRepo.Create(context.Background(), a))
	return a
}

func TestCreateTaskDefaults(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/tasks", map[string]string{
		"title":       "T",
		"description": "D",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decodeTask(t, rec)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "D", got.Description)
	assert.Equal(t, task.PriorityMedium, got.Priority)
	assert.Equal(t, task.StatusTodo, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Nil(t, got.UpdatedAt)
	assert.Nil(t, got.AssignedTo)
}

func TestCreateTaskInvalidPriority(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/tasks", map[string]string{
		"title":    "T",
		"priority": "urgent",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tasks, err := f.taskRepo.List(context.Background(), task.Filter{})
	require.NoError(t, err)
	assert.Empty(t, tasks, "rejected create must not reach the store")
}

func TestGetTask(t *testing.T) {
	f := newFixture(t)

	created := decodeTask(t, f.request(t, http.MethodPost, "/tasks", map[string]string{"title": "T"}))

	rec := f.request(t, http.MethodGet, "/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeTask(t, rec).ID)

	rec = f.request(t, http.MethodGet, "/tasks/"+ulid.Make().String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateTaskPartial(t *testing.T) {
	f := newFixture(t)

	created := decodeTask(t, f.request(t, http.MethodPost, "/tasks", map[string]string{
		"title":       "T",
		"description": "D",
		"priority":    "low",
	}))

	rec := f.request(t, http.MethodPut, "/tasks/"+created.ID, map[string]string{"title": "T2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeTask(t, rec)
	assert.Equal(t, "T2", got.Title)
	assert.Equal(t, "D", got.Description, "omitted field must stay unchanged")
	assert.Equal(t, task.PriorityLow, got.Priority, "omitted field must stay unchanged")
	require.NotNil(t, got.UpdatedAt)
}

func TestUpdateTaskEmptyBodyStillTouchesUpdatedAt(t *testing.T) {
	f := newFixture(t)

	created := decodeTask(t, f.request(t, http.MethodPost, "/tasks", map[string]string{"title": "T"}))
	require.Nil(t, created.UpdatedAt)

	rec := f.request(t, http.MethodPut, "/tasks/"+created.ID, map[string]string{})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeTask(t, rec)
	assert.Equal(t, "T", got.Title)
	require.NotNil(t, got.UpdatedAt, "update with no fields still refreshes updated_at")
}

func TestUpdateTaskNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodPut, "/tasks/"+ulid.Make().String(), map[string]string{"title": "T"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)

	created := decodeTask(t, f.request(t, http.MethodPost, "/tasks", map[string]string{"title": "T"}))

	rec := f.request(t, http.MethodDelete, "/tasks/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = f.request(t, http.MethodDelete, "/tasks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTaskKeepsAgent(t *testing.T) {
	f := newFixture(t)
	a := f.createAgent(t, "Alice", "senior_dev")

	created := decodeTask(t, f.request(t, http.MethodPost, "/tasks", map[string]string{"title": "T"}))
	rec := f.request(t, http.MethodPatch, "/tasks/"+created.ID+"/assign", map[string]string{"agent_id": a.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodDelete, "/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	got, err := f.agentRepo.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)

	created := decodeTask(t, f.request(t, http.MethodPost, "/tasks", map[string]string{"title": "T"}))

	// Any status is reachable from any other, including done -> todo.
	for _, status := range []string{"done", "todo", "review", "in_progress"} {
		rec := f.request(t, http.MethodPatch, "/tasks/"+created.ID+"/status", map[string]string{"status": status})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, task.Status(status), decodeTask(t, rec).Status)
	}

	rec := f.request(t, http.MethodPatch, "/tasks/"+created.ID+"/status", map[string]string{"status": "doing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatusIdempotentStillRefreshesUpdatedAt(t *testing.T) {
	f := newFixture(t)

	created := decodeTask(t, f.request(t, http.MethodPost, "/tasks", map[string]string{"title": "T"}))

	first := decodeTask(t, f.request(t, http.MethodPatch, "/tasks/"+created.ID+"/status", map[string]string{"status": "review"}))
	require.NotNil(t, first.UpdatedAt)

	time.Sleep(5 * time.Millisecond)

	second := decodeTask(t, f.request(t, http.MethodPatch, "/tasks/"+created.ID+"/status", map[string]string{"status": "review"}))
	require.NotNil(t, second.UpdatedAt)
	assert.Equal(t, task.StatusReview, second.Status)
	assert.True(t, second.UpdatedAt.After(*first.UpdatedAt), "repeated transition still refreshes updated_at")
}

func TestAssignTask(t *testing.T) {
	f := newFixture(t)
	a := f.createAgent(t, "Alice", "senior_dev")

	created := decodeTask(t, f.request(t, http.MethodPost, "/tasks", map[string]string{"title": "T"}))

	rec := f.request(t, http.MethodPatch, "/tasks/"+created.ID+"/assign", map[string]string{"agent_id": a.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeTask(t, rec)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, task.AssignedAgent{ID: a.ID, Name: "Alice", Role: "senior_dev"}, *got.AssignedTo)
	require.NotNil(t, got.UpdatedAt)
}

func TestAssignTaskUnknownAgent(t *testing.T) {
	f := newFixture(t)

	created := decodeTask(t, f.request(t, http.MethodPost, "/tasks", map[string]string{"title": "T"}))

	rec := f.request(t, http.MethodPatch, "/tasks/"+created.ID+"/assign", map[string]string{"agent_id": "nope"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "agent not found")

	// Failed assignment leaves the task untouched.
	got, err := f.taskRepo.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTo)
	assert.Nil(t, got.UpdatedAt)
}

func TestAssignTaskChecksTaskFirst(t *testing.T) {
	f := newFixture(t)

	// Both task and agent are unknown; the task error wins.
	rec := f.request(t, http.MethodPatch, "/tasks/"+ulid.Make().String()+"/assign", map[string]string{"agent_id": "nope"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "task not found")
}

func TestReassignReplacesSnapshot(t *testing.T) {
	f := newFixture(t)
	alice := f.createAgent(t, "Alice", "senior_dev")
	bob := f.createAgent(t, "Bob", "junior_dev")

	created := decodeTask(t, f.request(t, http.MethodPost, "/tasks", map[string]string{"title": "T"}))

	rec := f.request(t, http.MethodPatch, "/tasks/"+created.ID+"/assign", map[string]string{"agent_id": alice.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodPatch, "/tasks/"+created.ID+"/assign", map[string]string{"agent_id": bob.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeTask(t, rec)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, bob.ID, got.AssignedTo.ID)
	assert.Equal(t, "Bob", got.AssignedTo.Name)
}

func TestListTasksFilterConjunction(t *testing.T) {
	f := newFixture(t)
	a := f.createAgent(t, "Alice", "senior_dev")

	t1 := decodeTask(t, f.request(t, http.MethodPost, "/tasks", map[string]string{"title": "1", "priority": "low"}))
	decodeTask(t, f.request(t, http.MethodPost, "/tasks", map[string]string{"title": "2", "priority": "high"}))
	t3 := decodeTask(t, f.request(t, http.MethodPost, "/tasks", map[string]string{"title": "3", "priority": "low"}))

	f.request(t, http.MethodPatch, "/tasks/"+t3.ID+"/status", map[string]string{"status": "done"})
	f.request(t, http.MethodPatch, "/tasks/"+t3.ID+"/assign", map[string]string{"agent_id": a.ID})

	var got []task.Task

	rec := f.request(t, http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 3)
	assert.Equal(t, t1.ID, got[0].ID, "list keeps insertion order")

	rec = f.request(t, http.MethodGet, "/tasks?priority=low&status=done", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, t3.ID, got[0].ID)

	rec = f.request(t, http.MethodGet, "/tasks?assigned_to="+a.ID, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, t3.ID, got[0].ID)

	rec = f.request(t, http.MethodGet, "/tasks?status=nonsense", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskEventsPublished(t *testing.T) {
	f := newFixture(t)
	_, ch := f.bus.Subscribe(16)

	created := decodeTask(t, f.request(t, http.MethodPost, "/tasks", map[string]string{"title": "T"}))

	ev := <-ch
	assert.Equal(t, eventbus.TypeTaskCreated, ev.Type)
	assert.Equal(t, created.ID, ev.ResourceID)

	f.request(t, http.MethodDelete, "/tasks/"+created.ID, nil)
	ev = <-ch
	assert.Equal(t, eventbus.TypeTaskDeleted, ev.Type)
}
