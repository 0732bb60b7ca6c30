// Package client is a small typed HTTP client for the planner API, used by
// the liteplan CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Agent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	AssignedTo  *Agent     `json:"assigned_to"`
}

type Dashboard struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}

// APIError is the decoded {code, message} error body.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Code = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) CreateAgent(ctx context.Context, name, role string) (*Agent, error) {
	var a Agent
	body := map[string]string{"name": name, "role": role}
	if err := c.do(ctx, http.MethodPost, "/agents", nil, body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	var agents []Agent
	if err := c.do(ctx, http.MethodGet, "/agents", nil, nil, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

func (c *Client) GetAgent(ctx context.Context, id string) (*Agent, error) {
	var a Agent
	if err := c.do(ctx, http.MethodGet, "/agents/"+id, nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

type CreateTaskParams struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority,omitempty"`
}

func (c *Client) CreateTask(ctx context.Context, params CreateTaskParams) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, params, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

type ListTasksParams struct {
	Status     string
	AssignedTo string
	Priority   string
}

func (c *Client) ListTasks(ctx context.Context, params ListTasksParams) ([]Task, error) {
	query := url.Values{}
	if params.Status != "" {
		query.Set("status", params.Status)
	}
	if params.AssignedTo != "" {
		query.Set("assigned_to", params.AssignedTo)
	}
	if params.Priority != "" {
		query.Set("priority", params.Priority)
	}

	var tasks []Task
	if err := c.do(ctx, http.MethodGet, "/tasks", query, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodGet, "/tasks/"+id, nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

type UpdateTaskParams struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

func (c *Client) UpdateTask(ctx context.Context, id string, params UpdateTaskParams) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodPut, "/tasks/"+id, nil, params, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+id, nil, nil, nil)
}

func (c *Client) UpdateTaskStatus(ctx context.Context, id, status string) (*Task, error) {
	var t Task
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+id+"/status", nil, body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) AssignTask(ctx context.Context, id, agentID string) (*Task, error) {
	var t Task
	body := map[string]string{"agent_id": agentID}
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+id+"/assign", nil, body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) GetDashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	if err := c.do(ctx, http.MethodGet, "/dashboard", nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
