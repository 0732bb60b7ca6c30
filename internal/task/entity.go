package task

import (
	"fmt"
	"time"

	"github.com/liteplan/liteplan/pkg/cerr"
)

// Status is the closed set of workflow states a task can be in. Any status
// may transition directly to any other; there is no transition graph.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Statuses lists every valid status in a fixed order, used for zero-filled
// dashboard buckets.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return Status(s), nil
	}
	return "", cerr.NewError(cerr.InvalidArgument,
		fmt.Sprintf("status must be one of todo, in_progress, review, done, got %q", s), nil)
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	}
	return "", cerr.NewError(cerr.InvalidArgument,
		fmt.Sprintf("priority must be one of low, medium, high, got %q", s), nil)
}

// AssignedAgent is a point-in-time copy of an agent embedded into a task at
// assignment. It is deliberately a separate type from agent.Agent: the task
// keeps the snapshot as it was when assigned, never a live reference.
type AssignedAgent struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Role string `json:"role" yaml:"role"`
}

type Task struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Priority    Priority  `json:"priority" yaml:"priority"`
	Status      Status    `json:"status" yaml:"status"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	// Nil until the first mutating operation, refreshed on every one after.
	UpdatedAt  *time.Time     `json:"updated_at" yaml:"updated_at"`
	AssignedTo *AssignedAgent `json:"assigned_to" yaml:"assigned_to"`
}
