// Package seed pre-populates the store from a YAML file at startup. Meant
// for demos and local development; with no seed file configured the process
// starts empty.
package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/liteplan/liteplan/internal/agent"
	"github.com/liteplan/liteplan/internal/task"
)

type Agent struct {
	Name string `yaml:"name"`
	Role string `yaml:"role"`
}

type Task struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Priority    string `yaml:"priority"`
	Status      string `yaml:"status"`
	// Optional index into the agents list of this file.
	AssignTo *int `yaml:"assign_to"`
}

type File struct {
	Agents []Agent `yaml:"agents"`
	Tasks  []Task  `yaml:"tasks"`
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// Apply creates the seeded agents and tasks through the repositories, going
// through the same enum parsing the HTTP boundary uses.
func Apply(ctx context.Context, f *File, agentRepo agent.Repository, taskRepo task.Repository) error {
	agents := make([]*agent.Agent, 0, len(f.Agents))
	for _, sa := range f.Agents {
		a := &agent.Agent{
			ID:   ulid.Make().String(),
			Name: sa.Name,
			Role: sa.Role,
		}
		if err := agentRepo.Create(ctx, a); err != nil {
			return fmt.Errorf("failed to seed agent %q: %w", sa.Name, err)
		}
		agents = append(agents, a)
	}

	for i, st := range f.Tasks {
		priority := task.PriorityMedium
		if st.Priority != "" {
			var err error
			priority, err = task.ParsePriority(st.Priority)
			if err != nil {
				return fmt.Errorf("seed task %d: %w", i, err)
			}
		}
		status := task.StatusTodo
		if st.Status != "" {
			var err error
			status, err = task.ParseStatus(st.Status)
			if err != nil {
				return fmt.Errorf("seed task %d: %w", i, err)
			}
		}

		t := &task.Task{
			ID:          ulid.Make().String(),
			Title:       st.Title,
			Description: st.Description,
			Priority:    priority,
			Status:      status,
			CreatedAt:   time.Now().UTC(),
		}
		if st.AssignTo != nil {
			if *st.AssignTo < 0 || *st.AssignTo >= len(agents) {
				return fmt.Errorf("seed task %d: assign_to %d out of range", i, *st.AssignTo)
			}
			a := agents[*st.AssignTo]
			t.AssignedTo = &task.AssignedAgent{
				ID:   a.ID,
				Name: a.Name,
				Role: a.Role,
			}
		}
		if err := taskRepo.Create(ctx, t); err != nil {
			return fmt.Errorf("failed to seed task %q: %w", st.Title, err)
		}
	}
	return nil
}
