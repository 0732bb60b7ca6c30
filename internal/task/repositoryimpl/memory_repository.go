package repositoryimpl

import (
	"context"

	"github.com/liteplan/liteplan/internal/task"
	"github.com/liteplan/liteplan/pkg/cerr"
	"github.com/liteplan/liteplan/pkg/memstore"
)

// MemoryRepository keeps tasks in a process-wide collection. Values are
// copied in and out so callers always work on their own Task and changes
// only land through Update.
type MemoryRepository struct {
	store *memstore.Collection[task.Task]
}

func NewMemoryRepository(store *memstore.Collection[task.Task]) *MemoryRepository {
	return &MemoryRepository{store: store}
}

func (r *MemoryRepository) Create(ctx context.Context, t *task.Task) error {
	if _, ok := r.store.Get(t.ID); ok {
		return cerr.NewError(cerr.AlreadyExists, "task already exists", nil)
	}
	r.store.Set(t.ID, *t)
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	t, ok := r.store.Get(id)
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return &t, nil
}

func (r *MemoryRepository) List(ctx context.Context, f task.Filter) ([]*task.Task, error) {
	all := r.store.List()
	out := make([]*task.Task, 0, len(all))
	for i := range all {
		t := all[i]
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.AssignedTo != nil && (t.AssignedTo == nil || t.AssignedTo.ID != *f.AssignedTo) {
			continue
		}
		if f.Priority != nil && t.Priority != *f.Priority {
			continue
		}
		out = append(out, &t)
	}
	return out, nil
}

func (r *MemoryRepository) Update(ctx context.Context, t *task.Task) error {
	if _, ok := r.store.Get(t.ID); !ok {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	r.store.Set(t.ID, *t)
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	if !r.store.Delete(id) {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return nil
}
