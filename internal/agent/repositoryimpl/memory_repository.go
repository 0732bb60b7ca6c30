package repositoryimpl

import (
	"context"

	"github.com/liteplan/liteplan/internal/agent"
	"github.com/liteplan/liteplan/pkg/cerr"
	"github.com/liteplan/liteplan/pkg/memstore"
)

// MemoryRepository keeps agents in a process-wide collection. Agents are
// never updated or deleted, so the surface is create/get/list only.
type MemoryRepository struct {
	store *memstore.Collection[agent.Agent]
}

func NewMemoryRepository(store *memstore.Collection[agent.Agent]) *MemoryRepository {
	return &MemoryRepository{store: store}
}

func (r *MemoryRepository) Create(ctx context.Context, a *agent.Agent) error {
	if _, ok := r.store.Get(a.ID); ok {
		return cerr.NewError(cerr.AlreadyExists, "agent already exists", nil)
	}
	r.store.Set(a.ID, *a)
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*agent.Agent, error) {
	a, ok := r.store.Get(id)
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "agent not found", nil)
	}
	return &a, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*agent.Agent, error) {
	all := r.store.List()
	out := make([]*agent.Agent, len(all))
	for i := range all {
		out[i] = &all[i]
	}
	return out, nil
}
