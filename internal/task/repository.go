package task

import "context"

// Filter narrows List results. Nil fields do not constrain; non-nil fields
// are AND-combined exact matches. AssignedTo matches the id of the embedded
// assignment snapshot, so an unassigned task never matches it.
type Filter struct {
	Status     *Status
	AssignedTo *string
	Priority   *Priority
}

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, f Filter) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id string) error
}
