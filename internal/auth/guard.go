package auth

import (
	"context"
	"errors"

	"github.com/hongminglow/task-tracker/internal/models"
)

var (
	// ErrUnauthenticated means a protected operation ran without a principal.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the principal does not own the target resource.
	ErrForbidden = errors.New("forbidden")
)

// TaskFinder loads a task by id regardless of owner.
type TaskFinder interface {
	FindTaskByID(ctx context.Context, id int64) (models.Task, error)
}

// Guard enforces single-owner access on task mutations.
type Guard struct {
	tasks TaskFinder
}

func NewGuard(tasks TaskFinder) *Guard {
	return &Guard{tasks: tasks}
}

// Authorize loads the task and returns it only when p owns it. Lookup errors,
// including storage.ErrNotFound, are returned unchanged.
func (g *Guard) Authorize(ctx context.Context, p *Principal, taskID int64) (models.Task, error) {
	if p == nil {
		return models.Task{}, ErrUnauthenticated
	}
	task, err := g.tasks.FindTaskByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if task.OwnerID != p.UserID {
		return models.Task{}, ErrForbidden
	}
	return task, nil
}
