package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/task-tracker/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures the credential persistence needed by auth.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindUserByID(ctx context.Context, id int64) (models.User, error)
}

// TaskStore captures task persistence. Every listing is scoped by owner.
type TaskStore interface {
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)
	FindTaskByID(ctx context.Context, id int64) (models.Task, error)
	ListTasksByOwner(ctx context.Context, ownerID int64, filter models.TaskFilter) (models.Page[models.Task], error)
	UpdateTask(ctx context.Context, task models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// Store is a full backend able to serve the whole API.
type Store interface {
	UserStore
	TaskStore
	Close() error
}
