// Package memory keeps users and tasks in process memory. It backs tests and
// throwaway local runs (DATABASE_URL=memory://).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hongminglow/task-tracker/internal/models"
	"github.com/hongminglow/task-tracker/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	mu         sync.RWMutex
	users      map[int64]models.User
	byUsername map[string]int64
	tasks      map[int64]models.Task
	nextUserID int64
	nextTaskID int64
}

func NewStore() *Store {
	return &Store{
		users:      make(map[int64]models.User),
		byUsername: make(map[string]int64),
		tasks:      make(map[int64]models.Task),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[user.Username]; ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	s.nextUserID++
	user.ID = s.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = user
	s.byUsername[user.Username] = user.ID
	return user, nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) FindUserByID(ctx context.Context, id int64) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	if err := ctx.Err(); err != nil {
		return models.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[task.OwnerID]; !ok {
		return models.Task{}, storage.ErrNotFound
	}
	s.nextTaskID++
	task.ID = s.nextTaskID
	s.tasks[task.ID] = task
	return task, nil
}

func (s *Store) FindTaskByID(ctx context.Context, id int64) (models.Task, error) {
	if err := ctx.Err(); err != nil {
		return models.Task{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, storage.ErrNotFound
	}
	return task, nil
}

func (s *Store) ListTasksByOwner(ctx context.Context, ownerID int64, filter models.TaskFilter) (models.Page[models.Task], error) {
	filter = filter.Effective()
	if err := ctx.Err(); err != nil {
		return models.Page[models.Task]{}, err
	}
	s.mu.RLock()
	var matched []models.Task
	for _, t := range s.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		if filter.Status != "" && (t.Status == nil || *t.Status != filter.Status) {
			continue
		}
		if filter.Category != "" && (t.Category == nil || *t.Category != filter.Category) {
			continue
		}
		matched = append(matched, t)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	start := min(filter.Offset(), len(matched))
	end := min(start+filter.Size, len(matched))
	return models.NewPage(matched[start:end], filter.Page, filter.Size, total), nil
}

func (s *Store) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	if err := ctx.Err(); err != nil {
		return models.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[task.ID]
	if !ok {
		return models.Task{}, storage.ErrNotFound
	}
	current.Title = task.Title
	current.Description = task.Description
	current.Status = task.Status
	current.Category = task.Category
	s.tasks[task.ID] = current
	return current, nil
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}
