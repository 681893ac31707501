package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/hongminglow/task-tracker/internal/models"
	"github.com/hongminglow/task-tracker/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for users and tasks.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and applies the embedded migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	dir, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, dir)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, username, role, password_hash, created_at;
	`
	row := s.pool.QueryRow(ctx, query, user.Username, user.PasswordHash, user.Role)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `SELECT id, username, role, password_hash, created_at FROM users WHERE username = $1;`
	return scanUser(s.pool.QueryRow(ctx, query, username))
}

// FindUserByID fetches a user by primary key.
func (s *Store) FindUserByID(ctx context.Context, id int64) (models.User, error) {
	const query = `SELECT id, username, role, password_hash, created_at FROM users WHERE id = $1;`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// CreateTask inserts a task for its owner.
func (s *Store) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	const query = `
		INSERT INTO tasks (title, description, status, category, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, title, description, status, category, user_id, created_at;
	`
	row := s.pool.QueryRow(ctx, query, task.Title, task.Description, task.Status, task.Category, task.OwnerID, task.CreatedAt)
	created, err := scanTask(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.Task{}, storage.ErrNotFound
		}
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return created, nil
}

// FindTaskByID fetches a task regardless of owner; callers authorize.
func (s *Store) FindTaskByID(ctx context.Context, id int64) (models.Task, error) {
	const query = `SELECT id, title, description, status, category, user_id, created_at FROM tasks WHERE id = $1;`
	return scanTask(s.pool.QueryRow(ctx, query, id))
}

// ListTasksByOwner returns one page of the owner's tasks, newest id first.
func (s *Store) ListTasksByOwner(ctx context.Context, ownerID int64, filter models.TaskFilter) (models.Page[models.Task], error) {
	filter = filter.Effective()
	const where = `
		WHERE user_id = $1
		AND ($2::text = '' OR status = $2)
		AND ($3::text = '' OR category = $3)
	`
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+where, ownerID, filter.Status, filter.Category).Scan(&total); err != nil {
		return models.Page[models.Task]{}, fmt.Errorf("count tasks: %w", err)
	}

	query := `SELECT id, title, description, status, category, user_id, created_at FROM tasks` + where + `ORDER BY id DESC LIMIT $4 OFFSET $5`
	rows, err := s.pool.Query(ctx, query, ownerID, filter.Status, filter.Category, filter.Size, filter.Offset())
	if err != nil {
		return models.Page[models.Task]{}, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return models.Page[models.Task]{}, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Task]{}, fmt.Errorf("list tasks: %w", err)
	}
	return models.NewPage(tasks, filter.Page, filter.Size, total), nil
}

// UpdateTask overwrites the editable fields. Owner and creation time are never touched.
func (s *Store) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	const query = `
		UPDATE tasks SET title = $2, description = $3, status = $4, category = $5
		WHERE id = $1
		RETURNING id, title, description, status, category, user_id, created_at;
	`
	return scanTask(s.pool.QueryRow(ctx, query, task.ID, task.Title, task.Description, task.Status, task.Category))
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Role, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanTask(row pgx.Row) (models.Task, error) {
	var t models.Task
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Category, &t.OwnerID, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, storage.ErrNotFound
		}
		return models.Task{}, err
	}
	return t, nil
}
