package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/hongminglow/task-tracker/internal/models"
	"github.com/hongminglow/task-tracker/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ storage.Store = (*Store)(nil)

// Store wraps access to the SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open initializes a new SQLite store and runs the embedded migrations.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY under load.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := newStore(conn, logger)
	if err := s.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

func newStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate(ctx context.Context) error {
	dir, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, dir)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	for _, r := range results {
		s.logger.Info("applied migration", slog.String("source", r.Source.Path), slog.Duration("took", r.Duration))
	}
	return nil
}

// CreateUser inserts a new user and returns it with its generated id.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO users(username, password_hash, role) VALUES(?, ?, ?)`, user.Username, user.PasswordHash, user.Role)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	return s.FindUserByID(ctx, id)
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, role, password_hash, created_at FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// FindUserByID fetches a user by id.
func (s *Store) FindUserByID(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, role, password_hash, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// CreateTask inserts a new task for its owner.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(title, description, status, category, user_id, created_at) VALUES(?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description, t.Status, t.Category, t.OwnerID, t.CreatedAt)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return models.Task{}, storage.ErrNotFound
		}
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return s.FindTaskByID(ctx, id)
}

// FindTaskByID retrieves a task by id.
func (s *Store) FindTaskByID(ctx context.Context, id int64) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, description, status, category, user_id, created_at FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// ListTasksByOwner returns the owner's tasks ordered by id descending.
func (s *Store) ListTasksByOwner(ctx context.Context, ownerID int64, filter models.TaskFilter) (models.Page[models.Task], error) {
	filter = filter.Effective()
	const where = ` WHERE user_id = ? AND (? = '' OR status = ?) AND (? = '' OR category = ?)`
	args := []any{ownerID, filter.Status, filter.Status, filter.Category, filter.Category}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&total); err != nil {
		return models.Page[models.Task]{}, fmt.Errorf("count tasks: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, title, description, status, category, user_id, created_at FROM tasks`+where+` ORDER BY id DESC LIMIT ? OFFSET ?`,
		append(args, filter.Size, filter.Offset())...)
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

// UpdateTask overwrites the editable fields of an existing task.
func (s *Store) UpdateTask(ctx context.Context, t models.Task) (models.Task, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, status = ?, category = ? WHERE id = ?`,
		t.Title, t.Description, t.Status, t.Category, t.ID)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, storage.ErrNotFound
	}
	return s.FindTaskByID(ctx, t.ID)
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, storage.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func scanTask(row scanner) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Category, &t.OwnerID, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}
