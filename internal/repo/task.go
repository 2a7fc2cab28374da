package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskpulse/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = "id, title, description, completed, created_at, updated_at, user_id"

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo { // Конструктор
	return &TaskRepo{
		pool: pool,
	}
}

func (r *TaskRepo) Create(ctx context.Context, userID string, data model.CreateTaskData) (model.Task, error) {
	var t model.Task

	// Пустое описание хранится как NULL, а не как пустая строка
	var description *string
	if d := strings.TrimSpace(data.Description); d != "" {
		description = &d
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, title, description, completed, user_id)
		VALUES ($1, $2, $3, false, $4)
		RETURNING `+taskColumns+`
	`, uuid.NewString(), data.Title, description, userID).Scan(
		&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt, &t.UserID,
	)
	return t, r.mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, id string) (model.Task, error) {
	var t model.Task
	err := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1
	`, id).Scan(
		&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt, &t.UserID,
	)

	if err == pgx.ErrNoRows {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TaskRepo) ListByOwner(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt, &t.UserID); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, id string, upd model.TaskUpdate) (model.Task, error) {
	// updated_at штампуется при любой записи
	set := []string{"updated_at = clock_timestamp()"}
	args := []any{id}

	if upd.Title != nil {
		args = append(args, *upd.Title)
		set = append(set, fmt.Sprintf("title = $%d", len(args)))
	}
	if upd.Description != nil {
		var description *string
		if d := strings.TrimSpace(*upd.Description); d != "" {
			description = &d
		}
		args = append(args, description)
		set = append(set, fmt.Sprintf("description = $%d", len(args)))
	}
	if upd.Completed != nil {
		args = append(args, *upd.Completed)
		set = append(set, fmt.Sprintf("completed = $%d", len(args)))
	}

	var t model.Task
	query := fmt.Sprintf(`
		UPDATE tasks
		SET %s
		WHERE id = $1
		RETURNING %s
	`, strings.Join(set, ", "), taskColumns)

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt, &t.UserID,
	)

	if err == pgx.ErrNoRows {
		return t, ErrorNotFound
	}
	return t, r.mapError(err)
}

func (r *TaskRepo) SetCompleted(ctx context.Context, id string, completed bool) (model.Task, error) {
	return r.Update(ctx, id, model.TaskUpdate{Completed: &completed})
}

func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) SaveIdempotencyKey(ctx context.Context, key string, resourceID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (key, resource_id) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`, key, resourceID)
	return err
}

func (r *TaskRepo) GetIdempotencyKey(ctx context.Context, key string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE key = $1
	`, key).Scan(&id)

	if err == pgx.ErrNoRows {
		return "", ErrorNotFound
	}
	return id, err
}

func (r *TaskRepo) Stats(ctx context.Context, userID string) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE completed)
		FROM tasks
		WHERE user_id = $1
	`, userID).Scan(&s.Total, &s.Completed)
	s.Open = s.Total - s.Completed
	return s, err
}

func (r *TaskRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorConflict
		}
	}
	return err
}
