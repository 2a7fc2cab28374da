package repo

import (
	"context"

	"taskpulse/internal/model"
)

// TaskRepository определяет интерфейс хранилища задач
type TaskRepository interface {
	Create(ctx context.Context, userID string, data model.CreateTaskData) (model.Task, error)
	Get(ctx context.Context, id string) (model.Task, error)
	ListByOwner(ctx context.Context, userID string) ([]model.Task, error)
	Update(ctx context.Context, id string, upd model.TaskUpdate) (model.Task, error)
	SetCompleted(ctx context.Context, id string, completed bool) (model.Task, error)
	Delete(ctx context.Context, id string) error
	SaveIdempotencyKey(ctx context.Context, key string, resourceID string) error
	GetIdempotencyKey(ctx context.Context, key string) (string, error)
	Stats(ctx context.Context, userID string) (Stats, error)
}

type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Open      int `json:"open"`
}
