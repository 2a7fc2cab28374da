package service

import (
	"context"
	"errors"
	"strings"

	"taskpulse/internal/ai"
	"taskpulse/internal/model"
	"taskpulse/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("forbidden")
)

// Notifier получает сигнал после каждой успешной записи
type Notifier interface {
	Notify(ownerID string)
}

// Prewarmer ставит заголовок в очередь фонового прогрева сообщений
type Prewarmer interface {
	Enqueue(title string)
}

type TaskService struct {
	repo     repo.TaskRepository
	feed     Notifier
	governor *ai.Governor
	prewarm  Prewarmer
}

func NewTaskService(repo repo.TaskRepository, feed Notifier, governor *ai.Governor, prewarm Prewarmer) *TaskService {
	return &TaskService{
		repo:     repo,
		feed:     feed,
		governor: governor,
		prewarm:  prewarm,
	}
}

func (s *TaskService) Create(ctx context.Context, userID string, data model.CreateTaskData, idempKey string) (model.Task, error) {
	if strings.TrimSpace(data.Title) == "" {
		return model.Task{}, ErrValidation
	}

	if idempKey != "" { // Обеспечение идемпотентности - если ключ с ресурсом уже существует, мы не создаем его еще раз
		if existingID, err := s.repo.GetIdempotencyKey(ctx, idempKey); err == nil {
			return s.repo.Get(ctx, existingID)
		}
	}

	task, err := s.repo.Create(ctx, userID, data)
	if err != nil {
		return task, err
	}

	if idempKey != "" {
		s.repo.SaveIdempotencyKey(ctx, idempKey, task.ID)
	}

	s.feed.Notify(userID)
	if s.prewarm != nil {
		s.prewarm.Enqueue(task.Title)
	}

	return task, nil
}

func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, error) {
	return s.repo.ListByOwner(ctx, userID)
}

func (s *TaskService) Update(ctx context.Context, userID, taskID string, upd model.TaskUpdate) (model.Task, error) {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return model.Task{}, ErrValidation
	}

	if err := s.checkOwner(ctx, userID, taskID); err != nil {
		return model.Task{}, err
	}

	task, err := s.repo.Update(ctx, taskID, upd)
	if err != nil {
		return task, err
	}

	s.feed.Notify(userID)
	return task, nil
}

func (s *TaskService) SetCompleted(ctx context.Context, userID, taskID string, completed bool) (model.Task, error) {
	if err := s.checkOwner(ctx, userID, taskID); err != nil {
		return model.Task{}, err
	}

	task, err := s.repo.SetCompleted(ctx, taskID, completed)
	if err != nil {
		return task, err
	}

	s.feed.Notify(userID)
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	if err := s.checkOwner(ctx, userID, taskID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, taskID); err != nil {
		return err
	}

	s.feed.Notify(userID)
	return nil
}

// Message никогда не возвращает ошибку генерации - governor всегда отдает сообщение
func (s *TaskService) Message(ctx context.Context, userID, taskID string) (model.AITaskMessage, error) {
	task, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return model.AITaskMessage{}, err
	}
	if task.UserID != userID {
		return model.AITaskMessage{}, ErrForbidden
	}

	return s.governor.RequestMessage(ctx, task.Title), nil
}

func (s *TaskService) Stats(ctx context.Context, userID string) (repo.Stats, error) {
	return s.repo.Stats(ctx, userID)
}

func (s *TaskService) checkOwner(ctx context.Context, userID, taskID string) error {
	task, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if task.UserID != userID {
		return ErrForbidden
	}
	return nil
}
