package model

import "time"

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      string    `json:"user_id"`
}

// CreateTaskData — данные для создания задачи. Пустое описание не сохраняется.
type CreateTaskData struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// TaskUpdate описывает частичное обновление: nil-поля не меняются.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}
