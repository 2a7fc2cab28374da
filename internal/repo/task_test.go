package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpulse/internal/model"
	"taskpulse/tests"
)

func TestTaskRepo_Create(t *testing.T) {
	pool, cleanup := tests.SetupTestDB(t)
	defer cleanup()

	repo := NewTaskRepo(pool)
	ctx := context.Background()

	t.Run("blank description stored as NULL", func(t *testing.T) {
		task, err := repo.Create(ctx, "alice", model.CreateTaskData{Title: "Test", Description: "   "})
		require.NoError(t, err)

		assert.NotEmpty(t, task.ID)
		assert.Equal(t, "Test", task.Title)
		assert.Nil(t, task.Description)
		assert.False(t, task.Completed)
		assert.Equal(t, "alice", task.UserID)
		assert.True(t, task.UpdatedAt.Equal(task.CreatedAt), "created_at and updated_at must match at creation")

		fetched, err := repo.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Nil(t, fetched.Description)
	})

	t.Run("description trimmed and kept", func(t *testing.T) {
		task, err := repo.Create(ctx, "alice", model.CreateTaskData{Title: "Test", Description: "  milk, eggs  "})
		require.NoError(t, err)
		require.NotNil(t, task.Description)
		assert.Equal(t, "milk, eggs", *task.Description)
	})
}

func TestTaskRepo_Get_NotFound(t *testing.T) {
	pool, cleanup := tests.SetupTestDB(t)
	defer cleanup()

	repo := NewTaskRepo(pool)
	_, err := repo.Get(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrorNotFound)
}

func TestTaskRepo_ListByOwner(t *testing.T) {
	pool, cleanup := tests.SetupTestDB(t)
	defer cleanup()

	repo := NewTaskRepo(pool)
	ctx := context.Background()

	// Явные created_at, чтобы проверить сортировку
	base := time.Now().Add(-time.Hour)
	for i, title := range []string{"oldest", "middle", "newest"} {
		_, err := pool.Exec(ctx, `
			INSERT INTO tasks (id, title, user_id, created_at, updated_at)
			VALUES ($1, $2, 'alice', $3, $3)
		`, title+"-id", title, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	tests.SeedTasks(t, pool, "bob", 2)

	taskList, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, taskList, 3, "only alice's tasks")

	assert.Equal(t, "newest", taskList[0].Title)
	assert.Equal(t, "middle", taskList[1].Title)
	assert.Equal(t, "oldest", taskList[2].Title)

	empty, err := repo.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTaskRepo_Update(t *testing.T) {
	pool, cleanup := tests.SetupTestDB(t)
	defer cleanup()

	repo := NewTaskRepo(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", model.CreateTaskData{Title: "Before", Description: "keep me"})
	require.NoError(t, err)

	t.Run("partial update leaves other fields", func(t *testing.T) {
		title := "After"
		updated, err := repo.Update(ctx, created.ID, model.TaskUpdate{Title: &title})
		require.NoError(t, err)

		assert.Equal(t, "After", updated.Title)
		require.NotNil(t, updated.Description)
		assert.Equal(t, "keep me", *updated.Description)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt), "updated_at must be stamped")
	})

	t.Run("blanked description becomes NULL", func(t *testing.T) {
		blank := ""
		updated, err := repo.Update(ctx, created.ID, model.TaskUpdate{Description: &blank})
		require.NoError(t, err)
		assert.Nil(t, updated.Description)
	})

	t.Run("missing task", func(t *testing.T) {
		title := "x"
		_, err := repo.Update(ctx, "no-such-id", model.TaskUpdate{Title: &title})
		assert.ErrorIs(t, err, ErrorNotFound)
	})
}

func TestTaskRepo_SetCompleted_Toggle(t *testing.T) {
	pool, cleanup := tests.SetupTestDB(t)
	defer cleanup()

	repo := NewTaskRepo(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", model.CreateTaskData{Title: "Toggle me"})
	require.NoError(t, err)
	require.False(t, created.Completed)

	first, err := repo.SetCompleted(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, first.Completed)
	assert.True(t, first.UpdatedAt.After(created.UpdatedAt))

	second, err := repo.SetCompleted(ctx, created.ID, false)
	require.NoError(t, err)

	// Два переключения возвращают исходный флаг, updated_at строго растет
	assert.Equal(t, created.Completed, second.Completed)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.True(t, second.CreatedAt.Equal(created.CreatedAt))
}

func TestTaskRepo_Delete(t *testing.T) {
	pool, cleanup := tests.SetupTestDB(t)
	defer cleanup()

	repo := NewTaskRepo(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", model.CreateTaskData{Title: "Delete me"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), ErrorNotFound)

	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrorNotFound)
}

func TestTaskRepo_IdempotencyKeys(t *testing.T) {
	pool, cleanup := tests.SetupTestDB(t)
	defer cleanup()

	repo := NewTaskRepo(pool)
	ctx := context.Background()

	_, err := repo.GetIdempotencyKey(ctx, "key-1")
	assert.ErrorIs(t, err, ErrorNotFound)

	require.NoError(t, repo.SaveIdempotencyKey(ctx, "key-1", "task-1"))
	// Повторное сохранение того же ключа не перетирает ресурс
	require.NoError(t, repo.SaveIdempotencyKey(ctx, "key-1", "task-2"))

	id, err := repo.GetIdempotencyKey(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)
}

func TestTaskRepo_Stats(t *testing.T) {
	pool, cleanup := tests.SetupTestDB(t)
	defer cleanup()

	repo := NewTaskRepo(pool)
	ctx := context.Background()

	ids := tests.SeedTasks(t, pool, "alice", 5)
	tests.SeedTasks(t, pool, "bob", 3)

	for _, id := range ids[:2] {
		_, err := repo.SetCompleted(ctx, id, true)
		require.NoError(t, err)
	}

	stats, err := repo.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 5, Completed: 2, Open: 3}, stats)
}
