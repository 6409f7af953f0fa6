package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileRepo(t *testing.T) *FileTodoRepository {
	t.Helper()

	repo, err := NewFileTodoRepository(filepath.Join(t.TempDir(), "data", "todos.json"))
	require.NoError(t, err)

	return repo
}

func TestFileTodoRepository(t *testing.T) {
	t.Parallel()

	testRepositoryContract(t, func(t *testing.T) TodoRepository {
		return newFileRepo(t)
	})
}

func TestNewFileTodoRepository(t *testing.T) {
	t.Parallel()

	t.Run("creates directory and empty document", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "dir", "todos.json")

		repo, err := NewFileTodoRepository(path)
		require.NoError(t, err)
		assert.Equal(t, KindFile, repo.Kind())
		assert.Equal(t, path, repo.Path())

		b, err := os.ReadFile(path)
		require.NoError(t, err)

		var doc map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(b, &doc))
		assert.JSONEq(t, `[]`, string(doc["todos"]))
	})

	t.Run("keeps existing document", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "todos.json")
		existing := `{"todos":[{"id":"a","text":"kept","completed":true,"createdAt":"2024-03-01T12:00:00Z","updatedAt":"2024-03-01T12:00:00Z"}]}`
		require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

		repo, err := NewFileTodoRepository(path)
		require.NoError(t, err)

		todo, err := repo.FindByID(context.Background(), "a")
		require.NoError(t, err)
		assert.Equal(t, "kept", todo.Text)
		assert.True(t, todo.Completed)
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()

		_, err := NewFileTodoRepository("")
		assert.Error(t, err)
	})
}

func TestFileTodoRepository_Persistence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "todos.json")

	first, err := NewFileTodoRepository(path)
	require.NoError(t, err)

	todo := newTodo("survives restart", baseTime)
	_, err = first.Create(ctx, todo)
	require.NoError(t, err)

	second, err := NewFileTodoRepository(path)
	require.NoError(t, err)

	got, err := second.FindByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, todo.Text, got.Text)
	assert.True(t, todo.CreatedAt.Equal(got.CreatedAt))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc fileDocument
	require.NoError(t, json.Unmarshal(b, &doc))
	require.Len(t, doc.Todos, 1)
	assert.Equal(t, todo.ID, doc.Todos[0].ID)
}

func TestFileTodoRepository_DeleteMissingDoesNotRewrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newFileRepo(t)

	_, err := repo.Create(ctx, newTodo("keep", baseTime))
	require.NoError(t, err)

	before, err := os.ReadFile(repo.Path())
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, deleted)

	after, err := os.ReadFile(repo.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileTodoRepository_CorruptDocument(t *testing.T) {
	t.Parallel()

	repo := newFileRepo(t)
	require.NoError(t, os.WriteFile(repo.Path(), []byte("{not json"), 0o644))

	assert.Error(t, repo.Ping(context.Background()))

	_, err := repo.FindAll(context.Background())
	assert.Error(t, err)
}

func TestFileTodoRepository_ConcurrentCreates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newFileRepo(t)

	const writers = 20

	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, newTodo("concurrent", baseTime.Add(time.Duration(i)*time.Second)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	todos, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, todos, writers)
}
