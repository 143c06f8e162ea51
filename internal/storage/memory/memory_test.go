package memory

import (
	"context"
	"testing"

	"todo_api/internal/models"
	"todo_api/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(email string, tokens ...models.Token) models.Account {
	return models.Account{
		ID:       uuid.NewString(),
		Email:    email,
		PassHash: []byte("hash"),
		Tokens:   tokens,
	}
}

func TestSaveAccount_WithFirstToken(t *testing.T) {
	ctx := context.Background()
	repo := New()

	acc, err := repo.SaveAccount(ctx, newAccount("a@b.com", models.Token{Access: "auth", Token: "t1"}))
	require.NoError(t, err)

	got, err := repo.AccountByToken(ctx, acc.ID, "auth", "t1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", got.Email)
}

func TestSaveAccount_Duplicate(t *testing.T) {
	ctx := context.Background()
	repo := New()

	acc, err := repo.SaveAccount(ctx, newAccount("a@b.com"))
	require.NoError(t, err)

	dup := newAccount("a@b.com", models.Token{Access: "auth", Token: "t2"})
	dup.PassHash = []byte("other")

	_, err = repo.SaveAccount(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrAccountExists)

	_, err = repo.AccountByID(ctx, dup.ID)
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)

	got, err := repo.Account(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	assert.Equal(t, []byte("hash"), got.PassHash)
}

func TestTokens(t *testing.T) {
	ctx := context.Background()
	repo := New()

	acc, err := repo.SaveAccount(ctx, newAccount("a@b.com"))
	require.NoError(t, err)

	require.NoError(t, repo.SaveToken(ctx, acc.ID, "auth", "t1"))
	require.NoError(t, repo.SaveToken(ctx, acc.ID, "auth", "t2"))

	got, err := repo.AccountByToken(ctx, acc.ID, "auth", "t1")
	require.NoError(t, err)
	assert.Equal(t, []models.Token{{Access: "auth", Token: "t1"}, {Access: "auth", Token: "t2"}}, got.Tokens)

	_, err = repo.AccountByToken(ctx, acc.ID, "other", "t1")
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)

	require.NoError(t, repo.DeleteToken(ctx, acc.ID, "t1"))

	_, err = repo.AccountByToken(ctx, acc.ID, "auth", "t1")
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)

	_, err = repo.AccountByToken(ctx, acc.ID, "auth", "t2")
	assert.NoError(t, err)

	assert.ErrorIs(t, repo.DeleteToken(ctx, acc.ID, "t1"), storage.ErrTokenNotFound)
	assert.ErrorIs(t, repo.SaveToken(ctx, "missing", "auth", "t3"), storage.ErrAccountNotFound)
}

func TestTodos_OwnerScoped(t *testing.T) {
	ctx := context.Background()
	repo := New()

	alice, err := repo.SaveAccount(ctx, newAccount("alice@example.com"))
	require.NoError(t, err)
	bob, err := repo.SaveAccount(ctx, newAccount("bob@example.com"))
	require.NoError(t, err)

	todo, err := repo.SaveTodo(ctx, alice.ID, "first")
	require.NoError(t, err)
	_, err = repo.SaveTodo(ctx, bob.ID, "second")
	require.NoError(t, err)

	list, err := repo.Todos(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, todo, list[0])

	_, err = repo.Todo(ctx, todo.ID, bob.ID)
	assert.ErrorIs(t, err, storage.ErrTodoNotFound)

	text := "changed"
	_, err = repo.UpdateTodo(ctx, todo.ID, bob.ID, models.TodoPatch{Text: &text})
	assert.ErrorIs(t, err, storage.ErrTodoNotFound)

	_, err = repo.DeleteTodo(ctx, todo.ID, bob.ID)
	assert.ErrorIs(t, err, storage.ErrTodoNotFound)

	updated, err := repo.UpdateTodo(ctx, todo.ID, alice.ID, models.TodoPatch{Text: &text, Completed: true})
	require.NoError(t, err)
	assert.Equal(t, "changed", updated.Text)
	assert.True(t, updated.Completed)

	deleted, err := repo.DeleteTodo(ctx, todo.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, todo.ID, deleted.ID)

	list, err = repo.Todos(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
