// Package memory is an in-process storage used for local runs and tests.
// Every method takes the lock for its whole read-modify-write, which gives
// the same single-operation atomicity the SQL statements provide.
package memory

import (
	"context"
	"slices"
	"sync"

	"todo_api/internal/models"
	"todo_api/internal/storage"

	"github.com/google/uuid"
)

type MemoryRepo struct {
	mu       sync.RWMutex
	accounts map[string]*models.Account
	emails   map[string]string
	todos    map[string]*models.Todo
	order    []string
}

func New() *MemoryRepo {
	return &MemoryRepo{
		accounts: make(map[string]*models.Account),
		emails:   make(map[string]string),
		todos:    make(map[string]*models.Todo),
	}
}

func (r *MemoryRepo) SaveAccount(_ context.Context, acc models.Account) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.emails[acc.Email]; ok {
		return models.Account{}, storage.ErrAccountExists
	}
	if _, ok := r.accounts[acc.ID]; ok {
		return models.Account{}, storage.ErrAccountExists
	}

	stored := cloneAccount(&acc)

	r.accounts[acc.ID] = &stored
	r.emails[acc.Email] = acc.ID

	return cloneAccount(&stored), nil
}

func (r *MemoryRepo) Account(_ context.Context, email string) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[email]
	if !ok {
		return models.Account{}, storage.ErrAccountNotFound
	}

	return cloneAccount(r.accounts[id]), nil
}

func (r *MemoryRepo) AccountByID(_ context.Context, id string) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.accounts[id]
	if !ok {
		return models.Account{}, storage.ErrAccountNotFound
	}

	return cloneAccount(acc), nil
}

func (r *MemoryRepo) AccountByToken(_ context.Context, id, access, token string) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.accounts[id]
	if !ok || !acc.HasToken(access, token) {
		return models.Account{}, storage.ErrAccountNotFound
	}

	return cloneAccount(acc), nil
}

func (r *MemoryRepo) SaveToken(_ context.Context, accountID, access, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[accountID]
	if !ok {
		return storage.ErrAccountNotFound
	}

	acc.Tokens = append(acc.Tokens, models.Token{Access: access, Token: token})

	return nil
}

func (r *MemoryRepo) DeleteToken(_ context.Context, accountID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[accountID]
	if !ok {
		return storage.ErrAccountNotFound
	}

	idx := slices.IndexFunc(acc.Tokens, func(t models.Token) bool {
		return t.Token == token
	})
	if idx < 0 {
		return storage.ErrTokenNotFound
	}

	acc.Tokens = slices.Delete(acc.Tokens, idx, idx+1)

	return nil
}

func (r *MemoryRepo) SaveTodo(_ context.Context, ownerID, text string) (models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[ownerID]; !ok {
		return models.Todo{}, storage.ErrAccountNotFound
	}

	todo := &models.Todo{
		ID:      uuid.NewString(),
		Text:    text,
		OwnerID: ownerID,
	}

	r.todos[todo.ID] = todo
	r.order = append(r.order, todo.ID)

	return *todo, nil
}

func (r *MemoryRepo) Todos(_ context.Context, ownerID string) ([]models.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	todos := make([]models.Todo, 0)
	for _, id := range r.order {
		if t := r.todos[id]; t.OwnerID == ownerID {
			todos = append(todos, *t)
		}
	}

	return todos, nil
}

func (r *MemoryRepo) Todo(_ context.Context, id, ownerID string) (models.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.owned(id, ownerID)
	if !ok {
		return models.Todo{}, storage.ErrTodoNotFound
	}

	return *t, nil
}

func (r *MemoryRepo) UpdateTodo(_ context.Context, id, ownerID string, patch models.TodoPatch) (models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.owned(id, ownerID)
	if !ok {
		return models.Todo{}, storage.ErrTodoNotFound
	}

	if patch.Text != nil {
		t.Text = *patch.Text
	}
	t.Completed = patch.Completed
	t.CompletedAt = patch.CompletedAt

	return *t, nil
}

func (r *MemoryRepo) DeleteTodo(_ context.Context, id, ownerID string) (models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.owned(id, ownerID)
	if !ok {
		return models.Todo{}, storage.ErrTodoNotFound
	}

	delete(r.todos, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })

	return *t, nil
}

func (r *MemoryRepo) Close() {}

func (r *MemoryRepo) owned(id, ownerID string) (*models.Todo, bool) {
	t, ok := r.todos[id]
	if !ok || t.OwnerID != ownerID {
		return nil, false
	}

	return t, true
}

func cloneAccount(a *models.Account) models.Account {
	c := *a
	c.PassHash = slices.Clone(a.PassHash)
	c.Tokens = slices.Clone(a.Tokens)

	return c
}
