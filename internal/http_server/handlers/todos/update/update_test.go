package update

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"todo_api/internal/http_server/middleware/authenticate"
	"todo_api/internal/lib/api/validate"
	"todo_api/internal/lib/logger/handlers/slogdiscard"
	"todo_api/internal/models"
	"todo_api/internal/storage/memory"
	"todo_api/internal/todos"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ownerByToken resolves the x-auth value straight to an account id.
type ownerByToken struct{}

func (ownerByToken) FindByActiveToken(_ context.Context, token string) (models.Account, error) {
	return models.Account{ID: token}, nil
}

func setup(t *testing.T) (http.Handler, models.Todo) {
	t.Helper()

	repo := memory.New()
	ctx := context.Background()

	owner, err := repo.SaveAccount(ctx, models.Account{ID: uuid.NewString(), Email: "a@b.com", PassHash: []byte("hash")})
	require.NoError(t, err)

	todo, err := repo.SaveTodo(ctx, owner.ID, "first")
	require.NoError(t, err)

	svc := todos.New(slogdiscard.NewDiscardLogger(), repo)

	r := chi.NewRouter()
	r.Use(authenticate.New(slogdiscard.NewDiscardLogger(), ownerByToken{}))
	r.Patch("/todos/{id}", New(slogdiscard.NewDiscardLogger(), validate.New(), svc))

	return r, todo
}

func patch(h http.Handler, id, ownerID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, "/todos/"+id, bytes.NewReader([]byte(body)))
	req.Header.Set(authenticate.Header, ownerID)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) models.Todo {
	t.Helper()

	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	return resp.Todo
}

func TestUpdateHandler_Completion(t *testing.T) {
	h, todo := setup(t)

	rr := patch(h, todo.ID, todo.OwnerID, `{"completed":true,"completedAt":"2000-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	got := decode(t, rr)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	assert.NotEqual(t, 2000, got.CompletedAt.Year())

	rr = patch(h, todo.ID, todo.OwnerID, `{"text":"renamed"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	got = decode(t, rr)
	assert.Equal(t, "renamed", got.Text)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)
}

func TestUpdateHandler_Errors(t *testing.T) {
	h, todo := setup(t)

	tests := []struct {
		name       string
		id         string
		owner      string
		body       string
		wantStatus int
	}{
		{name: "foreign owner", id: todo.ID, owner: "someone-else", body: `{"completed":true}`, wantStatus: http.StatusNotFound},
		{name: "unknown id", id: "3f8a0d52-52d4-4a4e-9a3b-6c1c6f1f5b10", owner: todo.OwnerID, body: `{}`, wantStatus: http.StatusNotFound},
		{name: "malformed id", id: "not-a-uuid", owner: todo.OwnerID, body: `{}`, wantStatus: http.StatusNotFound},
		{name: "empty text", id: todo.ID, owner: todo.OwnerID, body: `{"text":""}`, wantStatus: http.StatusBadRequest},
		{name: "blank text", id: todo.ID, owner: todo.OwnerID, body: `{"text":"   "}`, wantStatus: http.StatusBadRequest},
		{name: "broken json", id: todo.ID, owner: todo.OwnerID, body: `{"text":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := patch(h, tt.id, tt.owner, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}
