package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todo_api/internal/auth"
	"todo_api/internal/http_server/middleware/authenticate"
	"todo_api/internal/lib/jwt"
	"todo_api/internal/lib/logger/handlers/slogdiscard"
	"todo_api/internal/models"
	"todo_api/internal/storage/memory"
	"todo_api/internal/todos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t   *testing.T
	srv *httptest.Server
}

func newClient(t *testing.T) (*client, *memory.MemoryRepo) {
	t.Helper()

	log := slogdiscard.NewDiscardLogger()
	repo := memory.New()

	codec, err := jwt.NewCodec("e2e-secret")
	require.NoError(t, err)

	authService := auth.New(log, repo, repo, codec)
	todoService := todos.New(log, repo)

	srv := httptest.NewServer(New(log, authService, todoService, 5*time.Second))
	t.Cleanup(srv.Close)

	return &client{t: t, srv: srv}, repo
}

func (c *client) do(method, path, token string, body any) (*http.Response, []byte) {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.srv.URL+path, reader)
	require.NoError(c.t, err)

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(authenticate.Header, token)
	}

	res, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(res.Body)
	require.NoError(c.t, err)

	return res, buf.Bytes()
}

func (c *client) register(email, password string) (models.PublicAccount, string) {
	c.t.Helper()

	res, body := c.do(http.MethodPost, "/users", "", map[string]string{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, res.StatusCode, string(body))

	var acc models.PublicAccount
	require.NoError(c.t, json.Unmarshal(body, &acc))

	token := res.Header.Get(authenticate.Header)
	require.NotEmpty(c.t, token)

	return acc, token
}

func TestEndToEnd(t *testing.T) {
	c, _ := newClient(t)

	res, body := c.do(http.MethodPost, "/users", "", map[string]string{"email": "a@b.com", "password": "123456"})
	require.Equal(t, http.StatusOK, res.StatusCode)

	token := res.Header.Get(authenticate.Header)
	require.NotEmpty(t, token)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(body, &fields))
	assert.Len(t, fields, 2)
	assert.Equal(t, "a@b.com", fields["email"])
	assert.NotEmpty(t, fields["_id"])

	res, body = c.do(http.MethodGet, "/todos", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"todos":[]}`, string(body))

	res, body = c.do(http.MethodPost, "/todos", token, map[string]string{"text": "x"})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var todo models.Todo
	require.NoError(t, json.Unmarshal(body, &todo))
	assert.Equal(t, "x", todo.Text)
	assert.Equal(t, fields["_id"], todo.OwnerID)

	res, _ = c.do(http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body = c.do(http.MethodDelete, "/users/me/token", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, body)

	res, body = c.do(http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Empty(t, body)
}

func TestOwnershipIsolation(t *testing.T) {
	c, _ := newClient(t)

	_, tokenA := c.register("a@b.com", "123456")
	_, tokenB := c.register("b@b.com", "123456")

	res, body := c.do(http.MethodPost, "/todos", tokenA, map[string]string{"text": "private"})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var todo models.Todo
	require.NoError(t, json.Unmarshal(body, &todo))

	path := "/todos/" + todo.ID

	res, _ = c.do(http.MethodGet, path, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = c.do(http.MethodPatch, path, tokenB, map[string]any{"text": "hijacked", "completed": true})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = c.do(http.MethodDelete, path, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body = c.do(http.MethodGet, "/todos", tokenB, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"todos":[]}`, string(body))

	res, body = c.do(http.MethodGet, path, tokenA, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `"text":"private"`)

	res, body = c.do(http.MethodPatch, path, tokenA, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `"completed":true`)

	res, _ = c.do(http.MethodDelete, path, tokenA, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = c.do(http.MethodGet, path, tokenA, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRegisterAndLoginFailuresHaveNoSideEffects(t *testing.T) {
	c, repo := newClient(t)
	ctx := context.Background()

	acc, _ := c.register("a@b.com", "123456")

	res, _ := c.do(http.MethodPost, "/users", "", map[string]string{"email": "a@b.com", "password": "654321"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Empty(t, res.Header.Get(authenticate.Header))

	res, _ = c.do(http.MethodPost, "/users/login", "", map[string]string{"email": "a@b.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Empty(t, res.Header.Get(authenticate.Header))

	stored, err := repo.AccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Tokens, 1)

	res, _ = c.do(http.MethodPost, "/users/login", "", map[string]string{"email": "a@b.com", "password": "123456"})
	require.Equal(t, http.StatusOK, res.StatusCode)

	loginToken := res.Header.Get(authenticate.Header)
	require.NotEmpty(t, loginToken)

	res, _ = c.do(http.MethodGet, "/users/me", loginToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestUnauthenticated(t *testing.T) {
	c, _ := newClient(t)

	for _, tt := range []struct{ method, path string }{
		{http.MethodGet, "/todos"},
		{http.MethodPost, "/todos"},
		{http.MethodGet, "/users/me"},
		{http.MethodDelete, "/users/me/token"},
	} {
		res, body := c.do(tt.method, tt.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, tt.method+" "+tt.path)
		assert.Empty(t, body)

		res, _ = c.do(tt.method, tt.path, "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, tt.method+" "+tt.path)
	}
}
