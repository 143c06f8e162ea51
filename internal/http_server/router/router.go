package router

import (
	"log/slog"
	"time"

	"todo_api/internal/auth"
	"todo_api/internal/http_server/handlers/todos/create"
	"todo_api/internal/http_server/handlers/todos/get"
	"todo_api/internal/http_server/handlers/todos/list"
	"todo_api/internal/http_server/handlers/todos/remove"
	"todo_api/internal/http_server/handlers/todos/update"
	"todo_api/internal/http_server/handlers/users/login"
	"todo_api/internal/http_server/handlers/users/logout"
	"todo_api/internal/http_server/handlers/users/me"
	"todo_api/internal/http_server/handlers/users/register"
	"todo_api/internal/http_server/middleware/authenticate"
	"todo_api/internal/lib/api/validate"
	"todo_api/internal/todos"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// * New собирает все маршруты, /todos и /users/me закрыты аутентификацией
func New(
	log *slog.Logger,
	authService *auth.Auth,
	todoService *todos.Service,
	timeout time.Duration,
) *chi.Mux {
	validator := validate.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Post("/users", register.New(log, validator, authService))
	r.Post("/users/login", login.New(log, validator, authService))

	r.Group(func(r chi.Router) {
		r.Use(authenticate.New(log, authService))

		r.Get("/users/me", me.New(log))
		r.Delete("/users/me/token", logout.New(log, authService))

		r.Route("/todos", func(r chi.Router) {
			r.Post("/", create.New(log, validator, todoService))
			r.Get("/", list.New(log, todoService))
			r.Get("/{id}", get.New(log, todoService))
			r.Patch("/{id}", update.New(log, validator, todoService))
			r.Delete("/{id}", remove.New(log, todoService))
		})
	})

	return r
}
