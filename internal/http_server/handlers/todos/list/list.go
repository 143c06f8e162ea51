package list

import (
	"context"
	"log/slog"
	"net/http"

	"todo_api/internal/http_server/middleware/authenticate"
	resp "todo_api/internal/lib/api/response"
	"todo_api/internal/lib/logger/sl"
	"todo_api/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	Todos []models.Todo `json:"todos"`
}

type TodoLister interface {
	List(ctx context.Context, ownerID string) ([]models.Todo, error)
}

func New(log *slog.Logger, lister TodoLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.todos.list.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		acc, ok := authenticate.Account(r.Context())
		if !ok {
			log.Error("no account in request context")
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		items, err := lister.List(r.Context(), acc.ID)
		if err != nil {
			log.Error("failed to list todos", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to list todos"))

			return
		}

		if items == nil {
			items = []models.Todo{}
		}

		render.JSON(w, r, Response{Todos: items})
	}
}
