package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"todo_api/internal/http_server/middleware/authenticate"
	resp "todo_api/internal/lib/api/response"
	"todo_api/internal/lib/logger/sl"
	"todo_api/internal/models"
	"todo_api/internal/todos"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	Todo models.Todo `json:"todo"`
}

type TodoGetter interface {
	Get(ctx context.Context, id, ownerID string) (models.Todo, error)
}

func New(log *slog.Logger, getter TodoGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.todos.get.New"

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

		id := chi.URLParam(r, "id")

		todo, err := getter.Get(r.Context(), id, acc.ID)
		if err != nil {
			if errors.Is(err, todos.ErrNotFound) {
				log.Info("todo not found", slog.String("todo_id", id))

				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("todo not found"))

				return
			}

			log.Error("failed to get todo", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to get todo"))

			return
		}

		render.JSON(w, r, Response{Todo: todo})
	}
}
