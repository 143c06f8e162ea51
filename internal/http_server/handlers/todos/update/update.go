package update

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
	"github.com/go-playground/validator/v10"
)

// Request lists the only fields a client may change. Anything else in the
// body, completedAt included, is ignored.
type Request struct {
	Text      *string `json:"text" validate:"omitempty,min=1"`
	Completed *bool   `json:"completed"`
}

type Response struct {
	Todo models.Todo `json:"todo"`
}

type TodoUpdater interface {
	Update(ctx context.Context, id, ownerID string, p todos.Patch) (models.Todo, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	updater TodoUpdater,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.todos.update.New"

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

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Info("invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		id := chi.URLParam(r, "id")

		todo, err := updater.Update(r.Context(), id, acc.ID, todos.Patch{
			Text:      req.Text,
			Completed: req.Completed,
		})
		if err != nil {
			switch {
			case errors.Is(err, todos.ErrNotFound):
				log.Info("todo not found", slog.String("todo_id", id))

				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("todo not found"))
			case errors.Is(err, todos.ErrEmptyText):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("todo text is empty"))
			default:
				log.Error("failed to update todo", sl.Err(err))

				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("failed to update todo"))
			}

			return
		}

		log.Info("todo updated", slog.String("todo_id", todo.ID))

		render.JSON(w, r, Response{Todo: todo})
	}
}
