package create

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

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Text string `json:"text" validate:"required"`
}

type TodoCreator interface {
	Create(ctx context.Context, ownerID, text string) (models.Todo, error)
}

// * New создает todo, владелец берется только из аутентифицированного аккаунта
func New(
	log *slog.Logger,
	validate *validator.Validate,
	creator TodoCreator,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.todos.create.New"

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

		todo, err := creator.Create(r.Context(), acc.ID, req.Text)
		if err != nil {
			if errors.Is(err, todos.ErrEmptyText) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("todo text is empty"))

				return
			}

			log.Error("failed to create todo", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to create todo"))

			return
		}

		log.Info("todo created", slog.String("todo_id", todo.ID))

		render.JSON(w, r, todo)
	}
}
