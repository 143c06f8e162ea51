package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"todo_api/internal/auth"
	"todo_api/internal/http_server/middleware/authenticate"
	resp "todo_api/internal/lib/api/response"
	"todo_api/internal/lib/logger/sl"
	"todo_api/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

type AccountRegistrar interface {
	Register(ctx context.Context, email, password string) (models.Account, string, error)
}

// * New создает аккаунт, токен уходит в заголовке x-auth, в теле только id и email
func New(
	log *slog.Logger,
	validate *validator.Validate,
	registrar AccountRegistrar,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.register.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to decode request"))

			return
		}

		req.Email = strings.TrimSpace(req.Email)

		if err := validate.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Info("invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		acc, token, err := registrar.Register(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrAccountExists) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("account already exists"))

				return
			}

			log.Error("failed to register account", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to register account"))

			return
		}

		log.Info("account registered", slog.String("account_id", acc.ID))

		w.Header().Set(authenticate.Header, token)
		render.JSON(w, r, acc.Public())
	}
}
