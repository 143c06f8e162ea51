package logout

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

type TokenRevoker interface {
	RevokeToken(ctx context.Context, acc models.Account, token string) error
}

// * New отзывает токен, с которым пришел запрос
func New(log *slog.Logger, revoker TokenRevoker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.logout.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		acc, accOK := authenticate.Account(r.Context())
		token, tokenOK := authenticate.Token(r.Context())
		if !accOK || !tokenOK {
			log.Error("no identity in request context")
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		if err := revoker.RevokeToken(r.Context(), acc, token); err != nil {
			log.Error("failed to revoke token", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to revoke token"))

			return
		}

		log.Info("token revoked", slog.String("account_id", acc.ID))

		w.WriteHeader(http.StatusOK)
	}
}
