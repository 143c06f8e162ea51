package authenticate

import (
	"context"
	"log/slog"
	"net/http"

	"todo_api/internal/lib/logger/sl"
	"todo_api/internal/models"

	"github.com/go-chi/chi/middleware"
)

// Header carries the session token on requests and on login/registration responses.
const Header = "x-auth"

type ctxKey int

const (
	accountKey ctxKey = iota
	tokenKey
)

type AccountFinder interface {
	FindByActiveToken(ctx context.Context, token string) (models.Account, error)
}

// * New пропускает запрос дальше только с активным токеном, иначе 401 без тела
func New(log *slog.Logger, finder AccountFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authenticate"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token := r.Header.Get(Header)
			if token == "" {
				log.Debug("missing token")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			acc, err := finder.FindByActiveToken(r.Context(), token)
			if err != nil {
				log.Info("unauthenticated request", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), accountKey, acc)
			ctx = context.WithValue(ctx, tokenKey, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}

func Account(ctx context.Context) (models.Account, bool) {
	acc, ok := ctx.Value(accountKey).(models.Account)
	return acc, ok
}

func Token(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok
}
