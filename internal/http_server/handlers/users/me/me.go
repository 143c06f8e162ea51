package me

import (
	"log/slog"
	"net/http"

	"todo_api/internal/http_server/middleware/authenticate"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

func New(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.me.New"

		acc, ok := authenticate.Account(r.Context())
		if !ok {
			log.Error("no account in request context",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		render.JSON(w, r, acc.Public())
	}
}
