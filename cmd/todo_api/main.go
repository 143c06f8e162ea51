package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo_api/internal/auth"
	"todo_api/internal/config"
	"todo_api/internal/http_server/router"
	"todo_api/internal/lib/jwt"
	"todo_api/internal/lib/logger/sl"
	"todo_api/internal/rabbitmq"
	"todo_api/internal/storage/memory"
	"todo_api/internal/storage/postgres"
	"todo_api/internal/storage/redis"
	"todo_api/internal/todos"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type repository interface {
	auth.AccountSaver
	auth.AccountProvider
	todos.Storage
	Close()
}

func main() {
	cfg := config.MustLoad(config.Path())

	log := setupLogger(cfg.Env)

	log.Info("starting todo api", slog.String("env", cfg.Env), slog.String("storage", cfg.StorageDriver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := setupStorage(ctx, cfg)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}
	defer repo.Close()

	var opts []auth.Option

	if cfg.Redis.Enabled {
		cache, err := redis.New(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TokenTTL)
		if err != nil {
			log.Error("failed to connect redis", sl.Err(err))
			os.Exit(1)
		}
		defer cache.Close()

		opts = append(opts, auth.WithTokenCache(cache))
	}

	if cfg.RabbitMQ.Enabled {
		msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
		if err != nil {
			log.Error("failed to connect rabbitmq", sl.Err(err))
			os.Exit(1)
		}
		defer msgBroker.Close()

		opts = append(opts, auth.WithPublisher(msgBroker))
	}

	codec, err := jwt.NewCodec(cfg.Tokens.Secret)
	if err != nil {
		log.Error("failed to init token codec", sl.Err(err))
		os.Exit(1)
	}

	authService := auth.New(log, repo, repo, codec, opts...)
	todoService := todos.New(log, repo)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router.New(log, authService, todoService, cfg.HTTPServer.Timeout),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("http server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", sl.Err(err))
	} else {
		log.Info("server stopped gracefully")
	}
}

func setupStorage(ctx context.Context, cfg *config.Config) (repository, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return memory.New(), nil
	default:
		repo, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, err
		}

		return repo, nil
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
