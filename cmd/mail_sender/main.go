package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"todo_api/internal/config"
	"todo_api/internal/lib/logger/sl"
	mailer "todo_api/internal/mail_sender"
	"todo_api/internal/models"
	"todo_api/internal/rabbitmq"
)

const (
	envLocal = "local"
	envDev   = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad(config.Path())
	log := setupLogger(cfg.Env)

	log.Info("starting mail sender", slog.String("env", cfg.Env))

	if err := run(ctx, cfg, log); err != nil {
		log.Error("mail sender stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("service gracefully stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	r, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		return err
	}
	defer r.Close()

	m := &mailer.Mailer{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
	}

	log.Info("consumer started", slog.String("queue", cfg.RabbitMQ.QueueName))

	return r.StartReading(ctx, func(msg models.Message) error {
		log := log.With(slog.String("purpose", msg.Purpose))

		if err := m.Send(msg); err != nil {
			log.Error("failed to send message", sl.Err(err))
			return err
		}

		log.Info("message sent")

		return nil
	})
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
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
