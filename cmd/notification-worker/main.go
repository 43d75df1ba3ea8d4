package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"bellatavola/internal/config"
	"bellatavola/internal/notification/store/postgres"
	"bellatavola/internal/notification/worker"
	"bellatavola/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg := config.LoadNotification()
	shutdownTelemetry := telemetry.Setup("notification-worker")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.New(postgres.NewStore(pool), worker.Config{
		BatchSize:   cfg.BatchSize,
		MaxAttempts: cfg.MaxAttempts,
		Provider:    cfg.MailProvider,
	})
	log.Printf("notification worker polling every %s", cfg.PollInterval)
	worker.Start(ctx, cfg.PollInterval, w)
}
