package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"bellatavola/internal/config"
	"bellatavola/internal/delivery/store/postgres"
	"bellatavola/internal/kitchen"
	"bellatavola/internal/mq"
	"bellatavola/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg := config.LoadKitchen()
	shutdownTelemetry := telemetry.Setup(cfg.Station + "-worker")
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

	broker, err := mq.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatalf("amqp connect: %v", err)
	}
	defer broker.Close()
	if err := broker.DeclareTopology(); err != nil {
		log.Fatalf("amqp topology: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := kitchen.NewWorker(postgres.NewStore(pool), cfg.Station, cfg.Prefetch)
	log.Printf("%s worker draining %s", cfg.Station, kitchen.QueueName(cfg.Station))
	if err := worker.Run(ctx, broker); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker error: %v", err)
	}
}
