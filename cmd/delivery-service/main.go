package main

import (
	"context"
	"expvar"
	"log"
	"net/http"
	"time"

	"bellatavola/internal/config"
	"bellatavola/internal/delivery/httpapi"
	"bellatavola/internal/delivery/store/postgres"
	"bellatavola/internal/httpx"
	"bellatavola/internal/mq"
	"bellatavola/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.LoadDelivery()
	shutdownTelemetry := telemetry.Setup("delivery-service")
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

	handler := httpapi.NewHandler(postgres.NewStore(pool), broker)
	limiter := httpx.NewRateLimiter(httpx.RateLimitConfig{
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})

	root := http.NewServeMux()
	root.Handle("/metrics", expvar.Handler())
	root.Handle("/", handler.Routes())

	httpx.Serve("delivery-service", cfg.Port,
		otelhttp.NewHandler(httpx.LoggingMiddleware(limiter.Middleware(root)), "delivery-service"))
}
