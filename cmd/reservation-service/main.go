package main

import (
	"context"
	"expvar"
	"log"
	"net/http"
	"time"

	"bellatavola/internal/config"
	"bellatavola/internal/httpx"
	"bellatavola/internal/reservation/httpapi"
	"bellatavola/internal/reservation/store/postgres"
	"bellatavola/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.LoadReservation()
	shutdownTelemetry := telemetry.Setup("reservation-service")
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

	handler := httpapi.NewHandler(postgres.NewStore(pool))
	limiter := httpx.NewRateLimiter(httpx.RateLimitConfig{
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})

	root := http.NewServeMux()
	root.Handle("/metrics", expvar.Handler())
	root.Handle("/", handler.Routes())

	httpx.Serve("reservation-service", cfg.Port,
		otelhttp.NewHandler(httpx.LoggingMiddleware(limiter.Middleware(root)), "reservation-service"))
}
