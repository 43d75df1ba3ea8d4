package main

import (
	"context"
	"expvar"
	"log"
	"net/http"
	"time"

	"bellatavola/internal/auth/broker"
	"bellatavola/internal/auth/httpapi"
	"bellatavola/internal/auth/store/postgres"
	"bellatavola/internal/config"
	"bellatavola/internal/httpx"
	"bellatavola/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.LoadAuth()
	shutdownTelemetry := telemetry.Setup("auth-service")
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

	store := postgres.NewStore(pool, postgres.Options{
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	handler := httpapi.NewHandler(store, broker.NewHTTPBroker(cfg.BrokerURL))
	limiter := httpx.NewRateLimiter(httpx.RateLimitConfig{
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})

	root := http.NewServeMux()
	root.Handle("/metrics", expvar.Handler())
	root.Handle("/", handler.Routes())

	httpx.Serve("auth-service", cfg.Port,
		otelhttp.NewHandler(httpx.LoggingMiddleware(limiter.Middleware(root)), "auth-service"))
}
