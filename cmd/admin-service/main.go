package main

import (
	"context"
	"expvar"
	"log"
	"net/http"
	"time"

	"bellatavola/internal/admin/httpapi"
	"bellatavola/internal/admin/images"
	"bellatavola/internal/admin/store/postgres"
	"bellatavola/internal/config"
	"bellatavola/internal/httpx"
	"bellatavola/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.LoadAdmin()
	shutdownTelemetry := telemetry.Setup("admin-service")
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

	imageStore, err := images.NewStore(cfg.ImageDir)
	if err != nil {
		log.Fatalf("image dir: %v", err)
	}

	handler := httpapi.NewHandler(postgres.NewStore(pool), imageStore)
	limiter := httpx.NewRateLimiter(httpx.RateLimitConfig{
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})

	root := http.NewServeMux()
	root.Handle("/metrics", expvar.Handler())
	root.Handle("/images/", http.StripPrefix("/images/", http.FileServer(http.Dir(imageStore.Dir()))))
	root.Handle("/", handler.Routes())

	httpx.Serve("admin-service", cfg.Port,
		otelhttp.NewHandler(httpx.LoggingMiddleware(limiter.Middleware(root)), "admin-service"))
}
