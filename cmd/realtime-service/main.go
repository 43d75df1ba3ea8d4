package main

import (
	"context"
	"encoding/json"
	"expvar"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"bellatavola/internal/config"
	"bellatavola/internal/httpx"
	"bellatavola/internal/realtime/hub"
	"bellatavola/internal/realtime/store"
	"bellatavola/internal/realtime/store/postgres"
	"bellatavola/internal/telemetry"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type eventEnvelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

const (
	zeroUUID         = "00000000-0000-0000-0000-000000000000"
	realtimeConsumer = "realtime"
	notifyConsumer   = "notification"
	pollBatch        = 100
	outboxRetention  = 24 * time.Hour
)

func main() {
	cfg := config.LoadRealtime()
	shutdownTelemetry := telemetry.Setup("realtime-service")
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

	st := postgres.NewStore(pool)
	h := hub.New()
	limiter := httpx.NewRateLimiter(httpx.RateLimitConfig{
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.HandleFunc("/healthz", httpx.HealthHandler)
	sockjsHandler := sockjs.NewHandler("/realtime", sockjs.DefaultOptions, func(session sockjs.Session) {
		token := tokenFromRequest(session.Request())
		if token == "" {
			_ = session.Close(4001, "missing token")
			return
		}
		_, user, err := st.GetSession(context.Background(), token)
		if err != nil {
			_ = session.Close(4002, "invalid session")
			return
		}

		client := &hub.Client{ID: uuid.NewString(), UserID: user.UserID, Send: make(chan []byte, 16)}
		h.Register(client)
		defer h.Unregister(client)

		go func() {
			for msg := range client.Send {
				_ = session.Send(string(msg))
			}
		}()

		for {
			msg, err := session.Recv()
			if err != nil {
				return
			}
			parsed, ok := hub.ParseJoin([]byte(msg))
			if !ok {
				continue
			}
			h.SetJoined(client, parsed.Action == "join_user_room")
		}
	})
	mux.Handle("/realtime/", sockjsHandler)

	otelHandler := otelhttp.NewHandler(httpx.LoggingMiddleware(limiter.Middleware(mux)), "realtime-service")
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	offset, err := st.GetOffset(context.Background(), realtimeConsumer)
	if err != nil {
		log.Printf("load offset error: %v", err)
	}
	if offset.LastEventTime.IsZero() {
		offset.LastEventTime = time.Unix(0, 0).UTC()
	}
	if offset.LastEventID == "" {
		offset.LastEventID = zeroUUID
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	var running int32

	go func() {
		log.Printf("realtime-service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()
		for range ticker.C {
			if !atomic.CompareAndSwapInt32(&running, 0, 1) {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			events, err := st.ListOutboxEvents(ctx, offset, pollBatch)
			cancel()
			if err == nil {
				for _, event := range events {
					offset.LastEventTime = event.CreatedAt
					offset.LastEventID = event.EventID
					env := eventEnvelope{Type: event.Type, Payload: event.Payload, CreatedAt: event.CreatedAt}
					payload, _ := json.Marshal(env)
					h.Broadcast(payload, event.UserID)
				}
				if len(events) > 0 {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					if err := st.UpdateOffset(ctx, realtimeConsumer, offset); err != nil {
						log.Printf("update offset error: %v", err)
					}
					cleanupDrained(ctx, st, offset)
					cancel()
				}
			}
			atomic.StoreInt32(&running, 0)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// cleanupDrained trims outbox rows both consumers have read, bounded by
// the retention window so a stalled consumer does not grow the table
// without limit.
func cleanupDrained(ctx context.Context, st store.Store, offset store.OutboxOffset) {
	notifyOffset, err := st.GetOffset(ctx, notifyConsumer)
	if err != nil {
		log.Printf("notification offset error: %v", err)
		return
	}
	if notifyOffset.LastEventTime.IsZero() {
		return
	}
	cutoff := offset.LastEventTime
	if notifyOffset.LastEventTime.Before(cutoff) {
		cutoff = notifyOffset.LastEventTime
	}
	if floor := time.Now().Add(-outboxRetention); floor.After(cutoff) {
		cutoff = floor
	}
	if err := st.CleanupOutbox(ctx, cutoff); err != nil {
		log.Printf("cleanup outbox error: %v", err)
	}
}

func tokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}
