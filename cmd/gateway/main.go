package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/det175/lanibot-gateway/internal/config"
	"github.com/det175/lanibot-gateway/internal/content"
	"github.com/det175/lanibot-gateway/internal/gateway"
	"github.com/det175/lanibot-gateway/internal/httputil"
	"github.com/det175/lanibot-gateway/internal/prompt"
	"github.com/det175/lanibot-gateway/internal/ratelimit"
	"github.com/det175/lanibot-gateway/internal/telemetry"
	"github.com/det175/lanibot-gateway/internal/turnstile"
	"github.com/det175/lanibot-gateway/internal/upstream"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	loader := config.NewLoader(*configDir, logger)
	if err := loader.Load(); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}
	loader.OnReload(func() {
		logger.Info("configuration reloaded")
	})

	cfg := loader.Config()

	if cfg.Upstream.APIKey == "" {
		logger.Warn("upstream API key not configured; /chat will return configuration errors")
	}

	// Rate-limit store: Redis when configured, otherwise process memory.
	var store ratelimit.Store
	if addr := cfg.RateLimit.Redis.Address; addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.RateLimit.Redis.Password,
			DB:       cfg.RateLimit.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable (rate limiting fails open)", "error", err)
		} else {
			logger.Info("redis connected")
		}
		store = ratelimit.NewRedisStore(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	} else {
		memStore := ratelimit.NewMemoryStore(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		defer memStore.Close()
		store = memStore
	}

	// Build collaborators
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)

	contentStore := content.NewStore(cfg.Content.Dir)
	prompts := prompt.NewBuilder(contentStore)
	verifier := turnstile.NewVerifier(loader.Turnstile)
	upstreamClient := upstream.NewClient(loader.Upstream)

	handler := gateway.NewHandler(upstreamClient, verifier, prompts, contentStore, metrics)

	// Router setup
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Turnstile-Token"},
		MaxAge:         cfg.CORS.MaxAge,
	}))

	r.Get("/health", gateway.Health)

	// Rate-limited routes
	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(store, metrics))
		r.Post("/chat", handler.Chat)
		r.Post("/static-question", handler.StaticQuestion)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteNotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Metrics listener
	if port := cfg.Telemetry.MetricsPort; port > 0 {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			addr := fmt.Sprintf(":%d", port)
			logger.Info("metrics listener starting", "addr", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
		// No WriteTimeout: /chat streams until upstream completes.
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway starting", "addr", addr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("gateway stopped")
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := context.WithValue(r.Context(), requestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type contextKey string

const requestIDKey contextKey = "request_id"

func generateRequestID() string {
	now := time.Now()
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("req_%d_%s", now.UnixMilli(), hex.EncodeToString(b))
}
