// Command tokenward-server runs the token authority as an HTTP service:
// a Postgres user directory, a Redis revocation store, and the engine
// behind a small JSON API.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	tokenward "github.com/tokenward/tokenward"
	"github.com/tokenward/tokenward/directory/postgres"
	promexport "github.com/tokenward/tokenward/metrics/export/prometheus"
	"github.com/tokenward/tokenward/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	directory, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer directory.Close()

	builder := tokenward.New().
		WithConfig(cfg.Engine).
		WithDirectory(directory)

	var redisClient *redis.Client
	if cfg.Engine.Revocation.Enabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
		builder = builder.WithRedis(redisClient)
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	if err := promexport.Register(engine, registry); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(engine, logger, cfg.CORSOrigins, registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "revocation", engine.RevocationEnabled())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(engine *tokenward.Engine, logger *slog.Logger, origins []string, registry *prometheus.Registry) http.Handler {
	s := &server{engine: engine, logger: logger}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAccess(engine))
			r.Get("/session", s.handleSession)
			// Self-service or admin; the handler checks the target.
			r.Post("/revoke-user/{id}", s.handleRevokeUser)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(engine))
			r.Post("/revoke-all", s.handleRevokeAll)
			r.Post("/cleanup", s.handleCleanup)
		})
	})

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}
