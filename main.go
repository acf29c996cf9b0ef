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

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"

	"lgd_site/config"
	"lgd_site/handlers"
	"lgd_site/lgd"
	"lgd_site/logging"
	"lgd_site/metrics"
	"lgd_site/middleware"
	"lgd_site/models"
	"lgd_site/utils"
)

func main() {
	startTime := time.Now()

	// Load environment variables first
	envFile, envErr := config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel})
	log := logging.Component("main")
	if envErr != nil {
		log.Warn("error loading .env file", "path", envFile, "error", envErr)
	} else if envFile != "" {
		log.Info("loaded .env file", "path", envFile)
	}
	log.Info("starting server initialization", "at", startTime.Format(time.RFC3339))

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg, cfg.Metrics.Namespace)
	}

	store := lgd.NewStore(
		lgd.WithURLs(lgd.DefaultURLs(cfg.Data.BaseURL)),
		lgd.WithURLs(cfg.TierURLs()),
		lgd.WithCache(config.InitCache(cfg.Data.CacheTTL, cfg.Data.CleanupInterval)),
		lgd.WithTTL(cfg.Data.CacheTTL),
		lgd.WithFetchTimeout(cfg.Data.FetchTimeout),
		lgd.WithMetrics(m),
		lgd.WithLogger(logging.Component("lgd-store")),
	)
	for _, tier := range models.Tiers {
		log.Info("dataset source", "tier", tier, "url", store.URL(tier))
	}

	r := mux.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Requested-With",
			"X-Request-ID",
			"Origin",
		},
		ExposedHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		AllowCredentials: false,
		MaxAge:           86400,
		Debug:            cfg.CORSDebug,
		Logger:           middleware.CORSLogger{Log: logging.Component("cors")},
	})

	// Apply middlewares in correct order
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware(m))
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.CompressHandler)

	// API routes
	api := r.PathPrefix("/api/v1").Subrouter()
	handlers.New(store, utils.DefaultAreaConverter, m).Register(api)
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}
	log.Info("routes registered")

	// CORS wraps the router so preflight requests are answered before route
	// matching.
	handler := corsHandler.Handler(r)
	if cfg.CORSDebug {
		handler = middleware.CORSDebugMiddleware(handler)
	}

	srv := &http.Server{
		Handler:           handler,
		Addr:              ":" + cfg.Port,
		WriteTimeout:      cfg.Data.FetchTimeout + 30*time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Data.Preload {
		go preload(ctx, store)
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErrors:
		log.Error("server error received", "error", err)
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during server shutdown", "error", err)
		os.Exit(1)
	}
	config.ClearAllCaches()
	log.Info("server shutdown completed")
}

// preload warms every tier so the first page view does not pay for the
// downloads. Failures are logged and retried on demand.
func preload(ctx context.Context, store *lgd.Store) {
	log := logging.Component("preload")
	start := time.Now()
	for tier, res := range store.LoadAll(ctx) {
		if res.OK() {
			log.Info("dataset warmed", "tier", tier, "rows", res.Dataset.Len())
		} else {
			log.Warn("dataset warm-up failed", "tier", tier, "error", res.Err)
		}
	}
	log.Info("preload finished", "duration", time.Since(start))
}
