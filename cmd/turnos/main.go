package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/turnos/internal/api/router"
	"github.com/wolfman30/turnos/internal/app/bootstrap"
	appconfig "github.com/wolfman30/turnos/internal/config"
	"github.com/wolfman30/turnos/internal/directory"
	httpmiddleware "github.com/wolfman30/turnos/internal/http/middleware"
	"github.com/wolfman30/turnos/internal/manager"
	"github.com/wolfman30/turnos/internal/observability/metrics"
	"github.com/wolfman30/turnos/internal/turnos"
	"github.com/wolfman30/turnos/internal/web"
	"github.com/wolfman30/turnos/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithWriter(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("starting turnos server",
		"env", cfg.Env,
		"port", cfg.Port,
		"turnos_api", cfg.TurnosAPIURL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	dirs, err := bootstrap.BuildDirectorySource(cfg, redisClient, logger)
	if err != nil {
		logger.Error("failed to build directory", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	turnosMetrics := metrics.NewTurnosMetrics(registry)

	client, err := turnos.NewClient(cfg.TurnosAPIURL, logger,
		turnos.WithTimeout(cfg.TurnosAPITimeout),
		turnos.WithMetrics(turnosMetrics),
	)
	if err != nil {
		logger.Error("invalid turnos api url", "error", err)
		os.Exit(1)
	}

	sessions := manager.NewSessions(func() *manager.Manager {
		return manager.New(client, dirs, logger, turnosMetrics)
	}, cfg.SessionTTL, logger, turnosMetrics)
	go sessions.Run(ctx, time.Minute)

	page, err := web.NewHandler(sessions, dirs, logger, web.WithSecureCookie(cfg.IsProduction()))
	if err != nil {
		logger.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx, 5*time.Minute)

	if cfg.DirectoryAdminToken == "" {
		logger.Info("directory admin token not set, write endpoints disabled")
	}
	r := router.New(&router.Config{
		Logger:             logger,
		Web:                page,
		Directory:          directory.NewHandler(dirs, logger),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminToken:         cfg.DirectoryAdminToken,
		RateLimiter:        limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.TurnosAPITimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
