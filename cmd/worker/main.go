package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/config"
	"github.com/unieval/evaluation-backend/internal/database"
	"github.com/unieval/evaluation-backend/internal/logger"
	"github.com/unieval/evaluation-backend/internal/metrics"
	"github.com/unieval/evaluation-backend/internal/notify"
	"github.com/unieval/evaluation-backend/internal/repository"
	"github.com/unieval/evaluation-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "worker")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connections ───────────────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	srv, err := database.NewAsynqServer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create task server")
	}

	// ─── Handlers ──────────────────────────────────────────────────────
	dir := notify.NewRepositoryDirectory(
		repository.NewUserRepository(pool),
		repository.NewQuestionnaireRepository(pool),
	)
	sender := notify.NewSender(cfg, log)
	if !cfg.SMTPConfigured() {
		log.Warn().Msg("SMTP not configured, notifications are logged instead of sent")
	}
	w := worker.NewNotificationWorker(srv, notify.NewHandlers(dir, sender, cfg.AppBaseURL, log), log)

	// ─── Metrics endpoint ──────────────────────────────────────────────
	metrics.Init()
	gin.SetMode(cfg.GinMode)
	metricsRouter := gin.New()
	metricsRouter.GET("/metrics", metrics.Handler())
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server error")
		}
	}()

	// ─── Run until signalled ───────────────────────────────────────────
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")
		cancel()
	}()

	if err := w.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Worker failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	log.Info().Msg("Shutdown complete")
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
