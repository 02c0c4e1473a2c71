package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/config"
	"github.com/unieval/evaluation-backend/internal/database"
	"github.com/unieval/evaluation-backend/internal/handler"
	"github.com/unieval/evaluation-backend/internal/logger"
	"github.com/unieval/evaluation-backend/internal/notify"
	"github.com/unieval/evaluation-backend/internal/pseudonym"
	"github.com/unieval/evaluation-backend/internal/repository"
	"github.com/unieval/evaluation-backend/internal/router"
	"github.com/unieval/evaluation-backend/internal/service"
	"github.com/unieval/evaluation-backend/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "server")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Bool("enforce_deadline", cfg.EnforceDeadline).
		Msg("Starting course evaluation backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pseudo, err := pseudonym.New(cfg.PseudonymSalt)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize pseudonymizer")
	}

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Task Queue ────────────────────────────────────────────────────
	queue, err := database.NewAsynqClient(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create task queue client")
	}
	defer queue.Close()

	inspector, err := database.NewAsynqInspector(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create task queue inspector")
	}
	defer inspector.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	enrollmentRepo := repository.NewEnrollmentRepository(pool)
	questionnaireRepo := repository.NewQuestionnaireRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	responseRepo := repository.NewResponseRepository(pool)
	sessionRepo := repository.NewSessionRepository(rdb)
	paperCache := repository.NewPaperCache(rdb)
	monitorRepo := repository.NewMonitorRepository(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	bg := service.NewBackground(cfg.NotifyTimeout, log)
	dispatcher := notify.NewDispatcher(queue, cfg.NotifyMaxRetry, log)

	authService := service.NewAuthService(cfg, userRepo, sessionRepo, log)
	userService := service.NewUserService(userRepo, authService, log)
	courseService := service.NewCourseService(courseRepo)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, userRepo, questionnaireRepo, log)
	questionnaireService := service.NewQuestionnaireService(questionnaireRepo, questionRepo, enrollmentService, paperCache, dispatcher, bg, log)
	questionService := service.NewQuestionService(questionRepo, questionnaireRepo, log)
	responseService := service.NewResponseService(
		questionnaireRepo, questionRepo, responseRepo,
		enrollmentService, pseudo, monitorRepo, dispatcher, bg,
		service.ResponseOptions{EnforceDeadline: cfg.EnforceDeadline},
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	deps := map[string]handler.Pinger{
		"postgres": pool,
		"redis":    handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
	}
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, log),
		User:          handler.NewUserHandler(userService, log),
		Course:        handler.NewCourseHandler(courseService, log),
		Enrollment:    handler.NewEnrollmentHandler(enrollmentService, courseService, log),
		Questionnaire: handler.NewQuestionnaireHandler(questionnaireService, log),
		Question:      handler.NewQuestionHandler(questionService, log),
		Response:      handler.NewResponseHandler(responseService, log),
		Monitor:       handler.NewMonitorHandler(questionnaireService, monitorRepo, log, cfg.AllowedOrigins),
		System:        handler.NewSystemHandler(deps, inspector, log),
	}

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load all published questionnaire papers into Redis BEFORE accepting
	// traffic so the first wave of students does not stampede Postgres.
	if err := questionnaireService.PrewarmPapers(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Let in-flight notification and live-feed jobs finish; each is
	// bounded by NOTIFY_TIMEOUT_SECONDS.
	bg.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
