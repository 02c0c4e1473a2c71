package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/config"
	"github.com/unieval/evaluation-backend/internal/handler"
	"github.com/unieval/evaluation-backend/internal/logger"
	"github.com/unieval/evaluation-backend/internal/metrics"
	"github.com/unieval/evaluation-backend/internal/middleware"
	"github.com/unieval/evaluation-backend/internal/model"
	"github.com/unieval/evaluation-backend/internal/response"
	"github.com/unieval/evaluation-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	User          *handler.UserHandler
	Course        *handler.CourseHandler
	Enrollment    *handler.EnrollmentHandler
	Questionnaire *handler.QuestionnaireHandler
	Question      *handler.QuestionHandler
	Response      *handler.ResponseHandler
	Monitor       *handler.MonitorHandler
	System        *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID, "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(logger.GinMiddleware(log, response.ContextKeyRequestID))

	metrics.Init()
	router.Use(metrics.Middleware())

	// Prometheus negotiates its own encoding.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:       middleware.DefaultBrotliConfig.Quality,
		MinLength:     middleware.DefaultBrotliConfig.MinLength,
		ExcludedPaths: []string{"/metrics", "/ws/"},
	}))

	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", metrics.Handler())

	staff := middleware.RequireRole(model.RoleAdmin, model.RoleTeacher, model.RoleQualityManager)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	studentOnly := middleware.RequireRole(model.RoleStudent)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)

		auth.GET("/me", middleware.RequireAuth(authService), handlers.Auth.Me)
		auth.POST("/logout", middleware.RequireAuth(authService), handlers.Auth.Logout)
	}

	// ─── 2. Authenticated API (JWT + live session) ─────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireAuth(authService))

	users := api.Group("/users", adminOnly)
	{
		users.GET("", handlers.User.ListUsers)
		users.GET("/role/:role", handlers.User.ListUsersByRole)
		users.GET("/course/:id", handlers.User.ListUsersByCourse)
		users.GET("/email/:email", handlers.User.GetUserByEmail)
		users.GET("/:id", handlers.User.GetUser)
		users.POST("", handlers.User.CreateUser)
		users.PUT("/:id", handlers.User.UpdateUser)
		users.DELETE("/:id", handlers.User.DeleteUser)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", staff, handlers.Course.ListCourses)
		courses.GET("/:id", handlers.Course.GetCourse)
		courses.POST("", adminOnly, handlers.Course.CreateCourse)
		courses.PUT("/:id", adminOnly, handlers.Course.UpdateCourse)
		courses.DELETE("/:id", adminOnly, handlers.Course.DeleteCourse)
	}

	enrollments := api.Group("/enrollments")
	{
		enrollments.POST("", adminOnly, handlers.Enrollment.Enroll)
		enrollments.DELETE("", adminOnly, handlers.Enrollment.Unenroll)
		enrollments.GET("/me", studentOnly, handlers.Enrollment.MyCourses)
	}

	questionnaires := api.Group("/questionnaires")
	{
		questionnaires.GET("", handlers.Questionnaire.ListQuestionnaires)
		questionnaires.GET("/:id", handlers.Questionnaire.GetQuestionnaire)
		questionnaires.POST("", adminOnly, handlers.Questionnaire.CreateQuestionnaire)
		questionnaires.PUT("/:id", adminOnly, handlers.Questionnaire.UpdateQuestionnaire)
		questionnaires.PUT("/:id/publish", adminOnly, handlers.Questionnaire.PublishQuestionnaire)
		questionnaires.PUT("/:id/close", adminOnly, handlers.Questionnaire.CloseQuestionnaire)
		questionnaires.DELETE("/:id", adminOnly, handlers.Questionnaire.DeleteQuestionnaire)
		questionnaires.GET("/:id/paper", studentOnly, middleware.NoStore(), handlers.Questionnaire.GetPaper)
		questionnaires.GET("/:id/monitor", staff, handlers.Monitor.MonitorSSE)
	}

	questions := api.Group("/questions")
	{
		questions.GET("/questionnaire/:id", staff, handlers.Question.ListByQuestionnaire)
		questions.GET("/:id", staff, handlers.Question.GetQuestion)
		questions.POST("", adminOnly, handlers.Question.CreateQuestion)
		questions.PUT("/:id", adminOnly, handlers.Question.UpdateQuestion)
		questions.DELETE("/:id", adminOnly, handlers.Question.DeleteQuestion)
	}

	responses := api.Group("/responses")
	{
		responses.POST("", studentOnly, handlers.Response.Submit)
		responses.POST("/submitFullQuestionnaire", studentOnly, handlers.Response.SubmitFull)
		responses.GET("/me/:questionnaire_id", studentOnly, middleware.NoStore(), handlers.Response.Mine)
		responses.GET("/questionnaire/:id", staff, handlers.Response.ByQuestionnaire)
		responses.GET("/questionnaire/:id/summary", staff, handlers.Response.Summary)
		responses.GET("/question/:id", staff, handlers.Response.ByQuestion)
	}

	api.GET("/system/metrics", adminOnly, handlers.System.SystemMetricsSSE)

	// ─── 3. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAuth(authService), staff)
	{
		ws.GET("/questionnaires/:id/stream", handlers.Monitor.Stream)
	}

	return router
}
