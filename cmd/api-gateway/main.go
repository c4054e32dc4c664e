package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campus-exams/exam-scheduler-api/api/swagger"
	internalhandler "github.com/campus-exams/exam-scheduler-api/internal/handler"
	internalmiddleware "github.com/campus-exams/exam-scheduler-api/internal/middleware"
	"github.com/campus-exams/exam-scheduler-api/internal/models"
	"github.com/campus-exams/exam-scheduler-api/internal/repository"
	"github.com/campus-exams/exam-scheduler-api/internal/scheduler"
	"github.com/campus-exams/exam-scheduler-api/internal/service"
	"github.com/campus-exams/exam-scheduler-api/pkg/config"
	"github.com/campus-exams/exam-scheduler-api/pkg/database"
	"github.com/campus-exams/exam-scheduler-api/pkg/logger"
	corsmiddleware "github.com/campus-exams/exam-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campus-exams/exam-scheduler-api/pkg/middleware/requestid"
)

// @title Exam Scheduler API
// @version 0.1.0
// @description Examination timetable optimisation service
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)

	authRepo := repository.NewUserRepository(db)
	authSvc := service.NewAuthService(authRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "exam-scheduler-api",
		Audience:           []string{"exam-scheduler-clients"},
	})
	authHandler := internalhandler.NewAuthHandler(authSvc)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)
	authRoutes.POST("/forgot-password", authHandler.ForgotPassword)
	authRoutes.POST("/reset-password", authHandler.ResetPassword)
	protectedAuth := authRoutes.Group("")
	protectedAuth.Use(internalmiddleware.JWT(authSvc))
	protectedAuth.GET("/me", authHandler.Me)
	protectedAuth.POST("/logout", authHandler.Logout)
	protectedAuth.POST("/change-password", authHandler.ChangePassword)

	var examSchedulerHandler *internalhandler.ExamSchedulerHandler
	if cfg.ExamScheduler.Enabled {
		examCatalogRepo := repository.NewExamCatalogRepository(db)
		examResourceRepo := repository.NewExamResourceRepository(db)
		examRepo := repository.NewExamRepository(db)

		limits := scheduler.Limits{
			ModuleLimit:            cfg.ExamScheduler.ModuleLimit,
			StudentConstraintLimit: cfg.ExamScheduler.StudentConstraintLimit,
			PairNeighbourhood:      cfg.ExamScheduler.PairNeighbourhood,
			MaxStudentsForH2:       cfg.ExamScheduler.MaxStudentsForH2,
		}
		budget := scheduler.Budget{
			MaxSeconds:  cfg.ExamScheduler.MaxSolverSeconds,
			Workers:     cfg.ExamScheduler.Workers,
			LogProgress: cfg.ExamScheduler.LogProgress,
		}

		examLoader := scheduler.NewLoader(examCatalogRepo, examResourceRepo, logr)
		examDetector := scheduler.NewDetector(examRepo, logr)
		examFacade := scheduler.NewFacade(examLoader, examRepo, examDetector, metricsSvc, limits, budget, logr)
		examSchedulerSvc := service.NewExamSchedulerService(examFacade, examRepo, nil, logr)
		examSchedulerHandler = internalhandler.NewExamSchedulerHandler(examSchedulerSvc)
	}

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	if examSchedulerHandler != nil {
		examSessions := secured.Group("/exam-sessions")
		examSessions.POST("/:id/schedule", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), examSchedulerHandler.Optimize)
		examSessions.GET("/:id/exams", internalmiddleware.RBAC(string(models.RoleTeacher), string(models.RoleAdmin), string(models.RoleSuperAdmin)), examSchedulerHandler.ListExams)
		examSessions.GET("/:id/conflicts", internalmiddleware.RBAC(string(models.RoleTeacher), string(models.RoleAdmin), string(models.RoleSuperAdmin)), examSchedulerHandler.ListConflicts)
		examSessions.GET("/:id/conflicts/export", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), examSchedulerHandler.ExportConflicts)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
