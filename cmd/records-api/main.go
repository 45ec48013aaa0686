package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/uniops/academic-records-api/api/swagger"
	"github.com/uniops/academic-records-api/internal/handler"
	"github.com/uniops/academic-records-api/internal/middleware"
	"github.com/uniops/academic-records-api/internal/models"
	"github.com/uniops/academic-records-api/internal/repository"
	"github.com/uniops/academic-records-api/internal/service"
	"github.com/uniops/academic-records-api/pkg/cache"
	"github.com/uniops/academic-records-api/pkg/config"
	"github.com/uniops/academic-records-api/pkg/database"
	"github.com/uniops/academic-records-api/pkg/logger"
	corsmiddleware "github.com/uniops/academic-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/uniops/academic-records-api/pkg/middleware/requestid"
	"github.com/uniops/academic-records-api/pkg/recompute"
)

// @title Academic Records API
// @version 1.0.0
// @description Academic records and aggregation service: composite scores, GPA, attendance, balances and library fines.
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, derived reads uncached", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	assessments := repository.NewAssessmentRepository(db)
	composites := repository.NewCompositeRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	finance := repository.NewFinanceRepository(db)
	loans := repository.NewLoanRepository(db)
	policies := repository.NewPolicyRepository(db)
	academics := repository.NewAcademicRepository(db)

	metricsSvc := service.NewMetricsService()

	dispatcher := recompute.NewDispatcher(nil, recompute.Config{
		Workers:    cfg.Recompute.Workers,
		BufferSize: cfg.Recompute.BufferSize,
		Logger:     logr,
	})

	gradeSvc := service.NewGradeService(assessments, composites, academics, policies, attendance, dispatcher, redisClient, cfg.Derived.CacheTTL, metricsSvc, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendance, policies, dispatcher, cfg.Derived.LowAttendanceThreshold, metricsSvc, nil, logr)
	financeSvc := service.NewFinanceService(finance, dispatcher, metricsSvc, nil, logr)
	loanSvc := service.NewLoanService(loans, policies, models.FinePolicy{
		DailyRate: cfg.Library.DefaultDailyRate,
		GraceDays: cfg.Library.DefaultGraceDays,
		MaxFine:   cfg.Library.DefaultMaxFine,
	}, metricsSvc, nil, logr)

	dispatcher.SetHandler(func(ctx context.Context, task recompute.Task) error {
		switch task.Type {
		case service.TaskComposite:
			return gradeSvc.ProcessTask(ctx, task)
		case service.TaskAttendance:
			return attendanceSvc.ProcessTask(ctx, task)
		case service.TaskBalance:
			return financeSvc.ProcessTask(ctx, task)
		default:
			return fmt.Errorf("unknown task type %q", task.Type)
		}
	})
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	gradeHandler := handler.NewGradeHandler(gradeSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	financeHandler := handler.NewFinanceHandler(financeSvc)
	loanHandler := handler.NewLoanHandler(loanSvc)
	opsHandler := handler.NewOpsHandler(metricsSvc)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/assessments", gradeHandler.Record)
		api.GET("/composites", gradeHandler.Composite)
		api.GET("/students/:studentId/gpa", gradeHandler.GPA)
		api.GET("/students/:studentId/transcript", gradeHandler.Transcript)
		api.POST("/units/:unitId/semesters/:semesterId/recompute", gradeHandler.Reapply)

		api.POST("/attendance/sessions", attendanceHandler.CreateSession)
		api.POST("/attendance/records", attendanceHandler.Mark)
		api.GET("/attendance/rates", attendanceHandler.Rate)
		api.GET("/attendance/low", attendanceHandler.Low)

		api.POST("/payments", financeHandler.Record)
		api.GET("/payments", financeHandler.List)
		api.POST("/payments/:id/verify", financeHandler.Verify)
		api.GET("/balances", financeHandler.Balance)

		api.POST("/loans", loanHandler.Create)
		api.POST("/loans/:id/return", loanHandler.Return)
		api.GET("/loans/:id/fine", loanHandler.Fine)
		api.GET("/overdue-loans", loanHandler.Overdue)
		api.GET("/students/:studentId/fines", loanHandler.StudentFines)

		api.GET("/ops/metrics", opsHandler.Snapshot)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
