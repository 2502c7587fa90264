package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/senai-sm/school-manager/api/swagger"
	"github.com/senai-sm/school-manager/internal/handler"
	"github.com/senai-sm/school-manager/internal/performance"
	"github.com/senai-sm/school-manager/internal/repository"
	"github.com/senai-sm/school-manager/internal/service"
	"github.com/senai-sm/school-manager/pkg/cache"
	"github.com/senai-sm/school-manager/pkg/config"
	"github.com/senai-sm/school-manager/pkg/database"
	"github.com/senai-sm/school-manager/pkg/export"
	"github.com/senai-sm/school-manager/pkg/jobs"
	"github.com/senai-sm/school-manager/pkg/logger"
	"github.com/senai-sm/school-manager/pkg/storage"
)

// @title SENAI School Manager API
// @version 1.0.0
// @description Academic performance evaluation, dashboards and institutional documents
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	checks := map[string]handler.ReadinessCheck{"database": db.PingContext}
	var cacheRepo service.CacheRepository
	if cfg.Performance.CacheEnabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, performance cache disabled", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			redisRepo := repository.NewCacheRepository(client)
			cacheRepo = redisRepo
			checks["cache"] = redisRepo.Ping
		}
	}
	cacheService := service.NewCacheService(cacheRepo, metrics, cfg.Performance.CacheTTL, logr, cfg.Performance.CacheEnabled)

	records := repository.NewStudentRecordRepository(db)
	students := repository.NewStudentRepository(db)
	classes := repository.NewClassRepository(db)
	courses := repository.NewCourseRepository(db)
	allocations := repository.NewAllocationRepository(db)
	documents := repository.NewDocumentRepository(db)
	users := repository.NewUserRepository(db)

	validate := validator.New()

	performanceService, err := service.NewPerformanceService(service.PerformanceServiceParams{
		Records:  records,
		Students: students,
		Classes:  classes,
		Courses:  courses,
		Cache:    cacheService,
		Metrics:  metrics,
		Logger:   logr,
		Config: service.PerformanceServiceConfig{
			Thresholds: performance.Thresholds{
				PassingGrade:    cfg.Performance.PassingGrade,
				RecoveryFloor:   cfg.Performance.RecoveryFloor,
				AttendanceFloor: cfg.Performance.AttendanceFloor,
			},
			CacheTTL: cfg.Performance.CacheTTL,
		},
	})
	if err != nil {
		logr.Fatal("invalid performance configuration", zap.Error(err))
	}

	authService := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "school-manager",
	})
	recordService := service.NewRecordService(records, allocations, students, performanceService, validate, logr)

	documentStorage, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare document storage", zap.Error(err))
	}
	pdf := export.NewPDFExporter()
	documentService := service.NewDocumentService(service.DocumentServiceParams{
		Documents:   documents,
		Students:    students,
		Classes:     classes,
		ReportCards: performanceService,
		Storage:     documentStorage,
		Signer:      storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL),
		Renderer:    pdf,
		Metrics:     metrics,
		Validator:   validate,
		Logger:      logr,
		Config: service.DocumentServiceConfig{
			PublicBaseURL:   cfg.Documents.PublicBaseURL,
			APIPrefix:       cfg.APIPrefix,
			Retention:       cfg.Documents.Retention,
			CleanupSchedule: cfg.Documents.CleanupSchedule,
		},
	})
	documentQueue := jobs.NewQueue("documents", documentService.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Documents.WorkerConcurrency,
		MaxRetries: cfg.Documents.WorkerRetries,
		OnFailure:  documentService.HandleJobFailure,
		Logger:     logr,
	})
	documentService.SetQueue(documentQueue)

	dashboardService := service.NewDashboardService(service.DashboardServiceParams{
		Performance: performanceService,
		Documents:   documentService,
		Allocations: allocations,
		Classes:     classes,
		Students:    students,
		Logger:      logr,
	})
	exportService := service.NewExportService(performanceService, cfg.Exports.Enabled, logr, nil, pdf)

	handlers := routeHandlers{
		auth:        handler.NewAuthHandler(authService),
		performance: handler.NewPerformanceHandler(performanceService),
		records:     handler.NewRecordHandler(recordService),
		dashboard:   handler.NewDashboardHandler(dashboardService),
		documents:   handler.NewDocumentHandler(documentService),
		exports:     handler.NewExportHandler(exportService),
		metrics:     handler.NewMetricsHandler(metrics, checks),
	}
	router := newRouter(cfg, logr, metrics, authService, handlers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	documentQueue.Start(ctx)
	defer documentQueue.Stop()

	cleanup, err := documentService.StartCleanup()
	if err != nil {
		logr.Fatal("invalid document cleanup schedule", zap.Error(err))
	}
	if cleanup != nil {
		defer cleanup.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
