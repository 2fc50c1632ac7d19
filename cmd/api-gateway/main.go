package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/edu-admin-api/api/swagger"
	"github.com/noah-isme/edu-admin-api/internal/handler"
	"github.com/noah-isme/edu-admin-api/internal/middleware"
	"github.com/noah-isme/edu-admin-api/internal/repository"
	"github.com/noah-isme/edu-admin-api/internal/service"
	"github.com/noah-isme/edu-admin-api/pkg/cache"
	"github.com/noah-isme/edu-admin-api/pkg/config"
	"github.com/noah-isme/edu-admin-api/pkg/database"
	"github.com/noah-isme/edu-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edu-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edu-admin-api/pkg/middleware/requestid"
)

// @title Edu Admin API
// @version 0.1.0
// @description Education program administration and lesson scheduling service
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, occurrence cache disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	institutionRepo := repository.NewInstitutionRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	instanceRepo := repository.NewCourseInstanceRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	patternRepo := repository.NewPatternRepository(db)
	blockedRepo := repository.NewBlockedDateRepository(db)
	occurrenceRepo := repository.NewOccurrenceRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Schedule.OccurrenceCacheTTL, logr, redisClient != nil)
	scheduleSvc := service.NewScheduleService(instanceRepo, lessonRepo, patternRepo, blockedRepo, occurrenceRepo, reportRepo, cacheSvc, metricsSvc, cfg.Schedule, logr)
	resyncSvc := service.NewResyncService(scheduleSvc, cfg.Resync, logr)

	institutionSvc := service.NewInstitutionService(institutionRepo, validate, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, instanceRepo, validate, logr)
	instanceSvc := service.NewCourseInstanceService(instanceRepo, patternRepo, lessonRepo, occurrenceRepo, reportRepo, scheduleSvc, validate, logr)
	lessonSvc := service.NewLessonService(lessonRepo, instanceRepo, resyncSvc, validate, logr)
	blockedSvc := service.NewBlockedDateService(blockedRepo, validate, logr)
	reportSvc := service.NewReportService(reportRepo, occurrenceRepo, validate, logr)
	exportSvc := service.NewExportService(instanceRepo, lessonRepo, occurrenceRepo, logr, cfg.Export.Enabled, nil, nil)

	institutionHandler := handler.NewInstitutionHandler(institutionSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	courseHandler := handler.NewCourseHandler(courseSvc, lessonSvc)
	instanceHandler := handler.NewCourseInstanceHandler(instanceSvc, lessonSvc)
	lessonHandler := handler.NewLessonHandler(lessonSvc)
	blockedHandler := handler.NewBlockedDateHandler(blockedSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resyncSvc.Start(ctx)
	defer resyncSvc.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/institutions", institutionHandler.List)
		api.POST("/institutions", institutionHandler.Create)
		api.GET("/institutions/:id", institutionHandler.Get)
		api.PUT("/institutions/:id", institutionHandler.Update)
		api.DELETE("/institutions/:id", institutionHandler.Delete)

		api.GET("/instructors", instructorHandler.List)
		api.POST("/instructors", instructorHandler.Create)
		api.GET("/instructors/:id", instructorHandler.Get)
		api.PUT("/instructors/:id", instructorHandler.Update)
		api.DELETE("/instructors/:id", instructorHandler.Delete)

		api.GET("/courses", courseHandler.List)
		api.POST("/courses", courseHandler.Create)
		api.GET("/courses/:id", courseHandler.Get)
		api.PUT("/courses/:id", courseHandler.Update)
		api.DELETE("/courses/:id", courseHandler.Delete)
		api.GET("/courses/:id/lessons", courseHandler.ListTemplateLessons)

		api.GET("/course-instances", instanceHandler.List)
		api.POST("/course-instances", instanceHandler.Create)
		api.GET("/course-instances/:id", instanceHandler.Get)
		api.PUT("/course-instances/:id", instanceHandler.Update)
		api.DELETE("/course-instances/:id", instanceHandler.Delete)
		api.PUT("/course-instances/:id/lesson-mode", instanceHandler.SwitchLessonMode)
		api.GET("/course-instances/:id/pattern", instanceHandler.GetPattern)
		api.PUT("/course-instances/:id/pattern", instanceHandler.UpsertPattern)
		api.GET("/course-instances/:id/lessons", instanceHandler.ListLessons)

		api.POST("/course-instances/:id/schedule/apply", scheduleHandler.Apply)
		api.GET("/course-instances/:id/schedule/preview", scheduleHandler.Preview)
		api.GET("/course-instances/:id/occurrences", scheduleHandler.ListOccurrences)
		api.POST("/occurrences/:id/postpone", scheduleHandler.Postpone)

		api.POST("/lessons", lessonHandler.Create)
		api.GET("/lessons/:id", lessonHandler.Get)
		api.PUT("/lessons/:id", lessonHandler.Update)
		api.DELETE("/lessons/:id", lessonHandler.Delete)

		api.GET("/blocked-dates", blockedHandler.List)
		api.POST("/blocked-dates", blockedHandler.Create)
		api.GET("/blocked-dates/:id", blockedHandler.Get)
		api.PUT("/blocked-dates/:id", blockedHandler.Update)
		api.DELETE("/blocked-dates/:id", blockedHandler.Delete)

		api.GET("/course-instances/:id/reports", reportHandler.ListByInstance)
		api.GET("/occurrences/:id/reports", reportHandler.ListByOccurrence)
		api.POST("/reports", reportHandler.Create)
		api.GET("/reports/:id", reportHandler.Get)
		api.PUT("/reports/:id", reportHandler.Update)
		api.DELETE("/reports/:id", reportHandler.Delete)

		api.GET("/course-instances/:id/timetable/export", exportHandler.Timetable)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
