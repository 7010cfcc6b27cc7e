package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/vidyalaya/exam-api/api/swagger"
	"github.com/vidyalaya/exam-api/internal/grading"
	"github.com/vidyalaya/exam-api/internal/handler"
	"github.com/vidyalaya/exam-api/internal/middleware"
	"github.com/vidyalaya/exam-api/internal/repository"
	"github.com/vidyalaya/exam-api/internal/service"
	"github.com/vidyalaya/exam-api/pkg/cache"
	"github.com/vidyalaya/exam-api/pkg/config"
	"github.com/vidyalaya/exam-api/pkg/database"
	"github.com/vidyalaya/exam-api/pkg/logger"
	corsmiddleware "github.com/vidyalaya/exam-api/pkg/middleware/cors"
	reqidmiddleware "github.com/vidyalaya/exam-api/pkg/middleware/requestid"
)

// @title Vidyalaya Exam API
// @version 1.0.0
// @description Exam lifecycle, marks entry and report-card service
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
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	store := repository.NewStore(db)
	validate := validator.New()
	rules := grading.NewRules(cfg.Grading.AdvancedGradeMin)

	authSvc := service.NewAuthService(cfg.JWT.Secret)
	metricsSvc := service.NewMetricsService()
	examSvc := service.NewExamService(store, validate, logr)
	marksSvc := service.NewMarksService(store, rules, validate, logr)
	reportSvc := service.NewReportCardService(store, rules, cacheRepo, cfg.Cache.ReportCardTTL, metricsSvc, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:           authSvc,
		Exams:          handler.NewExamHandler(examSvc, metricsSvc),
		Marks:          handler.NewMarksHandler(marksSvc, metricsSvc),
		Reports:        handler.NewReportCardHandler(reportSvc, metricsSvc),
		ExportsEnabled: cfg.Export.Enabled,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
