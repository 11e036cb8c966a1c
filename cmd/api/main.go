package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/academy-billing-api/api/swagger"
	"github.com/noah-isme/academy-billing-api/internal/handler"
	"github.com/noah-isme/academy-billing-api/internal/middleware"
	"github.com/noah-isme/academy-billing-api/internal/repository"
	"github.com/noah-isme/academy-billing-api/internal/service"
	"github.com/noah-isme/academy-billing-api/pkg/cache"
	"github.com/noah-isme/academy-billing-api/pkg/config"
	"github.com/noah-isme/academy-billing-api/pkg/database"
	"github.com/noah-isme/academy-billing-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academy-billing-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academy-billing-api/pkg/middleware/requestid"
)

// @title Academy Billing API
// @version 1.0.0
// @description School admissions, enrollment and tuition billing service
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

	metricsSvc := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Receivables.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	var cacheSvcRepo service.CacheRepository
	if cacheRepo != nil {
		cacheSvcRepo = cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheSvcRepo, metricsSvc, cfg.Receivables.CacheTTL, logr, cfg.Receivables.CacheEnabled && cacheRepo != nil)

	enrollmentRepo := repository.NewEnrollmentRepository(db)
	receivableRepo := repository.NewReceivableRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	tutorRepo := repository.NewTutorRepository(db)
	areaRepo := repository.NewAreaRepository(db)
	careerRepo := repository.NewCareerRepository(db)
	cycleRepo := repository.NewCycleRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)

	scheduler := service.NewBillingScheduler(cfg.Billing.DefaultInstallments)
	codes := service.NewCodeGenerator()

	enrollmentSvc := service.NewEnrollmentService(
		enrollmentRepo, receivableRepo, paymentRepo,
		studentRepo, careerRepo, cycleRepo, admissionRepo,
		db, scheduler, codes, cacheSvc, logr, cfg.Billing.MaxCodeAttempts,
	)
	paymentSvc := service.NewPaymentService(paymentRepo, receivableRepo, db, cacheSvc, logr)
	receivableSvc := service.NewReceivableService(receivableRepo, studentRepo, cacheSvc, cfg.Receivables.CacheTTL, logr)
	studentSvc := service.NewStudentService(studentRepo, tutorRepo, logr)
	tutorSvc := service.NewTutorService(tutorRepo, logr)
	catalogSvc := service.NewCatalogService(areaRepo, careerRepo, cycleRepo, admissionRepo, logr)

	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	receivableHandler := handler.NewReceivableHandler(receivableSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	tutorHandler := handler.NewTutorHandler(tutorSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
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
		api.POST("/enrollments", enrollmentHandler.Create)
		api.GET("/enrollments", enrollmentHandler.List)
		api.GET("/enrollments/:id", enrollmentHandler.Get)
		api.PATCH("/enrollments/:id", enrollmentHandler.Update)
		api.DELETE("/enrollments/:id", enrollmentHandler.Delete)

		api.POST("/account-receivables", receivableHandler.Create)
		api.GET("/account-receivables", receivableHandler.List)
		api.GET("/account-receivables/:id", receivableHandler.Get)
		api.PATCH("/account-receivables/:id", receivableHandler.Update)
		api.DELETE("/account-receivables/:id", receivableHandler.Delete)
		api.GET("/account-receivables/:id/payments", paymentHandler.ListByAccount)

		api.POST("/payments", paymentHandler.Create)
		api.GET("/payments", paymentHandler.List)
		api.DELETE("/payments/:id", paymentHandler.Delete)

		api.POST("/students", studentHandler.Create)
		api.GET("/students", studentHandler.List)
		api.GET("/students/:id", studentHandler.Get)
		api.PUT("/students/:id", studentHandler.Update)
		api.DELETE("/students/:id", studentHandler.Delete)
		api.GET("/students/:id/receivables", receivableHandler.ListByStudent)
		if cfg.Exports.Enabled {
			api.GET("/students/:id/receivables/export", receivableHandler.Export)
		}
		api.GET("/students/:id/payments", paymentHandler.ListByStudent)

		api.POST("/tutors", tutorHandler.Create)
		api.GET("/tutors", tutorHandler.List)
		api.GET("/tutors/:id", tutorHandler.Get)
		api.PUT("/tutors/:id", tutorHandler.Update)
		api.DELETE("/tutors/:id", tutorHandler.Delete)

		api.POST("/areas", catalogHandler.CreateArea)
		api.GET("/areas", catalogHandler.ListAreas)
		api.GET("/areas/:id", catalogHandler.GetArea)
		api.PUT("/areas/:id", catalogHandler.UpdateArea)
		api.DELETE("/areas/:id", catalogHandler.DeleteArea)

		api.POST("/careers", catalogHandler.CreateCareer)
		api.GET("/careers", catalogHandler.ListCareers)
		api.GET("/careers/:id", catalogHandler.GetCareer)
		api.PUT("/careers/:id", catalogHandler.UpdateCareer)
		api.DELETE("/careers/:id", catalogHandler.DeleteCareer)

		api.POST("/cycles", catalogHandler.CreateCycle)
		api.GET("/cycles", catalogHandler.ListCycles)
		api.GET("/cycles/:id", catalogHandler.GetCycle)
		api.PUT("/cycles/:id", catalogHandler.UpdateCycle)
		api.DELETE("/cycles/:id", catalogHandler.DeleteCycle)

		api.POST("/admissions", catalogHandler.CreateAdmission)
		api.GET("/admissions", catalogHandler.ListAdmissions)
		api.GET("/admissions/:id", catalogHandler.GetAdmission)
		api.PUT("/admissions/:id", catalogHandler.UpdateAdmission)
		api.DELETE("/admissions/:id", catalogHandler.DeleteAdmission)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
