package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sgms/grievance-api/api/swagger"
	"github.com/sgms/grievance-api/internal/handler"
	"github.com/sgms/grievance-api/internal/middleware"
	"github.com/sgms/grievance-api/internal/models"
	"github.com/sgms/grievance-api/internal/repository"
	"github.com/sgms/grievance-api/internal/service"
	"github.com/sgms/grievance-api/pkg/cache"
	"github.com/sgms/grievance-api/pkg/config"
	"github.com/sgms/grievance-api/pkg/database"
	"github.com/sgms/grievance-api/pkg/jobs"
	"github.com/sgms/grievance-api/pkg/logger"
	corsmiddleware "github.com/sgms/grievance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sgms/grievance-api/pkg/middleware/requestid"
	"github.com/sgms/grievance-api/pkg/storage"
)

// @title Student Grievance Management API
// @version 1.0.0
// @description Grievance tracking for students, faculty, and administrators
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		redisClient = nil
	}

	attachments, err := storage.NewAttachmentStore(cfg.Uploads.Dir, cfg.Uploads.MaxFileSizeBytes, cfg.Uploads.AllowedExts)
	if err != nil {
		logr.Sugar().Fatalw("failed to init attachment store", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()

	// Repositories.
	grievanceRepo := repository.NewGrievanceRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && redisClient != nil)

	notificationSvc := service.NewNotificationService(notificationRepo, adminRepo, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	}, logr)
	notificationSvc.Start(context.Background())
	defer notificationSvc.Stop()

	authSvc := service.NewAuthService(studentRepo, facultyRepo, adminRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	grievanceSvc := service.NewGrievanceService(grievanceRepo, statusRepo, categoryRepo, facultyRepo, notificationSvc, attachments, cacheSvc, metricsSvc, validate, logr)
	messageSvc := service.NewMessageService(messageRepo, grievanceRepo, notificationSvc, validate, logr)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, grievanceRepo, validate, logr)
	categorySvc := service.NewCategoryService(categoryRepo, statusRepo, validate, logr)
	userSvc := service.NewUserService(studentRepo, facultyRepo, validate, logr)
	statsSvc := service.NewStatsService(statsRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	exportSvc := service.NewExportService(grievanceRepo, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	grievanceHandler := handler.NewGrievanceHandler(grievanceSvc, attachments, signer)
	messageHandler := handler.NewMessageHandler(messageSvc)
	feedbackHandler := handler.NewFeedbackHandler(feedbackSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	adminHandler := handler.NewAdminHandler(grievanceSvc, userSvc, exportSvc, statsSvc, metricsSvc)
	statsHandler := handler.NewStatsHandler(statsSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.GET("/profile", middleware.JWT(authSvc), authHandler.Profile)
		auth.PUT("/profile", middleware.JWT(authSvc), authHandler.UpdateProfile)
		auth.PUT("/password", middleware.JWT(authSvc), authHandler.ChangePassword)
	}

	// Signed download links carry their own authorization.
	api.GET("/attachments/:token", grievanceHandler.DownloadAttachment)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		grievances := protected.Group("/grievances")
		{
			grievances.POST("", middleware.RequireRoles(models.RoleStudent), grievanceHandler.Submit)
			grievances.GET("", grievanceHandler.List)
			grievances.GET("/:id", grievanceHandler.Get)
			grievances.PUT("/:id", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), grievanceHandler.Update)
			grievances.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), grievanceHandler.Delete)
			grievances.PUT("/:id/assign", middleware.RequireRoles(models.RoleAdmin), adminHandler.Assign)
			grievances.GET("/:id/attachment-url", grievanceHandler.AttachmentURL)

			grievances.GET("/:id/messages", messageHandler.List)
			grievances.POST("/:id/messages", messageHandler.Send)

			grievances.POST("/:id/feedback", middleware.RequireRoles(models.RoleStudent), feedbackHandler.Submit)
			grievances.GET("/:id/feedback", feedbackHandler.Get)
		}

		categories := protected.Group("/categories")
		{
			categories.GET("", categoryHandler.List)
			categories.POST("", middleware.RequireRoles(models.RoleAdmin), categoryHandler.Create)
			categories.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), categoryHandler.Update)
			categories.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), categoryHandler.Deactivate)
		}
		protected.GET("/statuses", categoryHandler.Statuses)

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}

		stats := protected.Group("/stats")
		{
			stats.GET("/student", middleware.RequireRoles(models.RoleStudent), statsHandler.StudentDashboard)
			stats.GET("/faculty", middleware.RequireRoles(models.RoleFaculty), statsHandler.FacultyDashboard)
			stats.GET("/admin", middleware.RequireRoles(models.RoleAdmin), statsHandler.AdminDashboard)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			admin.GET("/students", adminHandler.ListStudents)
			admin.POST("/students", adminHandler.CreateStudent)
			admin.PUT("/students/:id", adminHandler.UpdateStudent)
			admin.GET("/faculty", adminHandler.ListFaculty)
			admin.POST("/faculty", adminHandler.CreateFaculty)
			admin.PUT("/faculty/:id", adminHandler.UpdateFaculty)
			admin.GET("/export", adminHandler.Export)
			admin.GET("/workloads", adminHandler.Workloads)
			admin.GET("/system", adminHandler.SystemMetrics)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
