package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/autoecole-dijon/portal-api/api/swagger"
	"github.com/autoecole-dijon/portal-api/internal/handler"
	"github.com/autoecole-dijon/portal-api/internal/middleware"
	"github.com/autoecole-dijon/portal-api/internal/models"
	"github.com/autoecole-dijon/portal-api/internal/repository"
	"github.com/autoecole-dijon/portal-api/internal/service"
	"github.com/autoecole-dijon/portal-api/pkg/cache"
	"github.com/autoecole-dijon/portal-api/pkg/config"
	"github.com/autoecole-dijon/portal-api/pkg/database"
	"github.com/autoecole-dijon/portal-api/pkg/logger"
	corsmiddleware "github.com/autoecole-dijon/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/autoecole-dijon/portal-api/pkg/middleware/requestid"
)

// @title Auto-Ecole Portal API
// @version 1.0.0
// @description Driving school customer portal: lesson slots, reservations, history
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancel()
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}
	cancel()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.AvailabilityTTL, logr, cfg.Cache.Enabled && cacheRepo != nil)

	userRepo := repository.NewUserRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	packageRepo := repository.NewPackageRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "portal-api",
		Audience:           []string{"portal"},
	})
	slotSvc := service.NewSlotService(userRepo, vehicleRepo, cfg.Lessons, logr)
	availabilitySvc := service.NewAvailabilityService(slotSvc, reservationRepo, cacheSvc, cfg.Cache.AvailabilityTTL, logr, nil)
	reservationSvc := service.NewReservationService(reservationRepo, slotSvc, cacheSvc, metricsSvc, validate, logr, cfg.Lessons, nil)
	lessonSvc := service.NewLessonService(reservationRepo, feedbackRepo, validate, logr, nil)
	packageSvc := service.NewPackageService(packageRepo, reservationRepo, validate, logr)
	registrySvc := service.NewRegistryService(userRepo, vehicleRepo, cacheSvc, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	reservationHandler := handler.NewReservationHandler(reservationSvc)
	lessonHandler := handler.NewLessonHandler(lessonSvc)
	registryHandler := handler.NewRegistryHandler(registrySvc)
	packageHandler := handler.NewPackageHandler(packageSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

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

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		protected := auth.Group("")
		protected.Use(middleware.JWT(authSvc))
		protected.POST("/logout", authHandler.Logout)
		protected.POST("/change-password", authHandler.ChangePassword)
		protected.GET("/me", authHandler.Me)
	}

	api.GET("/packages", middleware.OptionalJWT(authSvc), packageHandler.List)

	private := api.Group("")
	private.Use(middleware.JWT(authSvc))
	{
		private.GET("/availability", availabilityHandler.ForDate)

		private.POST("/reservations", middleware.RequireRoles(models.RoleClient), reservationHandler.Book)
		private.GET("/reservations", reservationHandler.List)
		private.DELETE("/reservations/:id", reservationHandler.Cancel)
		private.POST("/reservations/:id/feedback", middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin), lessonHandler.AddFeedback)

		private.GET("/lessons/history", lessonHandler.History)
		private.GET("/lessons/history/export", lessonHandler.Export)

		private.GET("/instructors", registryHandler.Instructors)
		private.GET("/users", middleware.RequireRoles(models.RoleAdmin), registryHandler.Users)
		private.GET("/vehicles", registryHandler.Vehicles)
		private.POST("/vehicles", middleware.RequireRoles(models.RoleAdmin), registryHandler.CreateVehicle)
		private.PUT("/vehicles/:id", middleware.RequireRoles(models.RoleAdmin), registryHandler.UpdateVehicle)
		private.DELETE("/vehicles/:id", middleware.RequireRoles(models.RoleAdmin), registryHandler.RetireVehicle)

		private.POST("/packages", middleware.RequireRoles(models.RoleAdmin), packageHandler.Create)
		private.PUT("/packages/:id", middleware.RequireRoles(models.RoleAdmin), packageHandler.Update)
		private.POST("/packages/:id/purchase", middleware.RequireRoles(models.RoleClient), packageHandler.Purchase)
		private.GET("/me/hours", middleware.RequireRoles(models.RoleClient), packageHandler.HoursBalance)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
