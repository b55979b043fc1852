package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campus-desk/helpdesk-api/api/swagger"
	"github.com/campus-desk/helpdesk-api/internal/handler"
	"github.com/campus-desk/helpdesk-api/internal/middleware"
	"github.com/campus-desk/helpdesk-api/internal/repository"
	"github.com/campus-desk/helpdesk-api/internal/service"
	"github.com/campus-desk/helpdesk-api/pkg/cache"
	"github.com/campus-desk/helpdesk-api/pkg/config"
	"github.com/campus-desk/helpdesk-api/pkg/database"
	"github.com/campus-desk/helpdesk-api/pkg/docgen"
	"github.com/campus-desk/helpdesk-api/pkg/logger"
	corsmiddleware "github.com/campus-desk/helpdesk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campus-desk/helpdesk-api/pkg/middleware/requestid"
	"github.com/campus-desk/helpdesk-api/pkg/storage"
)

// @title Campus Helpdesk API
// @version 1.0.0
// @description Ticketing service for student requests with generated documents
// @BasePath /api
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

	if err := database.Migrate(cfg.Database); err != nil {
		logr.Sugar().Fatalw("migrations failed", "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, document list caching disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("document storage init failed", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	documentSvc := service.NewDocumentService(documentRepo, ticketRepo, store, docgen.NewRenderer(), cacheRepo, cfg.Documents.ListCacheTTL, metrics, logr)
	ticketSvc := service.NewTicketService(ticketRepo, messageRepo, userRepo, documentRepo, documentSvc, validate, logr)
	exportSvc := service.NewExportService(ticketRepo, userRepo, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Services{
		Auth:      authSvc,
		Tickets:   ticketSvc,
		Documents: documentSvc,
		Users:     userSvc,
		Exports:   exportSvc,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
