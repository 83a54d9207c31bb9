package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "bloodcare/api/swagger" // swagger docs
	"bloodcare/internal/config"
	"bloodcare/internal/database"
	"bloodcare/internal/handler"
	"bloodcare/internal/location"
	"bloodcare/internal/logging"
	"bloodcare/internal/middleware"
	"bloodcare/internal/repository"
	"bloodcare/internal/service"
	"bloodcare/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           BloodCare API
// @version         1.0
// @description     Blood donation requests, donor search, funding and community issues.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Release())
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.DSN(), logger, !cfg.Release())
	if err != nil {
		return err
	}
	logger.Info("connected to PostgreSQL")

	catalog := location.Default()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger.Named("ws"))
	go wsHub.Run(ctx)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	donationRepo := repository.NewDonationRequestRepository(db)
	fundRepo := repository.NewFundRepository(db)
	issueRepo := repository.NewIssueRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	tokens := service.TokenConfig{Secret: cfg.JWTSecret, AccessTTL: cfg.AccessTokenTTL, RefreshTTL: cfg.RefreshTokenTTL}
	userService := service.NewUserService(userRepo, tokenRepo, auditRepo, txManager, catalog, tokens, logger.Named("users"))
	donationService := service.NewDonationRequestService(donationRepo, userRepo, auditRepo, txManager, catalog, wsHub, logger.Named("donations"))
	fundService := service.NewFundService(fundRepo, auditRepo, txManager, logger.Named("funds"))
	issueService := service.NewIssueService(issueRepo, auditRepo, txManager, logger.Named("issues"))
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(statsRepo)

	auth := middleware.NewAuthenticator(cfg.JWTSecret, userRepo, logger)
	cookies := middleware.CookieConfig{Secure: cfg.CookieSecure, AccessTTL: cfg.AccessTokenTTL, RefreshTTL: cfg.RefreshTokenTTL}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService, auth, cookies)
	donationHandler := handler.NewDonationRequestHandler(donationService, auth)
	fundHandler := handler.NewFundHandler(fundService, auth)
	issueHandler := handler.NewIssueHandler(issueService, auth)
	locationHandler := handler.NewLocationHandler(catalog)
	auditHandler := handler.NewAuditHandler(auditService, auth)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService, auth)

	// Set up Gin Router
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(middleware.Recovery(logger), middleware.RequestLogger(logger.Named("http")))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "wsClients": wsHub.Clients()})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, cfg.JWTSecret, userRepo)
	})

	// API Routing
	userHandler.RegisterRoutes(router.Group(""))
	donationHandler.RegisterRoutes(router.Group(""))
	fundHandler.RegisterRoutes(router.Group(""))
	issueHandler.RegisterRoutes(router.Group(""))
	locationHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
