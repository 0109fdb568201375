// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"wlm_backend/internal/auth"
	"wlm_backend/internal/config"
	"wlm_backend/internal/crush"
	"wlm_backend/internal/jobs"
	"wlm_backend/internal/middleware"
	platformES "wlm_backend/internal/platform/elasticsearch"
	"wlm_backend/internal/stats"
	"wlm_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Handlers
	authHandler  *auth.Handler
	userHandler  *user.Handler
	crushHandler *crush.Handler
	statsHandler *stats.Handler

	// Jobs
	presenceSweepJob *jobs.PresenceSweepJob

	// Exposed to main for index setup; nil when search indexing is disabled.
	ESClient  *platformES.ESClientWrapper
	AppLogger *zap.Logger
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	crushHandler *crush.Handler,
	statsHandler *stats.Handler,
	presenceSweepJob *jobs.PresenceSweepJob,
	db *gorm.DB,
	esClient *platformES.ESClientWrapper,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	// CORS Middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// Schema management. The store only holds the two tables, so GORM's
	// auto-migration replaces a standalone migration tool here.
	if err := db.AutoMigrate(&user.User{}, &crush.Crush{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	// --- Setup Routes ---
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to WLM API"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "WLM API is healthy!"})
	})

	root := router.Group("")
	authHandler.RegisterRoutes(root)
	userHandler.RegisterRoutes(root)
	crushHandler.RegisterRoutes(root)
	statsHandler.RegisterRoutes(root)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:       httpServer,
		router:           router,
		cfg:              cfg,
		logger:           logger,
		authHandler:      authHandler,
		userHandler:      userHandler,
		crushHandler:     crushHandler,
		statsHandler:     statsHandler,
		presenceSweepJob: presenceSweepJob,
		ESClient:         esClient,
		AppLogger:        logger,
	}, nil
}

func (s *Server) Start() error {
	if s.presenceSweepJob != nil {
		if err := s.presenceSweepJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start presence sweep job", zap.Error(err))
		}
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.presenceSweepJob != nil {
		s.presenceSweepJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
