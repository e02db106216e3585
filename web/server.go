package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sales-dashboard/config"
	"sales-dashboard/web/handlers"
	"sales-dashboard/web/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	router  *gin.Engine
	handler *handlers.Handler
	limiter *middleware.ClientRateLimiter
	logger  *zap.Logger
	config  *config.Config
}

func NewServer(handler *handlers.Handler, logger *zap.Logger, cfg *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestContext(logger))
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	router.MaxMultipartMemory = cfg.MaxUploadMB << 20

	server := &Server{
		router:  router,
		handler: handler,
		logger:  logger,
		config:  cfg,
		limiter: middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
			MessagesPerMinute: cfg.RateLimitMessagesPerMin,
			FilesPerHour:      cfg.RateLimitFilesPerHour,
			BurstSize:         cfg.RateLimitBurstSize,
			CleanupInterval:   10 * time.Minute,
		}, logger),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	api.POST("/upload", middleware.RateLimitMiddleware(s.limiter, middleware.LimitFile), s.handler.Upload)
	api.GET("/dashboard", s.handler.Dashboard)
	api.POST("/chat", middleware.RateLimitMiddleware(s.limiter, middleware.LimitMessage), s.handler.Chat)
	api.GET("/chat/history", s.handler.History)
	api.GET("/ping", s.handler.Ping)
	api.HEAD("/ping", s.handler.Ping)
	api.GET("/export-pdf", s.handler.ExportPDF)
	api.GET("/report", s.handler.ReportPreview)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's background resources.
func (s *Server) Close() {
	s.limiter.Stop()
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))
	defer s.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("Web server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
