// ABOUTME: HTTP API for the budget simulator built on gin
// ABOUTME: Router setup with CORS, request ids, request logging and recovery
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harper/budget-simulator/internal/logging"
	"github.com/harper/budget-simulator/internal/service"
)

// RequestIDHeader carries the per-request id in and out
const RequestIDHeader = "X-Request-ID"

// ServiceName is reported by the health endpoint
const ServiceName = "policy-budget-simulator-api"

// Server serves the JSON API. A nil service answers 503 on data routes.
type Server struct {
	svc    *service.Service
	logger *log.Logger
	router *gin.Engine
}

// NewServer builds the router. origins configures CORS; empty allows none.
func NewServer(svc *service.Service, origins []string, logger *log.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{svc: svc, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(s.requestLogger())

	if len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader}
		router.Use(cors.New(corsConfig))
	}

	router.GET("/health", s.health)
	router.POST("/analyze", s.analyze)
	router.GET("/projects", s.listProjects)
	router.GET("/projects/:id", s.getProject)
	router.GET("/stats", s.stats)
	router.GET("/logs", s.listLogs)
	router.GET("/logs/stats", s.logStats)
	router.GET("/logs/:id", s.getLog)
	router.POST("/logs/cleanup", s.cleanupLogs)

	router.NoRoute(func(c *gin.Context) {
		abort(c, http.StatusNotFound, "Not Found", "指定されたエンドポイントが見つかりません")
	})

	s.router = router
	return s
}

// Handler returns the router as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within 30 seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "addr", addr)
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

	s.logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// requestID propagates or assigns an id for each request
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
			"request_id", c.GetString("request_id"))
	}
}
