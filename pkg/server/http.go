package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kumarabd/gokit/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/snafflertools/consolidator/internal/metrics"
	"github.com/snafflertools/consolidator/pkg/ingest"
	"github.com/snafflertools/consolidator/pkg/query"
	"github.com/snafflertools/consolidator/pkg/store"
)

const uploadFileName = "input.log"

// HTTPConfig contains configuration for the HTTP server. Read and write
// timeouts default to zero: uploads run to hundreds of megabytes and the
// parse endpoint streams events for the duration of the ingest.
type HTTPConfig struct {
	Host           string        `json:"host" yaml:"host" default:"0.0.0.0"`
	Port           string        `json:"port" yaml:"port" default:"8080"`
	ReadTimeout    time.Duration `json:"read_timeout" yaml:"read_timeout" default:"0s"`
	WriteTimeout   time.Duration `json:"write_timeout" yaml:"write_timeout" default:"0s"`
	IdleTimeout    time.Duration `json:"idle_timeout" yaml:"idle_timeout" default:"60s"`
	MaxUploadBytes int64         `json:"max_upload_bytes" yaml:"max_upload_bytes" default:"524288000"` // 500MB
}

// HTTP implements the service's HTTP surface
type HTTP struct {
	handler   *gin.Engine
	ingest    *ingest.Handler
	query     *query.Handler
	store     *store.Store
	log       *logger.Handler
	metric    *metrics.Handler
	config    *HTTPConfig
	server    *http.Server
	isRunning bool
	mu        sync.RWMutex

	// uploadPath is the single pending upload slot; parsing guards the
	// one-active-ingest rule.
	uploadPath string
	parsing    atomic.Bool
}

// NewHTTP creates a new HTTP server instance
func NewHTTP(config *HTTPConfig, in *ingest.Handler, q *query.Handler, st *store.Store, l *logger.Handler, m *metrics.Handler) *HTTP {
	gin.SetMode(gin.ReleaseMode)

	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 500 * 1024 * 1024
	}

	server := &HTTP{
		handler:    gin.New(),
		ingest:     in,
		query:      q,
		store:      st,
		log:        l,
		metric:     m,
		config:     config,
		uploadPath: filepath.Join(st.Dir(), uploadFileName),
	}

	// Add global middleware
	server.handler.Use(gin.Recovery())
	server.handler.Use(server.loggingMiddleware())
	server.handler.Use(server.corsMiddleware())

	server.setupRoutes()

	return server
}

// Start starts the HTTP server
func (s *HTTP) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("HTTP server is already running")
	}

	addr := fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.isRunning = true
	s.log.Info().Msgf("Starting HTTP server on %s", addr)

	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server
func (s *HTTP) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning || s.server == nil {
		return nil
	}

	s.log.Info().Msg("Shutting down HTTP server...")

	if err := s.server.Shutdown(ctx); err != nil {
		s.log.Error().Err(err).Msg("Error during HTTP server shutdown")
		return err
	}

	s.isRunning = false
	s.log.Info().Msg("HTTP server stopped")
	return nil
}

// IsRunning returns true if the HTTP server is currently running
func (s *HTTP) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetHandler returns the gin engine for adding routes
func (s *HTTP) GetHandler() *gin.Engine {
	return s.handler
}

// setupRoutes adds the service routes
func (s *HTTP) setupRoutes() {
	// Dataset lifecycle: upload, parse with SSE progress, clear
	s.handler.POST("/upload", s.uploadHandler)
	s.handler.POST("/parse-uploaded", s.parseUploadedHandler)
	s.handler.POST("/clear", s.clearHandler)

	// Read-only consumers of the parsed store
	s.handler.GET("/entries", s.entriesHandler)
	s.handler.POST("/export", s.exportHandler)

	// Grammar diagnostics for new log samples
	s.handler.POST("/debug-sample", s.debugSampleHandler)

	// Health and metrics endpoints
	s.handler.GET("/healthz", s.healthHandler)
	s.handler.GET("/metrics", s.metricsHandler)
}

// healthHandler handles health check endpoint
func (s *HTTP) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// metricsHandler handles metrics endpoint
func (s *HTTP) metricsHandler(c *gin.Context) {
	promhttp.Handler().ServeHTTP(c.Writer, c.Request)
}

// loggingMiddleware adds request logging
func (s *HTTP) loggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		if s.metric != nil {
			s.metric.IncRequestsReceived(fmt.Sprintf("%d", param.StatusCode))
		}
		s.log.Info().
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status", param.StatusCode).
			Dur("latency", param.Latency).
			Str("client_ip", param.ClientIP).
			Msg("HTTP Request")
		return ""
	})
}

// corsMiddleware adds CORS headers
func (s *HTTP) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
