package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	backoffice "github.com/brightpixel/backoffice"
	"github.com/brightpixel/backoffice/internal/content"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string
	CookieTTL       time.Duration
	SecureCookies   bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server is the back-office HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer wires the gin router, handlers, and timeouts into a [Server].
func NewServer(cfg ServerConfig, engine *backoffice.Engine, store *content.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.CookieTTL <= 0 {
		cfg.CookieTTL = 12 * time.Hour
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		if _, err := engine.Ping(c.Request.Context()); err != nil {
			respondError(c, http.StatusServiceUnavailable, "unhealthy")
			return
		}
		respondData(c, http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := NewAuthHandler(engine, logger, cfg.CookieTTL, cfg.SecureCookies)
	contentHandler := NewContentHandler(engine, store, logger)
	contentHandler.RegisterRoutes(router, authHandler)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger: logger,
	}
}

// Start runs the HTTP server until it fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
