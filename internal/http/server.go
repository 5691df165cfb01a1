package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/startera/internal/config"
	"github.com/startera/internal/constants"
	"github.com/startera/internal/db"
	"github.com/startera/internal/domain"
	"github.com/startera/internal/service"
	"github.com/startera/internal/token"
)

const (
	maxBodySize    = 1 << 20 // 1MB max request body
	contextKeyUser = "user"
	bearerPrefix   = "Bearer "
	serviceName    = "startera"
)

// Server wraps the HTTP server
type Server struct {
	config      *config.Config
	database    *db.DB
	authService domain.AuthService
	chatService domain.ChatService
	planService domain.PlanService
	engine      *gin.Engine
	httpServer  *http.Server
}

// NewServer creates a new HTTP server; responder may be nil when no model key is configured
func NewServer(cfg *config.Config, database *db.DB, mailer domain.Mailer, responder domain.ChatResponder) *Server {
	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Environment == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	// Middleware - order matters
	engine.Use(securityHeadersMiddleware())
	engine.Use(corsMiddleware(cfg))
	engine.Use(cacheControlMiddleware())
	engine.Use(loggerMiddleware())
	engine.Use(jsonBodyLimitMiddleware(maxBodySize))

	logger := slog.Default()
	tokens := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	server := &Server{
		config:      cfg,
		database:    database,
		authService: service.NewAuthService(database, tokens, mailer, cfg.Auth, logger),
		chatService: service.NewChatService(database, responder, logger),
		planService: service.NewPlanService(responder, logger),
		engine:      engine,
	}

	server.setupRoutes()

	addr := cfg.ServerAddress
	if addr == "" {
		addr = ":8000"
	}

	// Configure server with timeouts
	server.httpServer = &http.Server{
		Addr:           addr,
		Handler:        engine,
		ReadTimeout:    constants.ServerReadTimeout,
		WriteTimeout:   constants.ServerWriteTimeout,
		IdleTimeout:    constants.ServerIdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	return server
}

// Handler exposes the gin engine
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a running server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// securityHeadersMiddleware adds security-related HTTP headers
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent MIME type sniffing
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		// Prevent clickjacking
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		// HSTS (only if using HTTPS)
		if c.Request.TLS != nil {
			c.Writer.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// corsMiddleware adds CORS headers for the configured origins; "*" allows any
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.CORS.AllowedOrigins {
			if allowedOrigin == "*" || origin == allowedOrigin {
				allowed = true
				break
			}
		}

		if allowed && origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// cacheControlMiddleware disables caching for API responses
func cacheControlMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Writer.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Writer.Header().Set("Pragma", "no-cache")
			c.Writer.Header().Set("Expires", "0")
		}
		c.Next()
	}
}

// jsonBodyLimitMiddleware limits the size of JSON request bodies
func jsonBodyLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodOptions {
			contentType := c.GetHeader("Content-Type")
			if strings.Contains(contentType, "application/json") {
				if c.Request.ContentLength > maxBytes {
					c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{
						Detail: "İstek gövdesi çok büyük.",
						Code:   "REQUEST_TOO_LARGE",
					})
					return
				}
				c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
			}
		}
		c.Next()
	}
}

// loggerMiddleware logs HTTP requests
func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		slog.InfoContext(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"remote_addr", c.ClientIP(),
		)
	}
}

// authMiddleware requires a valid bearer token and stores the user in context
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			respondError(c, domain.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := s.authService.Authenticate(c.Request.Context(), strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			slog.WarnContext(c.Request.Context(), "rejected bearer token", "path", c.Request.URL.Path, "error", err)
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(contextKeyUser, user)
		c.Next()
	}
}

// optionalAuthMiddleware lets anonymous requests through but rejects a bad bearer token
func (s *Server) optionalAuthMiddleware() gin.HandlerFunc {
	required := s.authMiddleware()
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		required(c)
	}
}

// getUserFromContext extracts the authenticated user from context
func getUserFromContext(c *gin.Context) (*db.User, bool) {
	if value, exists := c.Get(contextKeyUser); exists {
		if user, ok := value.(*db.User); ok {
			return user, true
		}
	}
	return nil, false
}
