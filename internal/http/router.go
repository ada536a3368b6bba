package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mediamanager/internal/auth"
	"github.com/mrlokans/mediamanager/internal/logging"
	"github.com/mrlokans/mediamanager/internal/readonly"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger())
	router.Use(gin.Recovery())

	if cfg.MaxMemory > 0 {
		router.MaxMultipartMemory = cfg.MaxMemory
	}

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}
	router.Use(readonly.NewMiddleware(cfg.ReadOnly).Handler())

	// Sessions load first so the CSRF check sees the request's cookie and
	// hands the session context on to later handlers.
	if cfg.Sessions != nil {
		router.Use(cfg.Sessions.SessionLoadSave())
		if len(cfg.CSRFSecret) > 0 {
			router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.Sessions.Cookie.Name))
		}
	}

	authMiddleware := cfg.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = auth.NewMiddleware("", cfg.Sessions, nil)
	}
	router.Use(authMiddleware.Handler())

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.MediaRoot, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	if cfg.Sessions != nil {
		auth.NewSessionController(authMiddleware, cfg.Sessions).RegisterRoutes(router)
	}

	if cfg.MediaService != nil {
		NewMediaController(cfg.MediaService, cfg.Thumbs).RegisterRoutes(router)
	}

	if cfg.Auditor != nil {
		NewAuditController(cfg.Auditor).RegisterRoutes(router)
	}

	if cfg.TaskClient != nil {
		NewTasksController(cfg.TaskClient, cfg.AuditRetentionDays).RegisterRoutes(router)
	}

	if cfg.Sweeper != nil {
		NewSweepController(cfg.Sweeper).RegisterRoutes(router)
	}

	if cfg.OAuth1.Enabled() && cfg.Sessions != nil && cfg.TokenStore != nil {
		var auditor OAuthAuditor
		if cfg.Auditor != nil {
			auditor = cfg.Auditor
		}
		NewOAuth1Controller(cfg.OAuth1, cfg.Sessions, cfg.TokenStore, auditor, cfg.OAuth1Client).RegisterRoutes(router)
	}

	// Uploaded files and their variants
	if cfg.MediaRoot != "" && cfg.MediaBaseURL != "" {
		router.Static(cfg.MediaBaseURL, cfg.MediaRoot)
	}

	return router
}

// requestLogger logs one line per request through zerolog.
func requestLogger() gin.HandlerFunc {
	logger := logging.Component("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("size", c.Writer.Size()).
			Str("ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
