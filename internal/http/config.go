package http

import (
	"net/http"

	"github.com/mrlokans/mediamanager/internal/audit"
	"github.com/mrlokans/mediamanager/internal/auth"
	"github.com/mrlokans/mediamanager/internal/config"
	"github.com/mrlokans/mediamanager/internal/services"
	"github.com/mrlokans/mediamanager/internal/tokenstore"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	MediaService *services.MediaService
	Database     Pinger
	Auditor      *audit.Service

	// Task queue client and sweep scheduler (optional)
	TaskClient         TaskQueue
	Sweeper            SweepRunner
	AuditRetentionDays int

	// Authentication
	Sessions       *auth.SessionManager
	AuthMiddleware *auth.Middleware
	CSRFSecret     []byte
	SecureCookies  bool
	ReadOnly       bool

	// OAuth1 provider connection (optional)
	OAuth1       config.OAuth1
	TokenStore   *tokenstore.TokenStore
	OAuth1Client *http.Client

	// Media files served below MediaBaseURL
	MediaRoot    string
	MediaBaseURL string
	Thumbs       bool

	// MaxMemory bounds the multipart form held in memory; the rest is
	// spooled to disk.
	MaxMemory int64

	// Application info
	Version string
}
