package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// isLocalPath reports whether path is safe to redirect to: an absolute
// path on this host.
func isLocalPath(path string) bool {
	if !strings.HasPrefix(path, "/") {
		return false
	}
	// protocol-relative URLs (//evil.com) and backslash variants
	if strings.HasPrefix(path, "//") || strings.Contains(path, "\\") {
		return false
	}
	return !strings.Contains(path, "://")
}

// SanitizeRedirectPath returns path when it is local and "/" otherwise.
func SanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// SessionController exchanges the manage key for a session cookie.
type SessionController struct {
	middleware *Middleware
	sessions   *SessionManager
}

func NewSessionController(middleware *Middleware, sessions *SessionManager) *SessionController {
	return &SessionController{middleware: middleware, sessions: sessions}
}

type loginRequest struct {
	Key string `json:"key" form:"key"`
}

// SessionStatus is returned by GET /auth/session.
type SessionStatus struct {
	AuthEnabled bool         `json:"auth_enabled"`
	AuthType    AuthType     `json:"auth_type"`
	Manage      bool         `json:"manage"`
	Session     *SessionData `json:"session,omitempty"`
	CSRFToken   string       `json:"csrf_token,omitempty"`
}

// Status reports the permissions of the caller.
func (sc *SessionController) Status(c *gin.Context) {
	status := SessionStatus{
		AuthEnabled: sc.middleware.Enabled(),
		AuthType:    GetAuthType(c),
		Manage:      CanManage(c),
		CSRFToken:   GetCSRFToken(c),
	}
	if sc.sessions != nil {
		status.Session = sc.sessions.GetSessionData(c.Request.Context())
	}
	c.JSON(http.StatusOK, status)
}

// Login grants the session the manage permission when the key is right.
func (sc *SessionController) Login(c *gin.Context) {
	if !sc.middleware.Enabled() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authentication is not enabled"})
		return
	}

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil || req.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	if !sc.middleware.VerifyKey(c, req.Key) {
		return
	}

	if err := sc.sessions.Grant(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("failed to grant session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	log.Info().Str("ip", c.ClientIP()).Msg("manage session granted")
	c.JSON(http.StatusOK, gin.H{"manage": true})
}

// Logout destroys the session.
func (sc *SessionController) Logout(c *gin.Context) {
	if err := sc.sessions.Revoke(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("failed to destroy session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to destroy session"})
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes mounts the session endpoints under /auth.
func (sc *SessionController) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/auth")
	group.GET("/session", sc.Status)
	group.POST("/session", sc.Login)
	group.DELETE("/session", sc.Logout)
}
