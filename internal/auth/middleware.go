package auth

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/mediamanager/internal/media"
)

// Context keys set by Middleware.Handler.
const (
	ContextKeyManage   = "auth_manage"
	ContextKeyAuthType = "auth_type"
)

// AuthType says how a request obtained its permissions.
type AuthType string

const (
	AuthTypeNone    AuthType = "none"    // no manage key configured
	AuthTypeAnon    AuthType = "anon"    // key configured, none presented
	AuthTypeSession AuthType = "session" // session granted by POST /auth/session
	AuthTypeBearer  AuthType = "bearer"  // key presented in Authorization
)

// Middleware resolves the manage permission of each request.
type Middleware struct {
	keyHash  string
	sessions *SessionManager
	limiter  *RateLimiter
}

// NewMiddleware creates the middleware. An empty keyHash disables
// authentication. sessions and limiter may be nil.
func NewMiddleware(keyHash string, sessions *SessionManager, limiter *RateLimiter) *Middleware {
	return &Middleware{keyHash: keyHash, sessions: sessions, limiter: limiter}
}

// Enabled reports whether a manage key is configured.
func (m *Middleware) Enabled() bool {
	return m.keyHash != ""
}

// Handler sets ContextKeyManage and ContextKeyAuthType. A wrong bearer key
// is rejected with 401, and with 429 once the client is locked out.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.Enabled() {
			setAuth(c, AuthTypeNone, true)
			c.Next()
			return
		}

		if key, ok := bearerKey(c.GetHeader("Authorization")); ok {
			if !m.VerifyKey(c, key) {
				return
			}
			setAuth(c, AuthTypeBearer, true)
			c.Next()
			return
		}

		if m.sessions != nil && m.sessions.CanManage(c.Request.Context()) {
			setAuth(c, AuthTypeSession, true)
			c.Next()
			return
		}

		setAuth(c, AuthTypeAnon, false)
		c.Next()
	}
}

// VerifyKey checks key against the configured hash with rate limiting.
// On failure the response has been written and the request aborted.
func (m *Middleware) VerifyKey(c *gin.Context, key string) bool {
	ip := c.ClientIP()

	if m.limiter != nil {
		if allowed, retryAfter := m.limiter.Allow(ip); !allowed {
			c.Header("Retry-After", retryAfterSeconds(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many failed attempts",
				"retry_after": retryAfter.String(),
			})
			return false
		}
	}

	if err := CheckKey(key, m.keyHash); err != nil {
		if m.limiter != nil {
			if locked, _ := m.limiter.RecordFailure(ip); locked {
				log.Warn().Str("ip", ip).Msg("client locked out after failed manage key attempts")
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid manage key"})
		return false
	}

	if m.limiter != nil {
		m.limiter.RecordSuccess(ip)
	}
	return true
}

// retryAfterSeconds formats d as the delay-seconds form of Retry-After.
func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(max(int(math.Ceil(d.Seconds())), 1))
}

// RequireManage rejects requests without the manage permission.
func RequireManage() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CanManage(c) {
			status := http.StatusForbidden
			if GetAuthType(c) == AuthTypeAnon {
				status = http.StatusUnauthorized
			}
			c.AbortWithStatusJSON(status, gin.H{"error": "manage permission required"})
			return
		}
		c.Next()
	}
}

func setAuth(c *gin.Context, authType AuthType, manage bool) {
	c.Set(ContextKeyAuthType, authType)
	c.Set(ContextKeyManage, manage)
}

func bearerKey(header string) (string, bool) {
	scheme, key, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	key = strings.TrimSpace(key)
	return key, key != ""
}

// CanManage reports whether the request holds the manage permission.
func CanManage(c *gin.Context) bool {
	return c.GetBool(ContextKeyManage)
}

func GetAuthType(c *gin.Context) AuthType {
	if t, ok := c.Get(ContextKeyAuthType); ok {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeAnon
}

// Authorizer exposes the request's permissions to upload validation.
func Authorizer(c *gin.Context) media.Authorizer {
	manage := CanManage(c)
	return media.AuthorizerFunc(func(action string) bool {
		return action == media.ActionManage && manage
	})
}
