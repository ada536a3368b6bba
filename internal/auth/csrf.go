package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog/log"
)

// CSRFTokenHeader carries the token on cookie-authenticated API calls.
const CSRFTokenHeader = "X-CSRF-Token"

const csrfContextKey = "csrf_token"

// CSRFMiddleware protects requests that carry the session cookie named
// sessionCookie. Requests without it, and requests presenting a bearer key,
// hold no ambient credentials and pass through; a bad bearer key is rejected
// later by Middleware.Handler.
func CSRFMiddleware(secret []byte, secure bool, sessionCookie string) gin.HandlerFunc {
	protect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.Path("/"),
		csrf.CookieName("mediamanager_csrf"),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		if _, ok := bearerKey(c.GetHeader("Authorization")); ok {
			c.Next()
			return
		}
		if _, err := c.Request.Cookie(sessionCookie); err != nil {
			c.Next()
			return
		}

		req := c.Request
		if !secure {
			req = csrf.PlaintextHTTPRequest(req)
		}

		passed := false
		protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Set(csrfContextKey, csrf.Token(r))
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, req)

		// the error handler has answered; stop the remaining handlers
		if !passed {
			c.Abort()
		}
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	log.Warn().Str("path", r.URL.Path).Err(csrf.FailureReason(r)).Msg("csrf check failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing","code":"csrf"}`))
}

// GetCSRFToken returns the token for the current session, or "" when the
// request was not CSRF-checked.
func GetCSRFToken(c *gin.Context) string {
	return c.GetString(csrfContextKey)
}
