package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/mediamanager/internal/config"
)

const testKey = "correct-horse-battery"

func init() {
	gin.SetMode(gin.TestMode)
}

func setupSessionManager(t *testing.T) *SessionManager {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "sessions.db")), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	sm, err := NewSessionManager(sqlDB, config.Auth{SessionLifetime: 2 * time.Hour})
	require.NoError(t, err)
	return sm
}

func testKeyHash(t *testing.T) string {
	t.Helper()
	hash, err := HashKey(testKey, bcrypt.MinCost)
	require.NoError(t, err)
	return hash
}

// client replays cookies between requests like a browser would.
type client struct {
	t       *testing.T
	router  http.Handler
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, router http.Handler) *client {
	return &client{t: t, router: router, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	c.router.ServeHTTP(rr, req)

	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge < 0 || cookie.Value == "" {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	return rr
}

func decodeJSON(t *testing.T, body []byte, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body, v), string(body))
}
