package auth

import (
	"context"
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"emperror.dev/errors"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/mediamanager/internal/config"
)

// Session data keys. OAuth1 request tokens use the keys defined by the
// oauth1 package.
const (
	SessionKeyManage    = "manage"
	SessionKeyGrantedAt = "granted_at"
)

// DefaultSessionLifetime applies when config.Auth leaves it unset.
const DefaultSessionLifetime = time.Hour

func init() {
	gob.Register(time.Time{})
}

// SessionManager wraps scs.SessionManager. It satisfies oauth1.Session.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager stores sessions in the sessions table of sqlDB, the
// database underlying the main gorm connection.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sessions table")
	}

	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = DefaultSessionLifetime
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)
	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 2

	sm.Cookie.Name = "mediamanager_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	// Lax: the OAuth1 callback is a top-level navigation from the provider
	// and must carry the cookie holding the request token.
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// Grant marks the session as holding the manage permission. The token is
// renewed to prevent session fixation.
func (sm *SessionManager) Grant(ctx context.Context) error {
	if err := sm.RenewToken(ctx); err != nil {
		return errors.Wrap(err, "failed to renew session token")
	}
	sm.Put(ctx, SessionKeyManage, true)
	sm.Put(ctx, SessionKeyGrantedAt, time.Now())
	return nil
}

// Revoke destroys the session.
func (sm *SessionManager) Revoke(ctx context.Context) error {
	return sm.Destroy(ctx)
}

// CanManage reports whether the session was granted the manage permission.
func (sm *SessionManager) CanManage(ctx context.Context) bool {
	return sm.GetBool(ctx, SessionKeyManage)
}

// SessionData is the authentication state stored in a session.
type SessionData struct {
	Manage    bool      `json:"manage"`
	GrantedAt time.Time `json:"granted_at"`
}

// GetSessionData returns nil for sessions without the manage permission.
func (sm *SessionManager) GetSessionData(ctx context.Context) *SessionData {
	if !sm.CanManage(ctx) {
		return nil
	}
	grantedAt, _ := sm.Get(ctx, SessionKeyGrantedAt).(time.Time)
	return &SessionData{Manage: true, GrantedAt: grantedAt}
}
