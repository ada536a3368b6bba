package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mediamanager/internal/oauth1"
)

func TestNewSessionManager(t *testing.T) {
	sm := setupSessionManager(t)

	assert.Equal(t, "mediamanager_session", sm.Cookie.Name)
	assert.True(t, sm.Cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, sm.Cookie.SameSite)
	assert.Equal(t, 2*time.Hour, sm.Lifetime)
	assert.Equal(t, time.Hour, sm.IdleTimeout)
}

func TestSessionManager_GrantAndRevoke(t *testing.T) {
	sm := setupSessionManager(t)

	ctx, err := sm.Load(context.Background(), "")
	require.NoError(t, err)

	assert.False(t, sm.CanManage(ctx))
	assert.Nil(t, sm.GetSessionData(ctx))

	require.NoError(t, sm.Grant(ctx))
	assert.True(t, sm.CanManage(ctx))

	data := sm.GetSessionData(ctx)
	require.NotNil(t, data)
	assert.True(t, data.Manage)
	assert.WithinDuration(t, time.Now(), data.GrantedAt, time.Minute)

	require.NoError(t, sm.Revoke(ctx))
	assert.False(t, sm.CanManage(ctx))
}

func TestSessionManager_HoldsOAuth1RequestToken(t *testing.T) {
	sm := setupSessionManager(t)
	var session oauth1.Session = sm

	ctx, err := sm.Load(context.Background(), "")
	require.NoError(t, err)

	session.Put(ctx, oauth1.SessionTokenKey, "request-token")
	assert.Equal(t, "request-token", session.GetString(ctx, oauth1.SessionTokenKey))
}

func TestSessionLoadSave_PersistsAcrossRequests(t *testing.T) {
	sm := setupSessionManager(t)

	router := newTestRouter(sm, nil)
	router.POST("/put", func(c *gin.Context) {
		sm.Put(c.Request.Context(), "value", "kept")
		c.Status(http.StatusNoContent)
	})
	router.GET("/get", func(c *gin.Context) {
		c.String(http.StatusOK, sm.GetString(c.Request.Context(), "value"))
	})

	cl := newClient(t, router)
	rr := cl.do(http.MethodPost, "/put", "", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Contains(t, cl.cookies, "mediamanager_session", "cookie written without a body")

	rr = cl.do(http.MethodGet, "/get", "", nil)
	assert.Equal(t, "kept", rr.Body.String())
}
