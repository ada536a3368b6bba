package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/mediamanager/internal/auth"
	"github.com/mrlokans/mediamanager/internal/config"
	"github.com/mrlokans/mediamanager/internal/oauth1"
	"github.com/mrlokans/mediamanager/internal/tokenstore"
)

// oauth1Account is the account id access tokens are stored under; the
// service holds one connection per provider.
const oauth1Account = "default"

const sessionKeyOAuth1Next = "oauth1.next"

// OAuthAuditor records OAuth1 flow steps.
type OAuthAuditor interface {
	LogOAuth(provider, action, ipAddr string, err error)
}

// OAuth1Controller connects the service to an OAuth1 provider and keeps the
// access token in the encrypted token store.
type OAuth1Controller struct {
	cfg        config.OAuth1
	sessions   *auth.SessionManager
	tokens     *tokenstore.TokenStore
	auditor    OAuthAuditor
	httpClient *http.Client
}

// NewOAuth1Controller creates the controller. httpClient and auditor may be nil.
func NewOAuth1Controller(cfg config.OAuth1, sessions *auth.SessionManager, tokens *tokenstore.TokenStore, auditor OAuthAuditor, httpClient *http.Client) *OAuth1Controller {
	return &OAuth1Controller{
		cfg:        cfg,
		sessions:   sessions,
		tokens:     tokens,
		auditor:    auditor,
		httpClient: httpClient,
	}
}

func (oc *OAuth1Controller) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/oauth1")
	group.GET("/connect", auth.RequireManage(), oc.Connect)
	// the callback is authorised by the request token held in the session
	group.GET("/callback", oc.Callback)
	group.GET("/status", oc.Status)
	group.DELETE("/token", auth.RequireManage(), oc.Disconnect)
}

func (oc *OAuth1Controller) client() *oauth1.Client {
	return oauth1.NewClient(oauth1.Options{
		ConsumerKey:     oc.cfg.ConsumerKey,
		ConsumerSecret:  oc.cfg.ConsumerSecret,
		RequestTokenURL: oc.cfg.RequestTokenURL,
		AuthoriseURL:    oc.cfg.AuthoriseURL,
		AccessTokenURL:  oc.cfg.AccessTokenURL,
		Callback:        oc.cfg.Callback,
		Scope:           oc.cfg.Scope,
		Version:         oc.cfg.Version,
	}, oc.httpClient, oc.sessions)
}

func (oc *OAuth1Controller) audit(c *gin.Context, action string, err error) {
	if oc.auditor != nil {
		oc.auditor.LogOAuth(oc.cfg.Provider, action, c.ClientIP(), err)
	}
}

// Connect handles GET /oauth1/connect?next=/path. It obtains a request token
// and redirects the browser to the provider.
func (oc *OAuth1Controller) Connect(c *gin.Context) {
	client := oc.client()
	if _, err := client.Authenticate(c.Writer, c.Request); err != nil {
		oc.audit(c, "request_token", err)
		log.Error().Err(err).Str("provider", oc.cfg.Provider).Msg("failed to obtain oauth1 request token")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "failed to contact OAuth provider", Code: "oauth_request_token"})
		return
	}

	if next := c.Query("next"); next != "" {
		oc.sessions.Put(c.Request.Context(), sessionKeyOAuth1Next, auth.SanitizeRedirectPath(next))
	}
	c.Redirect(http.StatusSeeOther, client.AuthorisationURL())
}

// Callback handles GET /oauth1/callback, exchanging the verified request
// token for an access token.
func (oc *OAuth1Controller) Callback(c *gin.Context) {
	client := oc.client()

	var token *oauth1.Token
	err := oauth1.ErrBadSession
	// without these parameters Authenticate would start a new flow
	if c.Query("oauth_token") != "" && (client.Options().Version == oauth1.Version10 || c.Query("oauth_verifier") != "") {
		token, err = client.Authenticate(c.Writer, c.Request)
	}
	if err != nil {
		oc.audit(c, "callback", err)
		log.Warn().Err(err).Str("provider", oc.cfg.Provider).Msg("oauth1 callback failed")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "OAuth authorisation failed", Code: "oauth_callback"})
		return
	}

	err = oc.tokens.SaveOAuth1(oc.cfg.Provider, oauth1Account, token, oc.cfg.Scope)
	oc.audit(c, "connect", err)
	if err != nil {
		respondInternalError(c, err, "save oauth1 token")
		return
	}

	ctx := c.Request.Context()
	oc.sessions.Remove(ctx, oauth1.SessionTokenKey)
	oc.sessions.Remove(ctx, oauth1.SessionTokenSecret)

	log.Info().Str("provider", oc.cfg.Provider).Msg("oauth1 provider connected")

	if next := oc.sessions.PopString(ctx, sessionKeyOAuth1Next); next != "" {
		c.Redirect(http.StatusSeeOther, auth.SanitizeRedirectPath(next))
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": oc.cfg.Provider, "connected": true})
}

// Status handles GET /oauth1/status
func (oc *OAuth1Controller) Status(c *gin.Context) {
	token, err := oc.tokens.LoadOAuth1(oc.cfg.Provider)
	if err != nil {
		respondInternalError(c, err, "load oauth1 token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": oc.cfg.Provider, "connected": token != nil})
}

// Disconnect handles DELETE /oauth1/token
func (oc *OAuth1Controller) Disconnect(c *gin.Context) {
	err := oc.tokens.DeleteToken(oc.cfg.Provider, oauth1Account)
	oc.audit(c, "disconnect", err)
	if err != nil {
		respondInternalError(c, err, "delete oauth1 token")
		return
	}
	c.Status(http.StatusNoContent)
}
