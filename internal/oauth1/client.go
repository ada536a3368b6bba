package oauth1

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	Version10  = "1.0"
	Version10a = "1.0a"

	// Session keys holding the request token between redirect and callback.
	SessionTokenKey    = "oauth_token.key"
	SessionTokenSecret = "oauth_token.secret"
)

// Options configures a Client.
type Options struct {
	ConsumerKey     string
	ConsumerSecret  string
	RequestTokenURL string
	AuthoriseURL    string
	AccessTokenURL  string
	Callback        string
	Scope           []string
	// Version is "1.0" or "1.0a" (default).
	Version string
	// SendHeaders makes Authenticate write the authorisation redirect itself.
	SendHeaders bool
}

// Token is a request or access token.
type Token struct {
	Key      string `json:"key"`
	Secret   string `json:"secret"`
	Verifier string `json:"-"`
}

// Session keeps the request token between the redirect and the callback.
// *scs.SessionManager satisfies it.
type Session interface {
	GetString(ctx context.Context, key string) string
	Put(ctx context.Context, key string, val interface{})
}

// Response is a provider response with the body read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ResponseValidator decides whether a provider response is acceptable.
type ResponseValidator func(rawURL string, resp *Response) error

// CredentialsVerifier checks that a stored token still works.
type CredentialsVerifier func(ctx context.Context, c *Client) bool

// Client talks to one OAuth1 provider on behalf of one user.
type Client struct {
	opts     Options
	http     *http.Client
	session  Session
	token    *Token
	validate ResponseValidator
	verify   CredentialsVerifier

	now   func() time.Time
	nonce func() string
}

// Option customises a Client.
type Option func(*Client)

func WithResponseValidator(v ResponseValidator) Option {
	return func(c *Client) { c.validate = v }
}

func WithCredentialsVerifier(v CredentialsVerifier) Option {
	return func(c *Client) { c.verify = v }
}

func WithToken(t *Token) Option {
	return func(c *Client) { c.token = t }
}

// NewClient creates a client. A nil httpClient uses a client with a 30 second timeout.
func NewClient(opts Options, httpClient *http.Client, session Session, options ...Option) *Client {
	if opts.Version == "" {
		opts.Version = Version10a
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	c := &Client{
		opts:     opts,
		http:     httpClient,
		session:  session,
		validate: DefaultResponseValidator,
		now:      time.Now,
		nonce:    func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// DefaultResponseValidator rejects responses outside the 2xx range.
func DefaultResponseValidator(rawURL string, resp *Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ResponseError{URL: rawURL, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return nil
}

func (c *Client) Options() Options { return c.opts }

func (c *Client) SetOptions(opts Options) {
	if opts.Version == "" {
		opts.Version = Version10a
	}
	c.opts = opts
}

func (c *Client) Token() *Token { return c.token }

func (c *Client) SetToken(t *Token) { c.token = t }

func (c *Client) is10a() bool { return c.opts.Version == Version10a }

// Authenticate runs one step of the authorisation flow for the request r.
//
// It returns the stored token when one is present and still valid, and the
// access token when r is the provider's callback. Otherwise it obtains a
// request token, records it in the session and, with SendHeaders set, writes
// a redirect to the provider; the returned token is then nil and the caller
// can also read the target from AuthorisationURL.
func (c *Client) Authenticate(w http.ResponseWriter, r *http.Request) (*Token, error) {
	ctx := r.Context()

	if c.token != nil {
		if c.verify == nil || c.verify(ctx, c) {
			return c.token, nil
		}
		c.token = nil
	}

	if c.session == nil {
		return nil, ErrNoSession
	}

	query := r.URL.Query()
	verifier := query.Get("oauth_token")
	if c.is10a() {
		verifier = query.Get("oauth_verifier")
	}

	if verifier == "" {
		if err := c.generateRequestToken(ctx); err != nil {
			return nil, err
		}
		if c.opts.SendHeaders {
			http.Redirect(w, r, c.AuthorisationURL(), http.StatusSeeOther)
		}
		return nil, nil
	}

	token := &Token{
		Key:    c.session.GetString(ctx, SessionTokenKey),
		Secret: c.session.GetString(ctx, SessionTokenSecret),
	}
	if token.Key != query.Get("oauth_token") {
		log.Warn().Str("provider", c.opts.AccessTokenURL).Msg("oauth callback token does not match session")
		return nil, ErrBadSession
	}
	if c.is10a() {
		token.Verifier = query.Get("oauth_verifier")
	}
	c.token = token

	if err := c.generateAccessToken(ctx); err != nil {
		return nil, err
	}
	return c.token, nil
}

// AuthorisationURL is where the user authorises the current request token.
func (c *Client) AuthorisationURL() string {
	key := ""
	if c.token != nil {
		key = c.token.Key
	}

	u := c.opts.AuthoriseURL + "?oauth_token=" + url.QueryEscape(key)
	if len(c.opts.Scope) > 0 {
		u += "&scope=" + url.QueryEscape(strings.Join(c.opts.Scope, " "))
	}
	return u
}

func (c *Client) generateRequestToken(ctx context.Context) error {
	params := url.Values{}
	if c.opts.Callback != "" {
		params.Set("oauth_callback", c.opts.Callback)
	}

	resp, err := c.Request(ctx, c.opts.RequestTokenURL, http.MethodPost, params, nil, nil)
	if err != nil {
		return errors.Wrap(err, "request token")
	}

	values, err := url.ParseQuery(string(resp.Body))
	if err != nil {
		return errors.Wrap(err, "failed to parse request token response")
	}
	if c.is10a() && values.Get("oauth_callback_confirmed") != "true" {
		return ErrBadRequestToken
	}

	c.token = &Token{Key: values.Get("oauth_token"), Secret: values.Get("oauth_token_secret")}
	c.session.Put(ctx, SessionTokenKey, c.token.Key)
	c.session.Put(ctx, SessionTokenSecret, c.token.Secret)
	return nil
}

func (c *Client) generateAccessToken(ctx context.Context) error {
	params := url.Values{}
	params.Set("oauth_token", c.token.Key)
	if c.is10a() {
		params.Set("oauth_verifier", c.token.Verifier)
	}

	resp, err := c.Request(ctx, c.opts.AccessTokenURL, http.MethodPost, params, nil, nil)
	if err != nil {
		return errors.Wrap(err, "access token")
	}

	values, err := url.ParseQuery(string(resp.Body))
	if err != nil {
		return errors.Wrap(err, "failed to parse access token response")
	}
	c.token = &Token{Key: values.Get("oauth_token"), Secret: values.Get("oauth_token_secret")}
	return nil
}

// Request sends a signed request. params go into the Authorization header
// next to the oauth_* defaults; data is sent as the query for GET and as the
// body otherwise. A multipart/form-data Content-Type in headers sends data as
// multipart and keeps it out of the signature.
func (c *Client) Request(ctx context.Context, rawURL, method string, params, data url.Values, headers map[string]string) (*Response, error) {
	method = strings.ToUpper(method)
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return nil, errors.WithMessagef(ErrUnsupportedMethod, "%s", method)
	}

	oauth := url.Values{}
	for k, vs := range params {
		oauth[k] = append([]string(nil), vs...)
	}
	oauth.Set("oauth_consumer_key", c.opts.ConsumerKey)
	oauth.Set("oauth_signature_method", signatureMethod)
	oauth.Set("oauth_version", "1.0")
	oauth.Set("oauth_nonce", c.nonce())
	oauth.Set("oauth_timestamp", strconv.FormatInt(c.now().Unix(), 10))

	multipartBody := strings.Contains(headers["Content-Type"], "multipart/form-data")

	if method == http.MethodGet && len(data) > 0 {
		var err error
		if rawURL, err = appendQuery(rawURL, data); err != nil {
			return nil, errors.Wrapf(err, "invalid url %s", rawURL)
		}
	}

	signed := url.Values{}
	for k, vs := range oauth {
		signed[k] = vs
	}
	if method != http.MethodGet && !multipartBody {
		for k, vs := range data {
			signed[k] = append(signed[k], vs...)
		}
	}

	base, err := BaseString(method, rawURL, signed)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid url %s", rawURL)
	}
	tokenSecret := ""
	if c.token != nil {
		tokenSecret = c.token.Secret
	}
	oauth.Set("oauth_signature", Signature(base, c.opts.ConsumerSecret, tokenSecret))

	body, contentType, err := encodeBody(method, data, multipartBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for %s", rawURL)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", authorizationHeader(oauth))

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, rawURL)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response from %s", rawURL)
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: respBody}
	if c.validate != nil {
		if err := c.validate(rawURL, resp); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

func appendQuery(rawURL string, data url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range data {
		q[k] = append(q[k], vs...)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// encodeBody returns the request body for data and its content type.
func encodeBody(method string, data url.Values, multipartBody bool) (io.Reader, string, error) {
	if method == http.MethodGet || method == http.MethodDelete || len(data) == 0 {
		return nil, "", nil
	}

	if !multipartBody {
		return strings.NewReader(data.Encode()), "application/x-www-form-urlencoded", nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range data {
		for _, v := range vs {
			if err := mw.WriteField(k, v); err != nil {
				return nil, "", errors.Wrap(err, "failed to encode multipart body")
			}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", errors.Wrap(err, "failed to encode multipart body")
	}
	return &buf, mw.FormDataContentType(), nil
}
