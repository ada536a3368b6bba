// Package oauth1 is an OAuth 1.0 / 1.0a client.
//
// Authenticate drives the three legged flow from inside an HTTP handler: the
// first call fetches a request token, keeps it in the user's session and
// redirects to the provider; the callback call checks the returned token
// against the session and exchanges it for an access token. Request signs
// arbitrary API calls with HMAC-SHA1 once a token is available.
package oauth1
