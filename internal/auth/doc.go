// Package auth guards the media API.
//
// A single manage key grants the core.manage permission, which non-image
// uploads and destructive operations require. The key is configured as a
// bcrypt hash:
//
//	MANAGE_KEY_HASH=$(mediamanager hash-key)
//
// Clients present the key as "Authorization: Bearer <key>", or exchange it
// once for a session cookie at POST /auth/session. Sessions are stored in
// SQLite with scs and also carry the OAuth1 request token between the
// connect redirect and the provider callback.
//
// Without MANAGE_KEY_HASH the service runs unguarded and every request is
// granted core.manage.
//
// Failed key attempts are throttled per client IP by RateLimiter. Cookie
// authenticated requests are CSRF-protected with gorilla/csrf.
package auth
