package oauth1

import (
	"fmt"

	"emperror.dev/errors"
)

// ErrBadSession means the token returned by the provider is not the one kept in the session.
var ErrBadSession = errors.New("bad session")

// ErrBadRequestToken means a 1.0a provider did not confirm the callback.
var ErrBadRequestToken = errors.New("bad request token")

var (
	ErrUnsupportedMethod = errors.New("unsupported http method")
	ErrNoSession         = errors.New("no session configured")
)

// ResponseError is returned by the default validator for non 2xx responses.
type ResponseError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("oauth1: %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}
