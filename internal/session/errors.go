package session

import "errors"

// Sentinel errors
var (
	// ErrAuthenticationRequired is returned when a protected call is attempted
	// with no access token in storage. The caller should send the user to login.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrAuthenticationFailed is returned when a token refresh was attempted and
	// definitively failed with no fallback token available. The session is
	// cleared as a side effect.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrUnexpectedHTMLResponse is returned when the backend answered with an
	// HTML payload where JSON was expected, typically an error page from a
	// proxy or a backend that is down.
	ErrUnexpectedHTMLResponse = errors.New("unexpected HTML response")

	// ErrSessionExpired is returned when revalidation determined the session
	// must end.
	ErrSessionExpired = errors.New("session expired")
)
