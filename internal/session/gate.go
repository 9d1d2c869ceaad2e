package session

// IsLoggedIn reports whether a session is present: an access token is stored
// and the user explicitly signed in without signing out since.
//
// This is deliberately optimistic about expiry. An expired access token still
// counts as logged in, because a valid refresh token may be able to renew it;
// the decision is deferred to the Refresher rather than bouncing the user to
// the login screen over a lapsed short-lived token.
func IsLoggedIn(store Store) bool {
	return store.AccessToken() != "" && store.LoggedIn()
}

// IsAdmin returns the stored admin flag verbatim.
func IsAdmin(store Store) bool {
	return store.Admin()
}
