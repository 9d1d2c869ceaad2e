package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token decoding here is advisory only: it decides when to attempt a refresh,
// never whether to grant access. The real authorization boundary is the
// backend's 401 response, so no signature verification happens client-side.

// DecodeClaims returns the claims of a bearer token without verifying its
// signature. Returns nil for any malformed input: wrong segment count,
// invalid base64, invalid JSON. Never panics.
func DecodeClaims(token string) jwt.MapClaims {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

// IsExpired reports whether the token's exp claim is in the past. Undecodable
// tokens and tokens without an exp claim count as expired.
//
// The comparison is a strict "exp < now" in whole seconds: a token expiring
// at exactly the current second is still valid. The platform's web client
// behaves this way, so the boundary is kept for compatibility.
func IsExpired(token string) bool {
	exp, ok := expiresAt(token)
	if !ok {
		return true
	}
	return exp.Unix() < time.Now().Unix()
}

// Remaining returns the duration until the token's exp claim. The second
// return value is false when the token cannot be decoded or carries no exp.
func Remaining(token string) (time.Duration, bool) {
	exp, ok := expiresAt(token)
	if !ok {
		return 0, false
	}
	return time.Until(exp), true
}

func expiresAt(token string) (time.Time, bool) {
	claims := DecodeClaims(token)
	if claims == nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
