package session

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func tokenExpiringAt(t *testing.T, exp time.Time) string {
	t.Helper()
	return makeToken(t, jwt.MapClaims{"exp": exp.Unix()})
}

func TestDecodeClaims_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty string", token: ""},
		{name: "no separators", token: "notatoken"},
		{name: "two segments", token: "aGVhZGVy.cGF5bG9hZA"},
		{name: "four segments", token: "a.b.c.d"},
		{name: "invalid base64 payload", token: "eyJhbGciOiJIUzI1NiJ9.!!!.sig"},
		{name: "invalid json payload", token: "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte("{not json")) + ".sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, DecodeClaims(tt.token))
			assert.True(t, IsExpired(tt.token))

			_, ok := Remaining(tt.token)
			assert.False(t, ok)
		})
	}
}

func TestDecodeClaims_Valid(t *testing.T) {
	token := makeToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix(), "sub": "user-1"})

	claims := DecodeClaims(token)
	require.NotNil(t, claims)
	assert.Equal(t, "user-1", claims["sub"])
}

func TestIsExpired_Boundary(t *testing.T) {
	t.Run("one second in the past is expired", func(t *testing.T) {
		assert.True(t, IsExpired(tokenExpiringAt(t, time.Now().Add(-time.Second))))
	})

	t.Run("one second in the future is valid", func(t *testing.T) {
		assert.False(t, IsExpired(tokenExpiringAt(t, time.Now().Add(time.Second))))
	})

	t.Run("missing exp claim counts as expired", func(t *testing.T) {
		assert.True(t, IsExpired(makeToken(t, jwt.MapClaims{"sub": "user-1"})))
	})
}

func TestRemaining(t *testing.T) {
	t.Run("returns time until expiry", func(t *testing.T) {
		remaining, ok := Remaining(tokenExpiringAt(t, time.Now().Add(time.Hour)))
		require.True(t, ok)
		assert.Greater(t, remaining, 59*time.Minute)
		assert.LessOrEqual(t, remaining, time.Hour)
	})

	t.Run("negative for expired tokens", func(t *testing.T) {
		remaining, ok := Remaining(tokenExpiringAt(t, time.Now().Add(-time.Hour)))
		require.True(t, ok)
		assert.Negative(t, remaining)
	})

	t.Run("not ok without exp", func(t *testing.T) {
		_, ok := Remaining(makeToken(t, jwt.MapClaims{"sub": "user-1"}))
		assert.False(t, ok)
	})
}
