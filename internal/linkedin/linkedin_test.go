package linkedin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testClient(t *testing.T, apiBase string) *Client {
	t.Helper()
	c, err := New("client-id", "client-secret", "https://app.example/callback")
	require.NoError(t, err)
	c.apiBase = apiBase
	return c
}

func testOAuthToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: "li-access-token",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New("", "secret", "https://app.example/callback")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = New("id", "", "https://app.example/callback")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = New("id", "secret", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestAuthCodeURL(t *testing.T) {
	c, err := New("client-id", "client-secret", "https://app.example/callback")
	require.NoError(t, err)

	url := c.AuthCodeURL("state-1")
	assert.Contains(t, url, Endpoint.AuthURL)
	assert.Contains(t, url, "client_id=client-id")
	assert.Contains(t, url, "state=state-1")
	assert.Contains(t, url, "w_member_social")
}

func TestUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/me", r.URL.Path)
		assert.Equal(t, "Bearer li-access-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "member-123"})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)

	id, err := c.UserID(context.Background(), testOAuthToken())
	require.NoError(t, err)
	assert.Equal(t, "member-123", id)
}

func TestUserID_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)

	_, err := c.UserID(context.Background(), testOAuthToken())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing member ID")
}

func TestSharePost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/ugcPosts", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "urn:li:person:member-123", payload["author"])
		assert.Equal(t, "PUBLISHED", payload["lifecycleState"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "urn:li:share:42"})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)

	id, err := c.SharePost(context.Background(), testOAuthToken(), "member-123", "Proud to mentor this cohort!")
	require.NoError(t, err)
	assert.Equal(t, "urn:li:share:42", id)
}

func TestSharePost_RejectedByAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)

	_, err := c.SharePost(context.Background(), testOAuthToken(), "member-123", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 422")
}
