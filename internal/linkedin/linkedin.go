package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

var (
	ErrMissingCredentials = errors.New("client ID, client secret, and redirect URL are required")
)

// Endpoint is LinkedIn's OAuth 2.0 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://www.linkedin.com/oauth/v2/authorization",
	TokenURL: "https://www.linkedin.com/oauth/v2/accessToken",
}

// requestTimeout bounds calls to the LinkedIn API so a slow third party
// cannot hang the caller.
const requestTimeout = 5 * time.Second

// Client handles the LinkedIn OAuth code exchange and the post-sharing calls
// the platform offers mentors.
type Client struct {
	config  *oauth2.Config
	apiBase string
}

// New creates a LinkedIn client.
func New(clientID, clientSecret, redirectURL string) (*Client, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, ErrMissingCredentials
	}

	return &Client{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "w_member_social"},
			Endpoint:     Endpoint,
		},
		apiBase: "https://api.linkedin.com",
	}, nil
}

// AuthCodeURL returns the URL to send the user to for consent.
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// ExchangeCode exchanges an OAuth authorization code for a token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange OAuth code: %w", err)
	}

	log.Debug().Msg("LinkedIn code exchange successful")

	return token, nil
}

type profileResponse struct {
	ID string `json:"id"`
}

// UserID fetches the member ID of the token's owner.
func (c *Client) UserID(ctx context.Context, token *oauth2.Token) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	client := c.config.Client(ctx, token)
	resp, err := client.Get(c.apiBase + "/v2/me")
	if err != nil {
		return "", fmt.Errorf("failed to fetch LinkedIn profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LinkedIn API returned HTTP %d", resp.StatusCode)
	}

	var profile profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", fmt.Errorf("failed to decode LinkedIn profile: %w", err)
	}
	if profile.ID == "" {
		return "", fmt.Errorf("LinkedIn profile missing member ID")
	}

	return profile.ID, nil
}

// SharePost publishes a text post on behalf of the member. Returns the post
// ID assigned by LinkedIn.
func (c *Client) SharePost(ctx context.Context, token *oauth2.Token, memberID, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	payload := map[string]any{
		"author":         "urn:li:person:" + memberID,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary": map[string]any{
					"text": text,
				},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]any{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal post payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/v2/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.config.Client(ctx, token)
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create LinkedIn post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LinkedIn post endpoint returned HTTP %d", resp.StatusCode)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode post response: %w", err)
	}

	log.Info().Str("post", out.ID).Msg("LinkedIn post created")

	return out.ID, nil
}
