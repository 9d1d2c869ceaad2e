package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	httpclient "github.com/vidyasangam/sangam-cli/internal/client"
	"github.com/vidyasangam/sangam-cli/internal/session"
)

// Backend endpoint paths.
const (
	loginPath       = "/api/user/login/"
	adminLoginPath  = "/api/admin/login/"
	registerPath    = "/api/user/register/"
	refreshPath     = "/api/user/token/refresh/"
	profilePath     = "/api/user/profile/"
	leaderboardPath = "/api/user/leaderboard/"
	healthPath      = "/api/health/"
)

// Config configures the backend API client.
type Config struct {
	// BaseURL is the backend root, e.g. https://api.vidyasangam.example
	BaseURL string

	// CacheDir backs the HTTP response cache for read-only endpoints.
	// Empty means in-memory caching only.
	CacheDir string

	// HTTPClient overrides the underlying client for unauthenticated calls
	// (login, register, refresh). Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Client is the typed client for the platform backend. Protected endpoints go
// through the session.Client pipeline (bearer injection, 401 refresh-retry);
// login and registration go direct since no token exists yet.
type Client struct {
	base       string
	store      session.Store
	authed     *session.Client
	refresher  *session.Refresher
	httpClient *http.Client
}

// New creates a backend client wired to the given session store and notifier.
func New(store session.Store, notifier *session.Notifier, cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	base := strings.TrimRight(cfg.BaseURL, "/")

	refresher := session.NewRefresher(store, session.RefresherConfig{
		URL:        base + refreshPath,
		HTTPClient: httpClient,
	})

	authed := session.NewClient(store, refresher, session.ClientConfig{
		HTTPClient: httpclient.NewCachingHTTPClient(cfg.CacheDir),
		Notifier:   notifier,
	})

	return &Client{
		base:       base,
		store:      store,
		authed:     authed,
		refresher:  refresher,
		httpClient: httpClient,
	}
}

// Session returns the authenticated request pipeline for callers that need
// raw access to protected endpoints.
func (c *Client) Session() *session.Client {
	return c.authed
}

// Refresher returns the refresh coordinator.
func (c *Client) Refresher() *session.Refresher {
	return c.refresher
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type loginResponse struct {
	Token   tokenPair `json:"token"`
	IsAdmin bool      `json:"isAdmin"`
	Msg     string    `json:"msg"`
}

type errorResponse struct {
	Msg string `json:"msg"`
}

// Login authenticates with email and password and persists the resulting
// session: both tokens, the admin flag, and the logged-in flag.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}

	var out loginResponse
	if err := c.postJSON(ctx, c.base+loginPath, body, &out); err != nil {
		return err
	}

	if out.Token.Access == "" || out.Token.Refresh == "" {
		return fmt.Errorf("login response missing token data")
	}

	if err := c.saveSession(out.Token.Access, out.Token.Refresh, out.IsAdmin); err != nil {
		return err
	}

	log.Info().Str("email", email).Bool("admin", out.IsAdmin).Msg("logged in")

	return nil
}

type adminLoginResponse struct {
	Token string `json:"token"`
	Msg   string `json:"msg"`
}

// AdminLogin authenticates against the admin endpoint. The admin flow hands
// out a single access token and no refresh token.
func (c *Client) AdminLogin(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}

	var out adminLoginResponse
	if err := c.postJSON(ctx, c.base+adminLoginPath, body, &out); err != nil {
		return err
	}

	if out.Token == "" {
		return fmt.Errorf("admin login response missing token data")
	}

	if err := c.saveSession(out.Token, "", true); err != nil {
		return err
	}

	log.Info().Str("email", email).Msg("admin logged in")

	return nil
}

// Registration is the sign-up payload.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RegNo    string `json:"registration_no,omitempty"`
	Branch   string `json:"branch,omitempty"`
	Semester string `json:"semester,omitempty"`
}

// Register creates an account and persists the resulting session the same way
// a login does.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	var out loginResponse
	if err := c.postJSON(ctx, c.base+registerPath, reg, &out); err != nil {
		return err
	}

	if out.Token.Access == "" || out.Token.Refresh == "" {
		return fmt.Errorf("registration response missing token data")
	}

	if err := c.saveSession(out.Token.Access, out.Token.Refresh, false); err != nil {
		return err
	}

	log.Info().Str("email", reg.Email).Msg("registered")

	return nil
}

// Logout clears the stored session. Clearing twice is harmless.
func (c *Client) Logout() error {
	return c.store.Clear()
}

// Profile is the mentor/mentee profile record.
type Profile struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	RegNo      string `json:"registration_no"`
	Branch     string `json:"branch"`
	Semester   string `json:"semester"`
	LinkedinID string `json:"linkedin_id"`
	Score      int    `json:"score"`
}

// Profile fetches the signed-in user's profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.authed.GetJSON(ctx, c.base+profilePath, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// VerifySession confirms the session is still usable against the backend by
// fetching the profile. This is the Revalidator's validation probe: a nil
// return means the session works, an authentication-class error means it was
// definitively rejected.
func (c *Client) VerifySession(ctx context.Context) error {
	_, err := c.Profile(ctx)
	return err
}

// LeaderboardEntry is one row of the mentoring leaderboard.
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Badge string `json:"badge"`
	Score int    `json:"score"`
}

// Leaderboard fetches the current leaderboard. Responses are served through
// the caching transport.
func (c *Client) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	if err := c.authed.GetJSON(ctx, c.base+leaderboardPath, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) saveSession(access, refresh string, admin bool) error {
	if err := c.store.SaveTokens(access, refresh); err != nil {
		return fmt.Errorf("failed to store tokens: %w", err)
	}
	if err := c.store.SetAdmin(admin); err != nil {
		return fmt.Errorf("failed to store admin flag: %w", err)
	}
	if err := c.store.SetLoggedIn(true); err != nil {
		return fmt.Errorf("failed to store logged-in flag: %w", err)
	}
	return nil
}

// postJSON is the unauthenticated POST helper for login-family endpoints.
// Non-2xx responses surface the backend's msg field when present.
func (c *Client) postJSON(ctx context.Context, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errOut errorResponse
		if json.Unmarshal(data, &errOut) == nil && errOut.Msg != "" {
			return fmt.Errorf("%s", errOut.Msg)
		}
		return fmt.Errorf("POST %s returned HTTP %d", url, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}

	return nil
}
