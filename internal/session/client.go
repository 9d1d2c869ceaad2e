package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/vidyasangam/sangam-cli/internal/telemetry"
)

// ClientConfig configures an authenticated Client.
type ClientConfig struct {
	// HTTPClient issues the underlying requests. Defaults to
	// http.DefaultClient. Pass a caching client for cacheable read paths.
	HTTPClient *http.Client

	// Notifier, when set, receives a session-expired event whenever the
	// client clears the session.
	Notifier *Notifier
}

// Client performs HTTP calls with the current access token, self-healing
// exactly once on an authorization failure: a 401 triggers a refresh and a
// single retry with the new token.
type Client struct {
	store      Store
	refresher  *Refresher
	notifier   *Notifier
	httpClient *http.Client
}

// NewClient creates an authenticated HTTP client over the given store and
// refresh coordinator.
func NewClient(store Store, refresher *Refresher, cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		store:      store,
		refresher:  refresher,
		notifier:   cfg.Notifier,
		httpClient: httpClient,
	}
}

// Do issues an authenticated request. The body may be nil. Caller headers are
// merged with the bearer token and a default JSON content type; a caller-set
// Content-Type wins.
//
// The caller owns the response body on success. On a 401 the client refreshes
// and retries once; if no usable token can be produced the session is cleared
// and ErrAuthenticationFailed returned. An HTML payload where JSON was
// expected returns ErrUnexpectedHTMLResponse instead of the response.
func (c *Client) Do(ctx context.Context, method, url string, body []byte, header http.Header) (*http.Response, error) {
	m := telemetry.GetMetrics()

	access := c.store.AccessToken()
	if access == "" {
		log.Debug().Str("url", url).Msg("no access token available for request")
		return nil, ErrAuthenticationRequired
	}

	m.RequestsTotal.Add(ctx, 1)

	resp, err := c.send(ctx, method, url, body, header, access)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("url", url).Msg("request failed")
		if errors.Is(err, ErrAuthenticationRequired) || errors.Is(err, ErrAuthenticationFailed) {
			c.clearSession(ctx, "request_error")
		}
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)

		log.Debug().Str("url", url).Msg("got 401, attempting token refresh")

		if c.store.RefreshToken() == "" {
			c.clearSession(ctx, "no_refresh_token")
			return nil, fmt.Errorf("%w: please log in again", ErrAuthenticationFailed)
		}

		token, refreshErr := c.refresher.EnsureFreshToken(ctx)
		if refreshErr != nil || token == "" {
			c.clearSession(ctx, "refresh_failed")
			return nil, fmt.Errorf("%w: please log in again", ErrAuthenticationFailed)
		}

		m.RetriesAfter401.Add(ctx, 1)

		// Exactly one retry; its result is final either way.
		resp, err = c.send(ctx, method, url, body, header, token)
		if err != nil {
			log.Error().Err(err).Str("method", method).Str("url", url).Msg("retry after refresh failed")
			return nil, err
		}
	}

	if isHTML(resp) {
		drain(resp)
		m.HTMLResponsesTotal.Add(ctx, 1)
		log.Warn().Str("url", url).Msg("backend returned HTML where JSON was expected")
		return nil, fmt.Errorf("%w from %s", ErrUnexpectedHTMLResponse, url)
	}

	return resp, nil
}

// GetJSON issues an authenticated GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	resp, err := c.Do(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("GET %s returned HTTP %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}

	return nil
}

// PostJSON issues an authenticated POST with a JSON body and decodes the JSON
// response into out when out is non-nil.
func (c *Client) PostJSON(ctx context.Context, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, url, body, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("POST %s returned HTTP %d", url, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}

	return nil
}

func (c *Client) send(ctx context.Context, method, url string, body []byte, header http.Header, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-Id", uuid.NewString())

	return c.httpClient.Do(req)
}

func (c *Client) clearSession(ctx context.Context, reason string) {
	if err := c.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("failed to clear session")
	}
	telemetry.GetMetrics().LogoutsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)))
	if c.notifier != nil {
		c.notifier.Publish(EventSessionExpired, "Your session has expired. Please log in again.")
	}
}

func isHTML(resp *http.Response) bool {
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return strings.EqualFold(mediaType, "text/html")
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body) // #nosec G104 - drain for connection reuse
	resp.Body.Close()
}
