package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vidyasangam/sangam-cli/internal/telemetry"
)

// DefaultSkipWindow is the minimum remaining token lifetime below which a
// refresh is attempted. Tokens with more life left than this are returned
// unchanged so that focus and visibility events don't hammer the refresh
// endpoint.
const DefaultSkipWindow = 10 * time.Minute

// RefresherConfig configures a Refresher.
type RefresherConfig struct {
	// URL is the backend token refresh endpoint.
	URL string

	// HTTPClient is used for the refresh call. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// SkipWindow overrides DefaultSkipWindow when positive.
	SkipWindow time.Duration
}

// Refresher keeps the access token usable with minimal network chatter by
// exchanging the refresh token for a new access token when needed.
type Refresher struct {
	store      Store
	url        string
	httpClient *http.Client
	skipWindow time.Duration
}

// NewRefresher creates a refresh coordinator over the given store.
func NewRefresher(store Store, cfg RefresherConfig) *Refresher {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	skipWindow := cfg.SkipWindow
	if skipWindow <= 0 {
		skipWindow = DefaultSkipWindow
	}

	return &Refresher{
		store:      store,
		url:        cfg.URL,
		httpClient: httpClient,
		skipWindow: skipWindow,
	}
}

// EnsureFreshToken returns an access token that is as usable as the session
// allows:
//
//   - With no refresh token stored it returns the current access token
//     unchanged; the caller may still get 401s later, which is fine.
//   - A non-expired token with more than the skip window remaining is
//     returned without a network call.
//   - Otherwise the refresh endpoint is called; on success the new token is
//     persisted, the logged-in flag re-asserted, and the new token returned.
//   - A failed refresh is non-fatal while any access token remains in
//     storage: the stale token is returned and the caller proceeds
//     optimistically. Only when no token is left at all does the session get
//     cleared, with ErrAuthenticationFailed returned.
func (r *Refresher) EnsureFreshToken(ctx context.Context) (string, error) {
	m := telemetry.GetMetrics()

	access := r.store.AccessToken()
	refresh := r.store.RefreshToken()

	if refresh == "" {
		// Cannot refresh; stay as-is.
		log.Debug().Msg("no refresh token stored, keeping current access token")
		return access, nil
	}

	if remaining, ok := Remaining(access); ok && !IsExpired(access) && remaining > r.skipWindow {
		m.RefreshSkippedTotal.Add(ctx, 1)
		return access, nil
	}

	// Remember which session the refresh belongs to. A logout that lands while
	// the exchange is in flight bumps the generation, and the late result must
	// not resurrect the cleared session.
	gen := r.store.Generation()

	m.RefreshAttemptsTotal.Add(ctx, 1)

	newAccess, err := r.exchange(ctx, refresh)
	if err != nil {
		m.RefreshFailuresTotal.Add(ctx, 1)
		log.Warn().Err(err).Msg("token refresh failed")

		if current := r.store.AccessToken(); current != "" {
			// Transient failure, keep going with what we have.
			return current, nil
		}

		if clearErr := r.store.Clear(); clearErr != nil {
			log.Warn().Err(clearErr).Msg("failed to clear session")
		}
		return "", ErrAuthenticationFailed
	}

	if r.store.Generation() != gen {
		log.Debug().Msg("discarding refresh result, session was cleared mid-flight")
		return "", ErrAuthenticationFailed
	}

	if err := r.store.SaveTokens(newAccess, refresh); err != nil {
		return "", fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	if err := r.store.SetLoggedIn(true); err != nil {
		return "", fmt.Errorf("failed to persist logged-in flag: %w", err)
	}

	log.Debug().Msg("access token refreshed")

	return newAccess, nil
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

func (r *Refresher) exchange(ctx context.Context, refresh string) (string, error) {
	body, err := json.Marshal(refreshRequest{Refresh: refresh})
	if err != nil {
		return "", fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body) // #nosec G104 - drain for connection reuse
		return "", fmt.Errorf("refresh endpoint returned HTTP %d", resp.StatusCode)
	}

	var out refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if out.Access == "" {
		return "", fmt.Errorf("refresh response missing access token")
	}

	return out.Access, nil
}
