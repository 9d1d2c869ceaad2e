package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// WaitForReady polls the backend health endpoint with exponential backoff
// until it answers 2xx or maxWait elapses. Used before interactive flows so a
// cold backend produces a clean error instead of a confusing login failure.
func (c *Client) WaitForReady(ctx context.Context, maxWait time.Duration) error {
	url := c.base + healthPath

	operation := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Debug().Err(err).Str("url", url).Msg("backend not reachable yet")
			return struct{}{}, err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body) // #nosec G104 - drain for connection reuse

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return struct{}{}, fmt.Errorf("health endpoint returned HTTP %d", resp.StatusCode)
		}

		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxWait),
	)
	if err != nil {
		return fmt.Errorf("backend not ready: %w", err)
	}

	return nil
}
