package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/vidyasangam/sangam-cli/internal/telemetry"
)

// DefaultHiddenThreshold is how long the surface must have been hidden before
// becoming visible again triggers a revalidation.
const DefaultHiddenThreshold = 5 * time.Minute

// ValidateFunc confirms against the backend that the session is still usable,
// not merely unexpired by local clock math. It returns nil when the session
// works, an authentication-class error when the backend rejected it, and any
// other error for transient trouble (which keeps the session).
type ValidateFunc func(ctx context.Context) error

// RevalidatorConfig configures a Revalidator. A zero HiddenThreshold takes
// the default.
type RevalidatorConfig struct {
	HiddenThreshold time.Duration
}

// Revalidator catches tokens that silently expired while the surface was
// hidden or unfocused, resolving them proactively instead of letting the next
// API call surprise the user.
//
// The host surface reports its visibility transitions via Hidden, Visible and
// FocusGained. Concurrent validations are tolerated: they are read-then-
// maybe-clear operations and clearing is idempotent.
type Revalidator struct {
	store     Store
	notifier  *Notifier
	validate  ValidateFunc
	threshold time.Duration

	mu          sync.Mutex
	hiddenSince time.Time
}

// NewRevalidator creates a focus/visibility revalidator over the given store.
func NewRevalidator(store Store, notifier *Notifier, validate ValidateFunc, cfg RevalidatorConfig) *Revalidator {
	threshold := cfg.HiddenThreshold
	if threshold <= 0 {
		threshold = DefaultHiddenThreshold
	}

	return &Revalidator{
		store:     store,
		notifier:  notifier,
		validate:  validate,
		threshold: threshold,
	}
}

// Start performs the initial validation: if a session appears to exist it is
// checked against the backend once.
func (v *Revalidator) Start(ctx context.Context) {
	v.Validate(ctx)
}

// Hidden records that the surface became hidden.
func (v *Revalidator) Hidden() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hiddenSince = time.Now()
}

// Visible reports that the surface became visible again. If it was hidden
// longer than the threshold, the session is revalidated.
func (v *Revalidator) Visible(ctx context.Context) {
	v.mu.Lock()
	hiddenSince := v.hiddenSince
	v.hiddenSince = time.Time{}
	v.mu.Unlock()

	if hiddenSince.IsZero() {
		return
	}

	hidden := time.Since(hiddenSince)
	if hidden <= v.threshold {
		return
	}

	log.Debug().Dur("hidden", hidden).Msg("surface was hidden past threshold, revalidating session")
	v.Validate(ctx)
}

// FocusGained reports that the surface regained focus. This always
// revalidates, with no threshold.
func (v *Revalidator) FocusGained(ctx context.Context) {
	v.Validate(ctx)
}

// Validate checks the session against the backend. Returns true when the
// session is usable (or there is no session to check). On a definitive
// rejection it clears the session, publishes a session-expired event, and
// returns false. Validating an already-valid session twice in a row is
// harmless.
func (v *Revalidator) Validate(ctx context.Context) bool {
	if v.store.AccessToken() == "" {
		// Nobody is logged in; nothing to validate.
		return true
	}

	m := telemetry.GetMetrics()
	m.RevalidationsTotal.Add(ctx, 1)

	err := v.validate(ctx)
	if err == nil {
		return true
	}

	if !isAuthError(err) {
		// Transient trouble; keep the session and let a later check decide.
		log.Warn().Err(err).Msg("session revalidation errored, keeping session")
		return true
	}

	m.RevalidationFailures.Add(ctx, 1)
	m.LogoutsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", "revalidation")))
	log.Info().Err(err).Msg("session no longer valid, logging out")

	if clearErr := v.store.Clear(); clearErr != nil {
		log.Warn().Err(clearErr).Msg("failed to clear session")
	}
	if v.notifier != nil {
		v.notifier.Publish(EventSessionExpired, "Your session has expired. Please log in again.")
	}

	return false
}

func isAuthError(err error) bool {
	return errors.Is(err, ErrAuthenticationRequired) ||
		errors.Is(err, ErrAuthenticationFailed) ||
		errors.Is(err, ErrSessionExpired)
}
