package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRevalidator(t *testing.T, validate ValidateFunc) (*Revalidator, Store, <-chan Event) {
	t.Helper()

	store := NewMemoryStore()
	require.NoError(t, store.SaveTokens(tokenExpiringAt(t, time.Now().Add(time.Hour)), "refresh-1"))
	require.NoError(t, store.SetLoggedIn(true))

	notifier := NewNotifier()
	events, cancel := notifier.Subscribe()
	t.Cleanup(cancel)

	v := NewRevalidator(store, notifier, validate, RevalidatorConfig{})
	return v, store, events
}

func TestRevalidator_NoSessionIsFine(t *testing.T) {
	var calls atomic.Int32
	store := NewMemoryStore()
	v := NewRevalidator(store, nil, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, RevalidatorConfig{})

	assert.True(t, v.Validate(context.Background()))

	// Nothing to validate, so the backend is never asked
	assert.Equal(t, int32(0), calls.Load())
}

func TestRevalidator_ValidSessionKept(t *testing.T) {
	v, store, events := newTestRevalidator(t, func(ctx context.Context) error {
		return nil
	})

	assert.True(t, v.Validate(context.Background()))
	assert.True(t, store.LoggedIn())
	assert.Empty(t, drainEvents(events))
}

func TestRevalidator_TransientErrorKeepsSession(t *testing.T) {
	v, store, events := newTestRevalidator(t, func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	assert.True(t, v.Validate(context.Background()))
	assert.True(t, store.LoggedIn())
	assert.NotEmpty(t, store.AccessToken())
	assert.Empty(t, drainEvents(events))
}

func TestRevalidator_AuthFailureClears(t *testing.T) {
	v, store, events := newTestRevalidator(t, func(ctx context.Context) error {
		return ErrAuthenticationFailed
	})

	assert.False(t, v.Validate(context.Background()))

	assert.False(t, store.LoggedIn())
	assert.Empty(t, store.AccessToken())

	got := drainEvents(events)
	require.Len(t, got, 1)
	assert.Equal(t, EventSessionExpired, got[0].Kind)
}

func TestRevalidator_WrappedAuthErrorClears(t *testing.T) {
	v, store, _ := newTestRevalidator(t, func(ctx context.Context) error {
		return errors.Join(errors.New("profile fetch"), ErrSessionExpired)
	})

	assert.False(t, v.Validate(context.Background()))
	assert.Empty(t, store.AccessToken())
}

func TestRevalidator_DoubleValidationIsHarmless(t *testing.T) {
	var calls atomic.Int32
	v, store, _ := newTestRevalidator(t, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	assert.True(t, v.Validate(context.Background()))
	assert.True(t, v.Validate(context.Background()))

	assert.Equal(t, int32(2), calls.Load())
	assert.True(t, store.LoggedIn())
}

func TestRevalidator_VisibleUnderThresholdSkips(t *testing.T) {
	var calls atomic.Int32
	v, _, _ := newTestRevalidator(t, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	v.Hidden()
	v.Visible(context.Background())

	// Briefly hidden surfaces don't trigger a revalidation
	assert.Equal(t, int32(0), calls.Load())
}

func TestRevalidator_VisibleWithoutHiddenSkips(t *testing.T) {
	var calls atomic.Int32
	v, _, _ := newTestRevalidator(t, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	v.Visible(context.Background())
	assert.Equal(t, int32(0), calls.Load())
}

func TestRevalidator_VisiblePastThresholdValidates(t *testing.T) {
	var calls atomic.Int32
	store := NewMemoryStore()
	require.NoError(t, store.SaveTokens(tokenExpiringAt(t, time.Now().Add(time.Hour)), "refresh-1"))

	v := NewRevalidator(store, nil, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, RevalidatorConfig{HiddenThreshold: time.Millisecond})

	v.Hidden()
	time.Sleep(5 * time.Millisecond)
	v.Visible(context.Background())

	assert.Equal(t, int32(1), calls.Load())
}

func TestRevalidator_FocusGainedAlwaysValidates(t *testing.T) {
	var calls atomic.Int32
	v, _, _ := newTestRevalidator(t, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	v.FocusGained(context.Background())
	v.FocusGained(context.Background())

	assert.Equal(t, int32(2), calls.Load())
}

func TestRevalidator_StartValidatesOnce(t *testing.T) {
	var calls atomic.Int32
	v, _, _ := newTestRevalidator(t, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	v.Start(context.Background())
	assert.Equal(t, int32(1), calls.Load())
}
