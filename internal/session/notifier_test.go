package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PublishSubscribe(t *testing.T) {
	n := NewNotifier()

	events, cancel := n.Subscribe()
	defer cancel()

	n.Publish(EventSessionExpired, "expired")

	select {
	case ev := <-events:
		assert.Equal(t, EventSessionExpired, ev.Kind)
		assert.Equal(t, "expired", ev.Message)
		assert.False(t, ev.At.IsZero())
	default:
		t.Fatal("expected a buffered event")
	}
}

func TestNotifier_MultipleSubscribers(t *testing.T) {
	n := NewNotifier()

	a, cancelA := n.Subscribe()
	defer cancelA()
	b, cancelB := n.Subscribe()
	defer cancelB()

	n.Publish(EventInactivityWarning, "soon")

	require.Len(t, drainEvents(a), 1)
	require.Len(t, drainEvents(b), 1)
}

func TestNotifier_CancelStopsDelivery(t *testing.T) {
	n := NewNotifier()

	events, cancel := n.Subscribe()
	cancel()

	// Cancel closes the channel and later publishes go nowhere
	n.Publish(EventSessionExpired, "expired")

	_, open := <-events
	assert.False(t, open)

	// A second cancel is a no-op
	cancel()
}

func TestNotifier_PublishNeverBlocks(t *testing.T) {
	n := NewNotifier()

	_, cancel := n.Subscribe()
	defer cancel()

	// Well past the subscriber buffer; extra events are dropped, not queued
	for i := 0; i < 100; i++ {
		n.Publish(EventInactivityWarning, "soon")
	}
}
