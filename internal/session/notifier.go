package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Event kinds published on the session notification channel.
const (
	// EventSessionExpired means revalidation or a failed refresh determined the
	// session is dead. UI shells redirect to the login surface on this.
	EventSessionExpired = "session_expired"

	// EventInactivityWarning is the advance notice before an inactivity logout.
	EventInactivityWarning = "inactivity_warning"

	// EventInactivityLogout means the idle timeout elapsed and the session was
	// cleared.
	EventInactivityLogout = "inactivity_logout"
)

// Event is an in-process session lifecycle notification.
type Event struct {
	Kind    string
	Message string
	At      time.Time
}

// Notifier fans session events out to subscribers. Publishing never blocks:
// a subscriber that has fallen behind misses events rather than stalling the
// session machinery.
type Notifier struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: map[int]chan Event{}}
}

// Subscribe registers a listener. The returned cancel function removes the
// subscription and must be called when the listener is done.
func (n *Notifier) Subscribe() (<-chan Event, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++

	ch := make(chan Event, 8)
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(ch)
		}
	}

	return ch, cancel
}

// Publish delivers an event to all current subscribers, dropping it for any
// subscriber whose buffer is full.
func (n *Notifier) Publish(kind, message string) {
	ev := Event{Kind: kind, Message: message, At: time.Now()}

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
			log.Debug().Str("kind", kind).Msg("dropping session event for slow subscriber")
		}
	}
}
