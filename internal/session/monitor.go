package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/vidyasangam/sangam-cli/internal/telemetry"
)

// Reference timings for the inactivity monitor.
const (
	DefaultIdleTimeout   = 60 * time.Minute
	DefaultWarningLead   = 5 * time.Minute
	DefaultCheckInterval = time.Minute
)

// MonitorConfig configures a Monitor. Zero fields take the defaults above.
type MonitorConfig struct {
	IdleTimeout   time.Duration
	WarningLead   time.Duration
	CheckInterval time.Duration
}

// Monitor force-logs-out the session after sustained user inactivity, with an
// advance warning one lead time before the timeout.
//
// The host surface reports user activity by calling Touch. Start and Stop own
// the periodic check goroutine; Stop releases the ticker so monitors don't
// leak across surface teardowns.
type Monitor struct {
	store    Store
	notifier *Notifier
	cfg      MonitorConfig

	mu           sync.Mutex
	lastActivity time.Time
	warningShown bool
	loggedOut    bool

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewMonitor creates an inactivity monitor over the given store.
func NewMonitor(store Store, notifier *Notifier, cfg MonitorConfig) *Monitor {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.WarningLead <= 0 {
		cfg.WarningLead = DefaultWarningLead
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}

	return &Monitor{
		store:        store,
		notifier:     notifier,
		cfg:          cfg,
		lastActivity: time.Now(),
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Touch records user activity: it resets the idle clock and re-arms the
// warning. Racing a Touch against a firing timeout is tolerated either way,
// since the user evidently just became active again.
func (m *Monitor) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = time.Now()
	m.warningShown = false
	m.loggedOut = false
}

// Start launches the periodic inactivity check.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		defer close(m.done)

		ticker := time.NewTicker(m.cfg.CheckInterval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				m.check(ctx, now)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop tears down the check goroutine and waits for it to exit. Safe to call
// more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	<-m.done
}

// check is one step of the inactivity state machine. It is driven by the
// Start goroutine in production and called directly with fabricated times in
// tests.
func (m *Monitor) check(ctx context.Context, now time.Time) {
	m.mu.Lock()

	if m.loggedOut {
		m.mu.Unlock()
		return
	}

	idle := now.Sub(m.lastActivity)

	var warn, logout bool
	if idle >= m.cfg.IdleTimeout {
		logout = true
		m.loggedOut = true
	} else if idle >= m.cfg.IdleTimeout-m.cfg.WarningLead && !m.warningShown {
		warn = true
		m.warningShown = true
	}

	m.mu.Unlock()

	if warn {
		telemetry.GetMetrics().InactivityWarningsTotal.Add(ctx, 1)
		log.Info().Dur("idle", idle).Msg("inactivity warning")
		if m.notifier != nil {
			m.notifier.Publish(EventInactivityWarning,
				"You will be logged out soon due to inactivity. Press a key to stay logged in.")
		}
	}

	if logout {
		log.Info().Dur("idle", idle).Msg("logging out due to inactivity")
		if err := m.store.Clear(); err != nil {
			log.Warn().Err(err).Msg("failed to clear session")
		}
		telemetry.GetMetrics().LogoutsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("reason", "inactivity")))
		if m.notifier != nil {
			m.notifier.Publish(EventInactivityLogout,
				"You have been logged out due to inactivity.")
		}
	}
}
