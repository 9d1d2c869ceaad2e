package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vidyasangam/sangam-cli/internal/session"
)

type WatchCmd struct {
	IdleTimeout time.Duration `help:"Idle period before forced logout" default:"60m"`
	WarningLead time.Duration `help:"Warning lead time before the timeout" default:"5m"`
}

// Run keeps the session alive the way the web client's background watchers
// do: terminal input counts as activity for the inactivity monitor, and each
// input also triggers a focus-style revalidation against the backend.
func (w *WatchCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if !session.IsLoggedIn(env.store) {
		return fmt.Errorf("not logged in")
	}

	events, cancel := env.notifier.Subscribe()
	defer cancel()

	monitor := session.NewMonitor(env.store, env.notifier, session.MonitorConfig{
		IdleTimeout: w.IdleTimeout,
		WarningLead: w.WarningLead,
	})
	monitor.Start(ctx)
	defer monitor.Stop()

	revalidator := session.NewRevalidator(env.store, env.notifier, env.api.VerifySession,
		session.RevalidatorConfig{})
	revalidator.Start(ctx)

	// Stdin lines are the CLI's stand-in for user interaction events.
	activity := make(chan struct{})
	go func() {
		defer close(activity)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case activity <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Println("Watching session (press Enter to register activity, Ctrl-C to quit)")

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			fmt.Printf("[%s] %s\n", ev.At.Format(time.TimeOnly), ev.Message)
			if ev.Kind == session.EventSessionExpired || ev.Kind == session.EventInactivityLogout {
				return fmt.Errorf("session ended")
			}

		case _, ok := <-activity:
			if !ok {
				log.Debug().Msg("stdin closed, stopping watch")
				return nil
			}
			monitor.Touch()
			revalidator.FocusGained(ctx)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
