package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/vidyasangam/sangam-cli/internal/session"
)

type StatusCmd struct{}

func (s *StatusCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if !session.IsLoggedIn(env.store) {
		fmt.Println("Not logged in")
		return nil
	}

	fmt.Println("Logged in")
	if session.IsAdmin(env.store) {
		fmt.Println("Role: admin")
	}

	access := env.store.AccessToken()
	if remaining, ok := session.Remaining(access); ok {
		if session.IsExpired(access) {
			fmt.Println("Access token: expired (will refresh on next request)")
		} else {
			fmt.Printf("Access token: valid for %s\n", remaining.Round(time.Second))
		}
	} else {
		fmt.Println("Access token: undecodable")
	}

	return nil
}

type WhoamiCmd struct{}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	profile, err := env.api.Profile(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Name:     %s\n", profile.Name)
	fmt.Printf("Email:    %s\n", profile.Email)
	fmt.Printf("Role:     %s\n", profile.Role)
	if profile.Branch != "" {
		fmt.Printf("Branch:   %s (sem %s)\n", profile.Branch, profile.Semester)
	}
	fmt.Printf("Score:    %d\n", profile.Score)

	return nil
}

type LeaderboardCmd struct {
	Limit int `help:"Maximum rows to show" default:"20"`
}

func (l *LeaderboardCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	entries, err := env.api.Leaderboard(ctx)
	if err != nil {
		return err
	}

	for i, entry := range entries {
		if l.Limit > 0 && i >= l.Limit {
			break
		}
		fmt.Printf("%4d  %-30s %-12s %d\n", entry.Rank, entry.Name, entry.Badge, entry.Score)
	}

	return nil
}
