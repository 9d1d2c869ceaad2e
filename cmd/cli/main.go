package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"github.com/vidyasangam/sangam-cli/cmd/cli/internal/commands"
	"github.com/vidyasangam/sangam-cli/internal/logger"
	"github.com/vidyasangam/sangam-cli/internal/telemetry"
)

var (
	version = "dev"
	cli     struct {
		Login       commands.LoginCmd       `cmd:"" help:"Log in to the platform"`
		Register    commands.RegisterCmd    `cmd:"" help:"Create an account"`
		Logout      commands.LogoutCmd      `cmd:"" help:"Log out and clear the stored session"`
		Status      commands.StatusCmd      `cmd:"" help:"Show session status"`
		Whoami      commands.WhoamiCmd      `cmd:"" help:"Show the signed-in profile"`
		Leaderboard commands.LeaderboardCmd `cmd:"" help:"Show the mentoring leaderboard"`
		Watch       commands.WatchCmd       `cmd:"" help:"Keep the session fresh and watch for expiry"`
		Linkedin    commands.LinkedinCmd    `cmd:"" help:"LinkedIn OAuth and post sharing"`
		Server      string                  `help:"Backend URL" env:"SANGAM_SERVER"`
		Debug       bool                    `help:"Enable debug mode."`
		Version     kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug)

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		shutdown, err := telemetry.InitTelemetry(ctx, "sangam-cli", version)
		if err != nil {
			log.Warn().Err(err).Msg("continuing without telemetry")
		} else {
			defer func() {
				_ = shutdown(context.Background())
			}()
		}
	}

	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Server: cli.Server, Version: version})
	cmd.FatalIfErrorf(err)
}
