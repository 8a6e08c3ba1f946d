package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/stockroom/cmd/cli/internal/commands"
	"github.com/wolfeidau/stockroom/internal/logger"
	"github.com/wolfeidau/stockroom/internal/telemetry"
)

var (
	version = "dev"
	cli     struct {
		Login     commands.LoginCmd     `cmd:"" help:"Sign in"`
		Logout    commands.LogoutCmd    `cmd:"" help:"Sign out and clear the stored session"`
		Status    commands.StatusCmd    `cmd:"" help:"Show the current session"`
		Register  commands.RegisterCmd  `cmd:"" help:"Create an account"`
		Products  commands.ProductsCmd  `cmd:"" help:"Manage products"`
		Sales     commands.SalesCmd     `cmd:"" help:"Record sales"`
		Payments  commands.PaymentsCmd  `cmd:"" help:"Record payments"`
		Reports   commands.ReportsCmd   `cmd:"" help:"Admin reports"`
		Dashboard commands.DashboardCmd `cmd:"" help:"Summary of recent sales"`
		Workers   commands.WorkersCmd   `cmd:"" help:"Manage worker accounts"`

		Server   string `help:"API server URL" env:"STOCKROOM_SERVER"`
		StateDir string `help:"Directory for session and config" env:"STOCKROOM_STATE_DIR" type:"path"`
		JSON     bool   `help:"Print results as JSON"`
		Debug    bool   `help:"Enable debug mode."`
		Version  kong.VersionFlag
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("stockroom"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	logger.Install(cli.Debug)

	shutdown, err := telemetry.Init(ctx, "stockroom-cli", version)
	if err != nil {
		log.Warn().Err(err).Msg("telemetry disabled")
		shutdown = func(context.Context) error { return nil }
	}

	err = cmd.Run(&commands.Globals{
		Debug:    cli.Debug,
		Version:  version,
		Server:   cli.Server,
		StateDir: cli.StateDir,
		JSON:     cli.JSON,
	})

	if serr := shutdown(context.Background()); serr != nil {
		log.Debug().Err(serr).Msg("telemetry shutdown failed")
	}

	cmd.FatalIfErrorf(err)
}
