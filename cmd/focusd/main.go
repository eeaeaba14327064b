package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/focusd/cmd/focusd/commands"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("focusd"),
		kong.Description("Focus session daemon and CLI."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default()})
	if err != nil {
		adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		adapter.ReportAndExit(err)
	}
}
