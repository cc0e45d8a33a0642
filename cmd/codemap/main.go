package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/codemap/cmd/codemap/commands"
	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
	"git.home.luguber.info/inful/codemap/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("codemap"),
		kong.Description("Generate navigable code maps that help LLMs understand project architecture."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)
	// AfterApply has installed the configured logger by now.
	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
