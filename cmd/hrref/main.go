package main

import (
	"os"

	"github.com/willibrandon/hrref/cmd/hrref/cli"
	"github.com/willibrandon/hrref/cmd/hrref/commands"
)

// Version information (set via ldflags during build)
var (
	version = "0.0.0-dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date
	cli.BuiltBy = builtBy
	cli.SetupVersion()

	cli.AddCommand(commands.NewVersionCommand(cli.Console))
	cli.AddCommand(commands.NewListCommand(cli.Console))
	cli.AddCommand(commands.NewUpdateCommand(cli.Console))
	cli.AddCommand(commands.NewServeCommand(cli.Console))
	cli.AddCommand(commands.NewSeedCommand(cli.Console))

	if err := cli.Execute(); err != nil {
		// SilenceErrors is set on the root command
		cli.Console.Error("%v", err)
		os.Exit(commands.ExitCode(err))
	}
}
