// Command stockdb keeps a local database of listed companies, daily prices,
// exchange metrics and quarterly results up to date, and summarizes annual
// reports.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
)

var configPath = flag.String("config", "configs/stockdb.yaml", "path to config file")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&renewCmd{}, "sync")
	commander.Register(&infoCmd{}, "query")
	commander.Register(&getCmd{}, "query")
	commander.Register(&reportCmd{}, "reports")
	commander.Register(&versionCmd{}, "")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
