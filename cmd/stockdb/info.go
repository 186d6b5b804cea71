package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/rickgao/stockdb/internal/store"
)

type infoCmd struct{}

func (*infoCmd) Name() string     { return "info" }
func (*infoCmd) Synopsis() string { return "describes a table's columns and indexes" }
func (*infoCmd) Usage() string {
	return `stockdb info <table>

Prints the columns and indexes of one of: ` + strings.Join(store.Tables, ", ") + `
`
}

func (*infoCmd) SetFlags(*flag.FlagSet) {}

func (*infoCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	a, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	st, err := a.openStore(ctx)
	if err != nil {
		a.logger.Error("failed to open database", "error", err)
		return subcommands.ExitFailure
	}

	info, err := st.TableInfo(ctx, f.Arg(0))
	if errors.Is(err, store.ErrUnknownTable) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err != nil {
		a.logger.Error("failed to describe table", "error", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "TABLE %s\n\n", info.Name)
	fmt.Fprintln(w, "COLUMN\tTYPE\tNULLABLE")
	for _, c := range info.Columns {
		fmt.Fprintf(w, "%s\t%s\t%t\n", c.Name, c.Type, c.Nullable)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "INDEX\tDEFINITION")
	for _, i := range info.Indexes {
		fmt.Fprintf(w, "%s\t%s\n", i.Name, i.Definition)
	}
	w.Flush()

	return subcommands.ExitSuccess
}
